package fields

import (
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/classify"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// PartNumbers parses every element classified as a part number. When no
// structured reference is found the whole label is the number.
func PartNumbers(elements []types.DetectedElement) []types.PartNumber {
	var out []types.PartNumber
	for _, el := range elements {
		if el.ElementType != types.ElementPartNumber {
			continue
		}
		pn := ParsePartNumber(el.Label)
		bbox := el.BBox
		pn.BBox = &bbox
		out = append(out, pn)
	}
	return out
}

// ParsePartNumber extracts the token after a part reference prefix. Text
// following the token becomes the description.
func ParsePartNumber(label string) types.PartNumber {
	folded := classify.Fold(label)
	loc := classify.PartNumberPattern.FindStringSubmatchIndex(folded)
	if loc == nil {
		return types.PartNumber{Number: label}
	}

	pn := types.PartNumber{Number: folded[loc[4]:loc[5]]}
	if desc := strings.Trim(folded[loc[1]:], " \t-–:,;"); desc != "" {
		pn.Description = &desc
	}
	return pn
}
