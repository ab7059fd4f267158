// Package fields extracts typed fields from classified elements and raw text.
package fields

import (
	"regexp"
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/classify"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// dimensionPattern: optional Ø/∅/R prefix, value, unit, ± tolerance, and a
// unit trailing the tolerance ("Ø25 ±0.1mm")
var dimensionPattern = regexp.MustCompile(
	`(Ø|∅|R)?\s?(\d+(?:\.\d+)?)\s*((?i:mm|cm|m|in|ft)|°|″|′)?(\s*±\s*\d+(?:\.\d+)?)?\s*((?i:mm|cm|m|in|ft)|°|″|′)?`,
)

// Dimensions parses every element classified as a dimension. Labels without a
// numeric value produce nothing.
func Dimensions(elements []types.DetectedElement) []types.Dimension {
	var out []types.Dimension
	for _, el := range elements {
		if el.ElementType != types.ElementDimension {
			continue
		}
		if dim, ok := ParseDimension(el.Label); ok {
			bbox := el.BBox
			dim.BBox = &bbox
			out = append(out, dim)
		}
	}
	return out
}

// ParseDimension parses a single dimension label. Value keeps the label verbatim.
func ParseDimension(label string) (types.Dimension, bool) {
	m := dimensionPattern.FindStringSubmatch(classify.Fold(label))
	if m == nil {
		return types.Dimension{}, false
	}
	prefix, unit, tolerance := m[1], m[3], strings.TrimSpace(m[4])
	if unit == "" {
		unit = m[5]
	}

	dim := types.Dimension{
		Value:         label,
		DimensionType: dimensionType(prefix, label),
	}
	if unit != "" {
		dim.Unit = &unit
	}
	if tolerance != "" {
		dim.Tolerance = &tolerance
	}
	return dim, true
}

// the prefix symbol wins over the degree sign
func dimensionType(prefix, label string) types.DimensionType {
	switch {
	case prefix == "Ø" || prefix == "∅":
		return types.DimensionDiameter
	case prefix == "R":
		return types.DimensionRadius
	case strings.Contains(label, "°"):
		return types.DimensionAngular
	default:
		return types.DimensionLinear
	}
}
