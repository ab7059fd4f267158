package fields

import (
	"regexp"
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Each title block field has its own alternatives, most specific first.
// Group 1 is the value.
var (
	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:title|drawing)[:\s]+(.+?)(?:\n|$)`),
	}

	// the generic alternative only accepts a value with a digit in it, so
	// "Drawing Notes" or "DWG NOMINAL SIZE" yield no number
	numberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:dwg\.?\s*(?:no\.?|number)|drawing\s+(?:no\.?|number)|part\s+no\.?)[:\s#]+([\w-]+)`),
		regexp.MustCompile(`(?i)\b(?:drawing|dwg|no\.?)[:\s#]+([\w-]*\d[\w-]*)`),
	}

	revisionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:rev\.?|revision)[:\s]+([A-Z0-9]+)`),
	}

	scalePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)scale[:\s]+(1:\d+|\d+:\d+)`),
	}
)

// Metadata looks up the four title block fields over the whole text. The
// lookups are independent; a field without a match stays nil.
func Metadata(text string) types.DrawingMetadata {
	return types.DrawingMetadata{
		Title:    firstMatch(titlePatterns, text),
		Number:   firstMatch(numberPatterns, text),
		Revision: firstMatch(revisionPatterns, text),
		Scale:    firstMatch(scalePatterns, text),
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) *string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := strings.Trim(m[1], " \t\r*_")
		if v != "" {
			return &v
		}
	}
	return nil
}
