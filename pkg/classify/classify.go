// Package classify assigns a semantic element type to a detected label.
//
// Classification is an ordered rule list evaluated top-down; the first
// matching rule wins. Labels often satisfy several rules ("Ø25mm item" is both
// a dimension and table vocabulary), so the order is the tie-break.
package classify

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Rule maps labels accepted by Match to Type
type Rule struct {
	Name  string
	Match func(label string) bool
	Type  types.ElementType
}

// Classifier evaluates its rules in order and falls back to text
type Classifier struct {
	rules []Rule
}

var (
	// unit tokens count as standalone words or directly after a number. "m" and
	// "in" are ordinary words on their own and count only after a number; inch
	// and foot marks count anywhere.
	unitPattern = regexp.MustCompile(`(?i)\b(mm|cm|ft|inch|inches|feet)\b|\d\s*(mm|cm|m|inch|inches|in|ft|feet)\b|["'″′]`)

	// R is the radius symbol only in front of a value (R10, R 2.5)
	radiusPattern = regexp.MustCompile(`\bR\s?\d`)

	// PartNumberPattern matches a part reference prefix followed by its token.
	// Group 2 is the token.
	PartNumberPattern = regexp.MustCompile(`(?i)\b(p/n|part(?:\s*(?:no\.?|number))?|item(?:\s*no\.?)?|pos\.?|no\.?)(?:\s*[:#]\s*|\s+|\b)([\w-]+)`)

	tableWords = []string{"item", "qty", "description", "part number"}
	titleWords = []string{"title", "drawing", "sheet", "revision"}
	viewWords  = []string{"view", "section", "detail", "elevation", "isometric"}

	dimensionSymbols = []string{"Ø", "∅", "±", "°"}
)

// Fold maps fullwidth forms (ｍｍ, ２５) to their ASCII equivalents for matching
func Fold(label string) string {
	return width.Fold.String(label)
}

// IsDimension reports whether the label carries a unit token or a dimension symbol
func IsDimension(label string) bool {
	label = Fold(label)
	for _, sym := range dimensionSymbols {
		if strings.Contains(label, sym) {
			return true
		}
	}
	return unitPattern.MatchString(label) || radiusPattern.MatchString(label)
}

// IsPartNumber reports whether the label has a part reference prefix and token
func IsPartNumber(label string) bool {
	return PartNumberPattern.MatchString(Fold(label))
}

func containsAny(words []string) func(string) bool {
	return func(label string) bool {
		lower := strings.ToLower(Fold(label))
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

// TagRules is the rule order for the inline tag grammar
func TagRules() []Rule {
	return []Rule{
		{Name: "dimension", Match: IsDimension, Type: types.ElementDimension},
		{Name: "part_number", Match: IsPartNumber, Type: types.ElementPartNumber},
		{Name: "table", Match: containsAny(tableWords), Type: types.ElementTable},
		{Name: "title", Match: containsAny(titleWords), Type: types.ElementTitle},
	}
}

// GroundingRules is the rule order for JSON grounding output. View vocabulary
// takes priority over everything else.
func GroundingRules() []Rule {
	view := Rule{Name: "view", Match: containsAny(viewWords), Type: types.ElementView}
	return append([]Rule{view}, TagRules()...)
}

// New creates a classifier over the given ordered rules
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Tag returns the classifier used for the tag grammar
func Tag() *Classifier {
	return New(TagRules())
}

// Grounding returns the classifier used for JSON grounding output
func Grounding() *Classifier {
	return New(GroundingRules())
}

// Classify returns the type of the first matching rule, or text
func (c *Classifier) Classify(label string) types.ElementType {
	for _, r := range c.rules {
		if r.Match(label) {
			return r.Type
		}
	}
	return types.ElementText
}

// Rules returns a copy of the rule order
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
