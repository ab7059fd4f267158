// Package reasoning trims the thinking preamble that "Thinking" model variants
// put in front of their answer.
//
// Stripping is a best-effort heuristic. Its output is advisory text for
// display; nothing in the structured extraction path reads it.
package reasoning

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LengthThreshold is the size above which a long answer is cut down to its
// last two paragraphs when no other strategy applies
const LengthThreshold = 1000

var (
	thinkBlock   = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)
	numberedItem = regexp.MustCompile(`^\d+[.)]\s`)

	// Openers are phrases that begin a line of internal reasoning
	Openers = []string{
		"let me", "i need to", "i should", "i'll ", "i will ", "first,",
		"okay", "ok,", "hmm", "wait", "so the user", "the user wants",
		"let's", "alright",
	}
)

// Strategy attempts to locate the answer in lines; ok is false when it does
// not apply
type Strategy struct {
	Name  string
	Apply func(text string, lines []string) (answer string, ok bool)
}

// Strategies is the ordered list tried by Strip; the first that applies wins
var Strategies = []Strategy{
	{Name: "structured_marker", Apply: fromStructuredMarker},
	{Name: "after_reasoning", Apply: afterLastOpener},
	{Name: "tail_paragraphs", Apply: tailParagraphs},
}

// Strip removes a reasoning preamble from text. When no strategy applies the
// text is returned unchanged.
func Strip(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	for _, s := range Strategies {
		if answer, ok := s.Apply(text, lines); ok {
			return answer
		}
	}
	return text
}

func fromStructuredMarker(_ string, lines []string) (string, bool) {
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "#"), strings.HasPrefix(t, "**"):
		case i > 5 && numberedItem.MatchString(t):
		case i > 5 && isBullet(t):
		default:
			continue
		}
		return strings.Join(lines[i:], "\n"), true
	}
	return "", false
}

func afterLastOpener(_ string, lines []string) (string, bool) {
	last := -1
	for i, line := range lines {
		if isReasoning(line) {
			last = i
		}
	}
	if last < 0 {
		return "", false
	}
	for i := last + 1; i < len(lines); i++ {
		if t := strings.TrimSpace(lines[i]); t != "" && !isReasoning(t) {
			return strings.Join(lines[i:], "\n"), true
		}
	}
	return "", false
}

func tailParagraphs(text string, _ []string) (string, bool) {
	if utf8.RuneCountInString(text) <= LengthThreshold {
		return "", false
	}
	var blocks []string
	for _, b := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(b) != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) < 2 {
		return "", false
	}
	return strings.Join(blocks[len(blocks)-2:], "\n\n"), true
}

func isBullet(t string) bool {
	return strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") || strings.HasPrefix(t, "• ")
}

func isReasoning(line string) bool {
	lower := strings.ToLower(line)
	for _, o := range Openers {
		if strings.Contains(lower, o) {
			return true
		}
	}
	return false
}
