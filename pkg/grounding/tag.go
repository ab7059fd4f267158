package grounding

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	refOpen  = "<|ref|>"
	refClose = "<|/ref|>"
	detOpen  = "<|det|>"
	detClose = "<|/det|>"
)

// boxPattern matches one [x1,y1,x2,y2] group inside a det block, with or
// without whitespace around the separators
var boxPattern = regexp.MustCompile(`\[\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\]`)

// TagScanner reads the inline grounding grammar
//
//	<|ref|>LABEL<|/ref|><|det|>[[x1,y1,x2,y2]]<|/det|>
//
// Both the strict form and the loose form (whitespace between the blocks and
// inside the brackets, missing <|/det|>) are accepted. Coordinates are
// normalized to [0, 999].
type TagScanner struct{}

// Name identifies the grammar
func (TagScanner) Name() string { return "tag" }

// Scan returns one candidate per well-formed box. Malformed occurrences are
// skipped and scanning resumes after them.
func (TagScanner) Scan(text string) []Candidate {
	var out []Candidate
	pos := 0
	for {
		start := strings.Index(text[pos:], refOpen)
		if start < 0 {
			return out
		}
		start += pos + len(refOpen)

		end := strings.Index(text[start:], refClose)
		if end < 0 {
			return out
		}
		label := text[start : start+end]
		next := start + end + len(refClose)

		// an unterminated ref followed by a complete one: keep the inner one
		if inner := strings.LastIndex(label, refOpen); inner >= 0 {
			label = label[inner+len(refOpen):]
		}

		body, rest, ok := detBody(text[next:])
		if !ok {
			pos = next
			continue
		}
		pos = next + rest

		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		for _, box := range parseBoxes(body) {
			out = append(out, Candidate{
				Label:      label,
				Box:        box,
				Provenance: Normalized,
				Metadata:   map[string]any{"grammar": "tag"},
			})
		}
	}
}

// detBody returns the coordinate block following a closed ref tag and the
// number of bytes consumed
func detBody(s string) (string, int, bool) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(trimmed, detOpen) {
		return "", 0, false
	}
	offset := len(s) - len(trimmed) + len(detOpen)
	body := s[offset:]

	limit := len(body)
	if nextRef := strings.Index(body, refOpen); nextRef >= 0 {
		limit = nextRef
	}

	if end := strings.Index(body[:limit], detClose); end >= 0 {
		return body[:end], offset + end + len(detClose), true
	}
	// loose form without the closing marker
	if end := strings.Index(body[:limit], "]]"); end >= 0 {
		return body[:end+2], offset + end + 2, true
	}
	return "", 0, false
}

func parseBoxes(body string) [][4]float64 {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") {
		return nil
	}
	var boxes [][4]float64
	for _, m := range boxPattern.FindAllStringSubmatch(body, -1) {
		var box [4]float64
		valid := true
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(m[i+1])
			if err != nil {
				valid = false
				break
			}
			if v > NormalizedMax {
				v = NormalizedMax
			}
			box[i] = float64(v)
		}
		if valid {
			boxes = append(boxes, box)
		}
	}
	return boxes
}
