package grounding

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// JSONScanner reads grounding output shaped as a JSON array of
//
//	{"bbox_2d": [x1, y1, x2, y2], "label": "...", "sub_label": "..."}
//
// The array may sit in a fenced code block or appear bare in the text.
// Coordinates are already in pixel space.
type JSONScanner struct{}

type groundingItem struct {
	BBox     []float64 `json:"bbox_2d"`
	Label    string    `json:"label"`
	SubLabel string    `json:"sub_label"`
}

// Name identifies the grammar
func (JSONScanner) Name() string { return "json" }

// Scan decodes the first array that holds at least one object. Elements that
// fail to decode are skipped individually. When the array as a whole is not
// valid JSON its top-level objects are decoded one by one instead.
func (JSONScanner) Scan(text string) []Candidate {
	for _, block := range arrayCandidates(text) {
		var items []json.RawMessage
		salvaged := false
		if err := json.Unmarshal([]byte(block), &items); err != nil {
			items = objectItems(block)
			salvaged = true
		}
		if !hasObject(items) {
			continue
		}
		out := decodeItems(items)
		if salvaged && len(out) == 0 {
			continue
		}
		if salvaged {
			slog.Debug("grounding: array not valid json, decoded objects one by one", "kept", len(out), "objects", len(items))
		}
		return out
	}
	if strings.Contains(text, "bbox_2d") {
		slog.Debug("grounding: no decodable array in model output", "len", len(text))
	}
	return nil
}

func decodeItems(items []json.RawMessage) []Candidate {
	out := make([]Candidate, 0, len(items))
	for i, raw := range items {
		var item groundingItem
		if err := json.Unmarshal(raw, &item); err != nil {
			slog.Debug("grounding: skipped element", "index", i, "error", err)
			continue
		}
		if len(item.BBox) != 4 {
			slog.Debug("grounding: skipped element without bbox_2d", "index", i)
			continue
		}

		label := strings.TrimSpace(item.Label)
		sub := strings.TrimSpace(item.SubLabel)
		if sub != "" {
			label = strings.TrimSpace(label + " " + sub)
		}
		if label == "" {
			continue
		}

		meta := map[string]any{"grammar": "json"}
		if sub != "" {
			meta["sub_label"] = sub
		}
		out = append(out, Candidate{
			Label:      label,
			Box:        [4]float64{item.BBox[0], item.BBox[1], item.BBox[2], item.BBox[3]},
			Provenance: Pixel,
			Metadata:   meta,
		})
	}
	return out
}

func hasObject(items []json.RawMessage) bool {
	for _, raw := range items {
		if s := strings.TrimSpace(string(raw)); strings.HasPrefix(s, "{") {
			return true
		}
	}
	return false
}

// arrayCandidates lists fenced block bodies first, then bare bracketed arrays,
// in document order
func arrayCandidates(text string) []string {
	var out []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if strings.HasPrefix(body, "[") {
			out = append(out, body)
		}
	}
	for _, sp := range outerSpans(text, '[', ']') {
		out = append(out, text[sp[0]:sp[1]])
	}
	return out
}

// objectItems returns the top-level {...} spans of an array that failed to
// decode as a whole
func objectItems(block string) []json.RawMessage {
	inner := block
	if strings.HasPrefix(inner, "[") {
		inner = inner[1:]
	}
	var items []json.RawMessage
	for _, sp := range outerSpans(inner, '{', '}') {
		items = append(items, json.RawMessage(inner[sp[0]:sp[1]]))
	}
	return items
}

// outerSpans finds the outermost balanced open/close pairs of text in a
// single pass. Quotes are only honoured inside an open pair, so stray quotes
// in prose do not hide brackets. Unclosed openers are dropped.
func outerSpans(text string, opener, closer byte) [][2]int {
	var stack []int
	var spans [][2]int
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if len(stack) > 0 {
				inString = true
			}
		case opener:
			stack = append(stack, i)
		case closer:
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, [2]int{start, i + 1})
		}
	}

	// inner pairs close first; keep the ones not nested in an earlier span
	sort.Slice(spans, func(a, b int) bool {
		if spans[a][0] != spans[b][0] {
			return spans[a][0] < spans[b][0]
		}
		return spans[a][1] > spans[b][1]
	})
	outer := spans[:0]
	end := -1
	for _, sp := range spans {
		if sp[0] < end {
			continue
		}
		outer = append(outer, sp)
		end = sp[1]
	}
	return outer
}
