// Package annotations collects general notes from the markdown answer of a
// drawing analysis.
package annotations

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	detTags = regexp.MustCompile(`(?s)<\|det\|>.*?<\|/det\|>`)
	refTags = regexp.MustCompile(`<\|/?ref\|>`)
)

// Extract returns the notes found in markdown: list items under a heading or
// emphasized line naming notes, and paragraphs starting with "NOTE:".
func Extract(markdown string) []string {
	source := []byte(refTags.ReplaceAllString(detTags.ReplaceAllString(markdown, ""), ""))
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var notes []string
	notesLevel := 0 // heading level of the open notes section, 0 when none

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := nodeText(node, source)
			if isNotesHeading(title) {
				notesLevel = node.Level
			} else if notesLevel > 0 && node.Level <= notesLevel {
				notesLevel = 0
			}
		case *ast.Paragraph:
			para := nodeText(node, source)
			switch {
			case isNotesTitle(para):
				notesLevel = 7
			case strings.HasPrefix(strings.ToUpper(para), "NOTE:"):
				notes = append(notes, para)
			}
		case *ast.List:
			if notesLevel == 0 {
				continue
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := nodeText(item, source); t != "" {
					notes = append(notes, t)
				}
			}
		}
	}
	return notes
}

// isNotesHeading matches any heading mentioning notes ("Notes and Remarks",
// "NOTE", "General notes")
func isNotesHeading(s string) bool {
	return strings.Contains(strings.ToLower(s), "note")
}

// isNotesTitle matches a standalone paragraph such as "Notes", "General notes:"
// or "**NOTES**"; longer paragraphs are note text, not a section title
func isNotesTitle(s string) bool {
	s = strings.ToLower(strings.TrimSpace(strings.TrimRight(s, ": ")))
	return s == "note" || s == "notes" || strings.HasSuffix(s, " notes") || strings.HasSuffix(s, " note")
}

// nodeText concatenates the inline text below n
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.ListItem, *ast.Paragraph, *ast.TextBlock:
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(buf.String()), " ")
}
