package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNotesSection(t *testing.T) {
	md := "# Bracket\n\n## Notes\n\n1. Remove all burrs.\n2. Finish: anodize black.\n\n## Views\n\n- Front view\n"
	assert.Equal(t, []string{"Remove all burrs.", "Finish: anodize black."}, Extract(md))
}

func TestExtractEmphasizedTitle(t *testing.T) {
	md := "**GENERAL NOTES:**\n\n- Break sharp edges\n- Tolerances per ISO 2768-m\n"
	assert.Equal(t, []string{"Break sharp edges", "Tolerances per ISO 2768-m"}, Extract(md))
}

func TestExtractNoteParagraphs(t *testing.T) {
	md := "Some text.\n\nNOTE: All dimensions in mm.\n\nMore text."
	assert.Equal(t, []string{"NOTE: All dimensions in mm."}, Extract(md))
}

func TestExtractStripsGroundingTags(t *testing.T) {
	md := "<|ref|>NOTE: deburr<|/ref|><|det|>[[1,2,3,4]]<|/det|>"
	assert.Equal(t, []string{"NOTE: deburr"}, Extract(md))
}

func TestExtractListsOutsideNotes(t *testing.T) {
	assert.Empty(t, Extract("## Parts\n\n- Bolt\n- Nut\n"))
	assert.Empty(t, Extract(""))
}

func TestExtractHeadingMentioningNotes(t *testing.T) {
	assert.Equal(t, []string{"Deburr"}, Extract("## Notes and Remarks\n\n- Deburr\n"))
	assert.Equal(t, []string{"Paint red"}, Extract("### NOTES (SEE SHEET 2)\n\n* Paint red\n"))
}

func TestExtractLongParagraphIsNotATitle(t *testing.T) {
	md := "These notes apply to all sheets\n\n- Bolt\n"
	assert.Empty(t, Extract(md))
}

func FuzzExtract(f *testing.F) {
	for _, s := range []string{"", "\xff\xfe", "NOTE:", "## Notes\n\n- \n-\n", "**NOTES**\n\n1.\n2. x",
		"<|ref|><|det|>[[", "# \n## note\n### \n- a", "> NOTE: quoted\n\n- [ ] task"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, md string) {
		for _, note := range Extract(md) {
			assert.NotEmpty(t, note)
		}
	})
}
