package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

const answer = `<|ref|>Ø25 ±0.1mm<|/ref|><|det|>[[120,340,210,380]]<|/det|>
<|ref|>P/N: 12345-A Bracket<|/ref|><|det|>[[500,500,640,530]]<|/det|>
<|ref|>SECTION A-A<|/ref|><|det|>[[10,10,100,40]]<|/det|>

Title: BRACKET ASSEMBLY
DWG NO: DWG-2024-001
REV: B
SCALE: 1:2

| Item | Part Number | Description | Qty |
|------|-------------|-------------|-----|
| 1 | 12345-A | Bracket | 2 |

## Notes

1. Remove all burrs.
`

func TestRunTechnicalDrawing(t *testing.T) {
	r := Run(answer, 999, 999, DefaultOptions())

	require.Len(t, r.DetectedElements, 3)
	assert.Equal(t, types.ElementDimension, r.DetectedElements[0].ElementType)
	assert.Equal(t, types.ElementPartNumber, r.DetectedElements[1].ElementType)
	assert.Equal(t, types.ElementText, r.DetectedElements[2].ElementType)
	assert.Equal(t, types.BoundingBox{X1: 120, Y1: 340, X2: 210, Y2: 380}, r.DetectedElements[0].BBox)

	require.Len(t, r.Dimensions, 1)
	assert.Equal(t, types.DimensionDiameter, r.Dimensions[0].DimensionType)
	require.Len(t, r.PartNumbers, 1)
	assert.Equal(t, "12345-A", r.PartNumbers[0].Number)
	require.Len(t, r.Tables, 1)
	assert.Equal(t, types.TableBOM, r.Tables[0].TableType)

	require.NotNil(t, r.DrawingTitle)
	assert.Equal(t, "BRACKET ASSEMBLY", *r.DrawingTitle)
	require.NotNil(t, r.DrawingNumber)
	assert.Equal(t, "DWG-2024-001", *r.DrawingNumber)
	require.NotNil(t, r.Revision)
	assert.Equal(t, "B", *r.Revision)
	require.NotNil(t, r.Scale)
	assert.Equal(t, "1:2", *r.Scale)

	assert.Equal(t, []string{"Remove all burrs."}, r.Annotations)
	assert.Equal(t, answer, r.Text)
	assert.Equal(t, answer, r.Markdown)
	assert.Equal(t, 999, r.ImageWidth)
}

func TestRunTogglesAreIndependent(t *testing.T) {
	opts := DefaultOptions()
	opts.ExtractPartNumbers = false
	opts.ExtractMetadata = false
	r := Run(answer, 999, 999, opts)

	assert.Len(t, r.Dimensions, 1)
	assert.Empty(t, r.PartNumbers)
	assert.NotNil(t, r.PartNumbers)
	assert.Nil(t, r.DrawingTitle)
	assert.Len(t, r.Tables, 1)
}

func TestOptionsForMode(t *testing.T) {
	dims := OptionsForMode(types.ModeDimensionsOnly)
	assert.True(t, dims.Grounding)
	assert.True(t, dims.ExtractDimensions)
	assert.False(t, dims.ExtractPartNumbers)
	assert.False(t, dims.ExtractTables)

	bom := OptionsForMode(types.ModeBOMExtraction)
	assert.True(t, bom.ExtractTables)
	assert.False(t, bom.ExtractDimensions)

	parts := OptionsForMode(types.ModePartNumbers)
	assert.True(t, parts.ExtractPartNumbers)
	assert.True(t, parts.ExtractMetadata)
	assert.False(t, parts.ExtractAnnotations)

	plain := OptionsForMode(types.ModePlainOCR)
	assert.True(t, plain.Grounding)
	assert.True(t, plain.ExtractMetadata)
	assert.False(t, plain.ExtractDimensions || plain.ExtractPartNumbers || plain.ExtractTables ||
		plain.ExtractAnnotations)

	for _, m := range types.Modes() {
		assert.True(t, OptionsForMode(m).ExtractMetadata, m)
	}

	custom := OptionsForMode(types.ModeCustom)
	assert.Equal(t, DefaultOptions().ExtractAnnotations, custom.ExtractAnnotations)
	assert.Equal(t, types.ModeCustom, custom.Mode)
}

func TestRunPlainOCRKeepsElements(t *testing.T) {
	r := Run(answer, 999, 999, OptionsForMode(types.ModePlainOCR))

	assert.Len(t, r.DetectedElements, 3)
	assert.Empty(t, r.Dimensions)
	assert.Empty(t, r.Tables)
	require.NotNil(t, r.Revision)
	assert.Equal(t, "B", *r.Revision)
}

func TestRunJSONGrammar(t *testing.T) {
	text := "```json\n" + `[{"bbox_2d":[10,20,110,60],"label":"SECTION A-A"},{"bbox_2d":[5,5,50,25],"label":"Ø8","sub_label":"THRU"}]` + "\n```"
	opts := DefaultOptions()
	opts.Grammar = GrammarJSON
	r := Run(text, 500, 400, opts)

	require.Len(t, r.DetectedElements, 2)
	assert.Equal(t, types.ElementView, r.DetectedElements[0].ElementType)
	assert.Equal(t, types.BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 60}, r.DetectedElements[0].BBox)
	require.Len(t, r.Dimensions, 1)
	assert.Equal(t, "Ø8 THRU", r.Dimensions[0].Value)
}

func TestRunForcedGrammarIgnoresOtherFormat(t *testing.T) {
	opts := DefaultOptions()
	opts.Grammar = GrammarJSON
	r := Run(answer, 999, 999, opts)
	assert.Empty(t, r.DetectedElements)
}

func TestRunStripReasoning(t *testing.T) {
	text := "Okay, let me read the drawing.\n## Notes\n\n- Deburr\n"
	opts := DefaultOptions()
	opts.StripReasoning = true
	r := Run(text, 0, 0, opts)

	assert.Equal(t, text, r.Text)
	assert.Equal(t, "## Notes\n\n- Deburr\n", r.Markdown)
	assert.Equal(t, []string{"Deburr"}, r.Annotations)
}

func TestRunEmptyText(t *testing.T) {
	r := Run("", 100, 100, DefaultOptions())

	assert.NotNil(t, r.DetectedElements)
	assert.NotNil(t, r.Dimensions)
	assert.NotNil(t, r.Tables)
	assert.NotNil(t, r.Annotations)
	assert.Empty(t, r.DetectedElements)
}

func TestRunIsSafeForConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := Run(answer, 999, 999, DefaultOptions())
			assert.Len(t, r.DetectedElements, 3)
		}()
	}
	wg.Wait()
}
