package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

func ptr(s string) *string { return &s }

func TestParseDimension(t *testing.T) {
	tests := []struct {
		label     string
		typ       types.DimensionType
		unit      *string
		tolerance *string
	}{
		{"Ø25 ±0.1mm", types.DimensionDiameter, ptr("mm"), ptr("±0.1")},
		{"∅12", types.DimensionDiameter, nil, nil},
		{"R5", types.DimensionRadius, nil, nil},
		{"R 2.5 mm", types.DimensionRadius, ptr("mm"), nil},
		{"45°", types.DimensionAngular, ptr("°"), nil},
		{"120mm", types.DimensionLinear, ptr("mm"), nil},
		{"50.8 ± 0.05 in", types.DimensionLinear, ptr("in"), ptr("± 0.05")},
		{"１２０ｍｍ", types.DimensionLinear, ptr("mm"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			d, ok := ParseDimension(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.label, d.Value)
			assert.Equal(t, tt.typ, d.DimensionType)
			assert.Equal(t, tt.unit, d.Unit)
			assert.Equal(t, tt.tolerance, d.Tolerance)
		})
	}
}

func TestParseDimensionWithoutValue(t *testing.T) {
	_, ok := ParseDimension("Ø THRU")
	assert.False(t, ok)
}

func TestDimensionsUsesOnlyDimensionElements(t *testing.T) {
	box := types.BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}
	els := []types.DetectedElement{
		{Label: "Ø25", ElementType: types.ElementDimension, BBox: box},
		{Label: "Item 25", ElementType: types.ElementPartNumber},
		{Label: "Ø", ElementType: types.ElementDimension},
	}

	got := Dimensions(els)
	require.Len(t, got, 1)
	assert.Equal(t, "Ø25", got[0].Value)
	require.NotNil(t, got[0].BBox)
	assert.Equal(t, box, *got[0].BBox)
}

func TestParsePartNumber(t *testing.T) {
	tests := []struct {
		label       string
		number      string
		description *string
	}{
		{"P/N: 12345-A Bracket", "12345-A", ptr("Bracket")},
		{"Item 3", "3", nil},
		{"Part No. 4711 - Hex bolt", "4711", ptr("Hex bolt")},
		{"POS# 7", "7", nil},
		{"XYZ-100", "XYZ-100", nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			pn := ParsePartNumber(tt.label)
			assert.Equal(t, tt.number, pn.Number)
			assert.Equal(t, tt.description, pn.Description)
		})
	}
}

func TestPartNumbersUsesOnlyPartNumberElements(t *testing.T) {
	els := []types.DetectedElement{
		{Label: "P/N 88", ElementType: types.ElementPartNumber},
		{Label: "Ø25", ElementType: types.ElementDimension},
	}

	got := PartNumbers(els)
	require.Len(t, got, 1)
	assert.Equal(t, "88", got[0].Number)
	assert.NotNil(t, got[0].BBox)
}

func TestMetadata(t *testing.T) {
	text := "Title: BRACKET ASSEMBLY\nDWG NO: DWG-2024-001\nREV: B\nSCALE: 1:2\n"
	md := Metadata(text)

	assert.Equal(t, ptr("BRACKET ASSEMBLY"), md.Title)
	assert.Equal(t, ptr("DWG-2024-001"), md.Number)
	assert.Equal(t, ptr("B"), md.Revision)
	assert.Equal(t, ptr("1:2"), md.Scale)
}

func TestMetadataFieldsAreIndependent(t *testing.T) {
	md := Metadata("Some notes.\nREV: C\n")

	assert.Nil(t, md.Title)
	assert.Nil(t, md.Number)
	assert.Equal(t, ptr("C"), md.Revision)
	assert.Nil(t, md.Scale)
}

func TestMetadataMarkdownEmphasis(t *testing.T) {
	md := Metadata("**Title:** **Pump housing**\nDrawing Number: 88-104\n")

	assert.Equal(t, ptr("Pump housing"), md.Title)
	assert.Equal(t, ptr("88-104"), md.Number)
}

func TestMetadataEmpty(t *testing.T) {
	assert.Equal(t, types.DrawingMetadata{}, Metadata(""))
}

func TestMetadataNumberNeedsSeparator(t *testing.T) {
	tests := []struct {
		text string
		want *string
	}{
		{"Drawing Notes: deburr all edges", nil},
		{"DWG NOMINAL SIZE", nil},
		{"Drawing nozzle assembly", nil},
		{"DWG NO.: A-100", ptr("A-100")},
		{"PART NO: 55-201", ptr("55-201")},
		{"Part No. 4711", ptr("4711")},
		{"Drawing #: 7734-2", ptr("7734-2")},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Metadata(tt.text).Number)
		})
	}
}

func FuzzFields(f *testing.F) {
	for _, s := range []string{"", "\xff\xfe", "Ø25 ±0.1mm", "ＭＭ２５Ø", "R", "P/N:", "Part No. 4711 - Hex bolt",
		"Title:\nDWG NO:\nREV:\nSCALE: 1:", "**Title:** ****", "Drawing Notes: deburr"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, text string) {
		if d, ok := ParseDimension(text); ok {
			assert.Equal(t, text, d.Value)
			assert.NotEmpty(t, d.DimensionType)
		}
		if text != "" {
			assert.NotEmpty(t, ParsePartNumber(text).Number)
		}
		md := Metadata(text)
		for _, s := range []*string{md.Title, md.Number, md.Revision, md.Scale} {
			if s != nil {
				assert.NotEmpty(t, *s)
			}
		}
	})
}
