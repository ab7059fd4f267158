package types

// BoundingBox is an axis-aligned box in image pixel space
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NewBoundingBox builds a box from two corners in any order
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the horizontal extent of the box
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Center returns the center point of the box
func (b BoundingBox) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// ElementType is the semantic category of a detected element
type ElementType string

const (
	ElementDimension  ElementType = "dimension"
	ElementPartNumber ElementType = "part_number"
	ElementTable      ElementType = "table"
	ElementTitle      ElementType = "title"
	ElementView       ElementType = "view"
	ElementText       ElementType = "text"
)

// DetectedElement is a labeled, located span of the drawing
type DetectedElement struct {
	Label       string         `json:"label"`
	ElementType ElementType    `json:"element_type"`
	BBox        BoundingBox    `json:"bbox"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DimensionType distinguishes how a dimension is measured
type DimensionType string

const (
	DimensionLinear   DimensionType = "linear"
	DimensionDiameter DimensionType = "diameter"
	DimensionRadius   DimensionType = "radius"
	DimensionAngular  DimensionType = "angular"
)

// Dimension is a measurement parsed from a dimension element.
// Value always holds the element label verbatim.
type Dimension struct {
	Value         string        `json:"value"`
	Unit          *string       `json:"unit,omitempty"`
	Tolerance     *string       `json:"tolerance,omitempty"`
	DimensionType DimensionType `json:"dimension_type"`
	BBox          *BoundingBox  `json:"bbox,omitempty"`
}

// PartNumber is a part or item reference
type PartNumber struct {
	Number      string       `json:"number"`
	Description *string      `json:"description,omitempty"`
	BBox        *BoundingBox `json:"bbox,omitempty"`
}

// TableRow is one body row of a table; RowNumber is 0-based within the body
type TableRow struct {
	Cells     []string `json:"cells"`
	RowNumber int      `json:"row_number"`
}

// TableType classifies a table by its header vocabulary
type TableType string

const (
	TableBOM     TableType = "bom"
	TableGeneral TableType = "general"
)

// ExtractedTable is a table decoded from the markdown table grammar
type ExtractedTable struct {
	Headers   []string   `json:"headers,omitempty"`
	Rows      []TableRow `json:"rows"`
	TableType TableType  `json:"table_type"`
}

// DrawingMetadata holds the title block fields. A nil field was not found.
type DrawingMetadata struct {
	Title    *string `json:"title,omitempty"`
	Number   *string `json:"number,omitempty"`
	Revision *string `json:"revision,omitempty"`
	Scale    *string `json:"scale,omitempty"`
}

// AnalysisResult is the aggregate produced for a single model answer
type AnalysisResult struct {
	RequestID        string            `json:"request_id,omitempty"`
	Model            string            `json:"model,omitempty"`
	Text             string            `json:"text"`
	Markdown         string            `json:"markdown,omitempty"`
	DetectedElements []DetectedElement `json:"detected_elements"`
	ImageWidth       int               `json:"image_width"`
	ImageHeight      int               `json:"image_height"`
	ProcessingTime   float64           `json:"processing_time"`
	Dimensions       []Dimension       `json:"dimensions"`
	PartNumbers      []PartNumber      `json:"part_numbers"`
	Tables           []ExtractedTable  `json:"tables"`
	Annotations      []string          `json:"annotations"`
	DrawingTitle     *string           `json:"drawing_title,omitempty"`
	DrawingNumber    *string           `json:"drawing_number,omitempty"`
	Revision         *string           `json:"revision,omitempty"`
	Scale            *string           `json:"scale,omitempty"`
}

// Mode selects the prompt and the default set of extractors
type Mode string

const (
	ModeTechnicalDrawing Mode = "technical_drawing"
	ModeDimensionsOnly   Mode = "dimensions_only"
	ModePartNumbers      Mode = "part_numbers"
	ModeBOMExtraction    Mode = "bom_extraction"
	ModePlainOCR         Mode = "plain_ocr"
	ModeCustom           Mode = "custom"
)

// Modes lists every supported mode
func Modes() []Mode {
	return []Mode{ModeTechnicalDrawing, ModeDimensionsOnly, ModePartNumbers, ModeBOMExtraction, ModePlainOCR, ModeCustom}
}

// BatchError records a failed item of a batch
type BatchError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// BatchResult is the outcome of processing several drawings
type BatchResult struct {
	Results    []AnalysisResult `json:"results"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []BatchError     `json:"errors"`
}
