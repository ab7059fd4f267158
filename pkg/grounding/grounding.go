// Package grounding extracts located, labeled elements from vision model output.
//
// Two grammars are supported: the inline tag grammar emitted by DeepSeek-OCR
// style models (normalized coordinates) and the JSON grounding array emitted by
// Qwen-VL style models (pixel coordinates). Scanners tag every candidate with
// its coordinate provenance so each box is mapped to pixels exactly once.
package grounding

import (
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/classify"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Scanner finds labeled boxes in model output
type Scanner interface {
	Name() string
	Scan(text string) []Candidate
}

// Parser pairs a grammar with the classifier used for its labels
type Parser struct {
	Scanner    Scanner
	Classifier *classify.Classifier
}

// NewTagParser creates a parser for the inline tag grammar
func NewTagParser() *Parser {
	return &Parser{Scanner: TagScanner{}, Classifier: classify.Tag()}
}

// NewJSONParser creates a parser for JSON grounding arrays
func NewJSONParser() *Parser {
	return &Parser{Scanner: JSONScanner{}, Classifier: classify.Grounding()}
}

// ForText picks the tag grammar when the text contains tag markers and the
// JSON grammar otherwise
func ForText(text string) *Parser {
	if strings.Contains(text, refOpen) {
		return NewTagParser()
	}
	return NewJSONParser()
}

// Detect scans text and returns classified elements with pixel-space boxes.
// width and height are the image pixel dimensions.
func (p *Parser) Detect(text string, width, height int) []types.DetectedElement {
	candidates := p.Scanner.Scan(text)
	elements := make([]types.DetectedElement, 0, len(candidates))
	for _, c := range candidates {
		elements = append(elements, types.DetectedElement{
			Label:       c.Label,
			ElementType: p.Classifier.Classify(c.Label),
			BBox:        c.Resolve(width, height),
			Metadata:    c.Metadata,
		})
	}
	return elements
}
