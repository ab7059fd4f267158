// Package pipeline runs the extraction pass over one model answer.
//
// Run is a pure function of its inputs: it performs no I/O, keeps no state
// between calls and is safe to call from several goroutines.
package pipeline

import (
	"time"

	"github.com/menta2k/drawing-analyzer/pkg/annotations"
	"github.com/menta2k/drawing-analyzer/pkg/fields"
	"github.com/menta2k/drawing-analyzer/pkg/grounding"
	"github.com/menta2k/drawing-analyzer/pkg/reasoning"
	"github.com/menta2k/drawing-analyzer/pkg/tables"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Grammar selects how located elements are read from the answer
type Grammar string

const (
	GrammarAuto Grammar = "auto"
	GrammarTag  Grammar = "tag"
	GrammarJSON Grammar = "json"
)

// Options toggles each extractor independently
type Options struct {
	Mode    types.Mode
	Grammar Grammar

	Grounding          bool
	ExtractDimensions  bool
	ExtractPartNumbers bool
	ExtractTables      bool
	ExtractMetadata    bool
	ExtractAnnotations bool

	// StripReasoning trims a thinking preamble from the returned markdown
	StripReasoning bool
}

// DefaultOptions enables every extractor
func DefaultOptions() Options {
	return OptionsForMode(types.ModeTechnicalDrawing)
}

// OptionsForMode returns the extractor set a mode runs by default. Drawing
// metadata is read in every mode.
func OptionsForMode(mode types.Mode) Options {
	opts := Options{Mode: mode, Grammar: GrammarAuto, Grounding: true, ExtractMetadata: true}
	switch mode {
	case types.ModeDimensionsOnly:
		opts.ExtractDimensions = true
	case types.ModePartNumbers:
		opts.ExtractPartNumbers = true
	case types.ModeBOMExtraction:
		opts.ExtractTables = true
	case types.ModePlainOCR:
	default:
		opts.ExtractDimensions = true
		opts.ExtractPartNumbers = true
		opts.ExtractTables = true
		opts.ExtractAnnotations = true
	}
	return opts
}

func parserFor(g Grammar, text string) *grounding.Parser {
	switch g {
	case GrammarTag:
		return grounding.NewTagParser()
	case GrammarJSON:
		return grounding.NewJSONParser()
	default:
		return grounding.ForText(text)
	}
}

// Run extracts every enabled record from text. width and height are the image
// pixel dimensions the answer refers to.
func Run(text string, width, height int, opts Options) types.AnalysisResult {
	start := time.Now()

	result := types.AnalysisResult{
		Text:             text,
		Markdown:         text,
		ImageWidth:       width,
		ImageHeight:      height,
		DetectedElements: []types.DetectedElement{},
		Dimensions:       []types.Dimension{},
		PartNumbers:      []types.PartNumber{},
		Tables:           []types.ExtractedTable{},
		Annotations:      []string{},
	}
	if opts.StripReasoning {
		result.Markdown = reasoning.Strip(text)
	}

	if opts.Grounding {
		if els := parserFor(opts.Grammar, text).Detect(text, width, height); len(els) > 0 {
			result.DetectedElements = els
		}
	}
	if opts.ExtractDimensions {
		result.Dimensions = append(result.Dimensions, fields.Dimensions(result.DetectedElements)...)
	}
	if opts.ExtractPartNumbers {
		result.PartNumbers = append(result.PartNumbers, fields.PartNumbers(result.DetectedElements)...)
	}
	if opts.ExtractTables {
		result.Tables = append(result.Tables, tables.Parse(text)...)
	}
	if opts.ExtractMetadata {
		md := fields.Metadata(text)
		result.DrawingTitle = md.Title
		result.DrawingNumber = md.Number
		result.Revision = md.Revision
		result.Scale = md.Scale
	}
	if opts.ExtractAnnotations {
		result.Annotations = append(result.Annotations, annotations.Extract(result.Markdown)...)
	}

	result.ProcessingTime = time.Since(start).Seconds()
	return result
}
