// Package drawinganalyzer turns the answer of a vision-language model reading a
// technical drawing into structured records.
//
// The extraction core is a pure text transform:
//
//	result := drawinganalyzer.Extract(modelOutput, 2480, 1754, pipeline.DefaultOptions())
//	for _, d := range result.Dimensions {
//		fmt.Println(d.Value, d.DimensionType)
//	}
//
// Two answer formats are understood. DeepSeek-OCR style models tag located
// spans inline with normalized [0, 999] coordinates:
//
//	<|ref|>Ø25 ±0.1mm<|/ref|><|det|>[[120,340,210,380]]<|/det|>
//
// Qwen-VL style models emit a JSON array of {"bbox_2d", "label", "sub_label"}
// objects in pixel coordinates. Both produce the same DetectedElement records,
// classified into dimension, part_number, table, title, view or text.
//
// Tables are read from markdown pipe tables, drawing metadata (title, number,
// revision, scale) from the whole text, and notes from the markdown structure.
//
// The Analyzer type wires the core to an image and a vision backend (Ollama or
// an OpenAI-compatible llama.cpp/vLLM server):
//
//	c, err := drawinganalyzer.NewClient("ollama", "http://localhost:11434")
//	if err != nil {
//		log.Fatal(err)
//	}
//	a := drawinganalyzer.New(c, detection.DefaultConfig())
//	result, err := a.AnalyzeFile(ctx, "drawing.png", pipeline.DefaultOptions())
package drawinganalyzer

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/drawing-analyzer/pkg/client"
	"github.com/menta2k/drawing-analyzer/pkg/detection"
	"github.com/menta2k/drawing-analyzer/pkg/llamacpp"
	"github.com/menta2k/drawing-analyzer/pkg/ollama"
	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/processing"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Version of the drawing analyzer library
const Version = "1.0.0"

// Extract runs the extraction pipeline over a model answer. width and height
// are the pixel dimensions of the drawing the answer refers to.
func Extract(text string, width, height int, opts pipeline.Options) types.AnalysisResult {
	return pipeline.Run(text, width, height, opts)
}

// Analyzer runs drawings through a vision backend and the extraction pipeline
type Analyzer struct {
	detector  *detection.Detector
	processor *processing.Processor
}

// New creates an Analyzer using the given vision client
func New(c client.VisionClient, cfg detection.Config) *Analyzer {
	return &Analyzer{
		detector:  detection.NewDetector(c, cfg),
		processor: processing.NewProcessor(),
	}
}

// NewClient creates a vision client for the named backend
func NewClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s (use 'ollama' or 'llamacpp')", ErrUnknownBackend, backend)
	}
}

// Detector exposes the underlying detection service
func (a *Analyzer) Detector() *detection.Detector {
	return a.detector
}

// Analyze runs an already loaded drawing
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, opts pipeline.Options) (types.AnalysisResult, error) {
	return a.detector.Analyze(ctx, img, detection.Options{Pipeline: opts})
}

// AnalyzeFile loads a drawing from a path or URL and runs it
func (a *Analyzer) AnalyzeFile(ctx context.Context, source string, opts pipeline.Options) (types.AnalysisResult, error) {
	return a.detector.AnalyzeSource(ctx, source, detection.Options{Pipeline: opts})
}

// AnalyzeBatch runs several drawings, collecting failures instead of stopping
func (a *Analyzer) AnalyzeBatch(ctx context.Context, sources []string, opts pipeline.Options) types.BatchResult {
	return a.detector.ProcessBatch(ctx, sources, detection.Options{Pipeline: opts})
}

// LoadImage loads a drawing from a path or URL
func (a *Analyzer) LoadImage(source string) (image.Image, error) {
	return a.processor.LoadImageSmart(source)
}

// DebugOverlay draws the detected elements of result onto img
func (a *Analyzer) DebugOverlay(img image.Image, result types.AnalysisResult) image.Image {
	return a.processor.CreateDebugOverlay(img, result.DetectedElements, result.ImageWidth, result.ImageHeight)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
