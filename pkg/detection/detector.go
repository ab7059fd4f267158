package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/menta2k/drawing-analyzer/pkg/client"
	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/processing"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Config controls how drawings are sent to the model
type Config struct {
	Model  string
	Family Family

	SendFormat  string // jpg or png
	SendSize    int    // max long side in pixels, 0 keeps the original
	SendQuality int
}

// DefaultConfig targets DeepSeek-OCR served by Ollama
func DefaultConfig() Config {
	return Config{
		Model:       "deepseek-ocr",
		Family:      FamilyDeepSeek,
		SendFormat:  "png",
		SendSize:    1536,
		SendQuality: 90,
	}
}

// Options configures a single analysis
type Options struct {
	Pipeline     pipeline.Options
	CustomPrompt string
}

// Detector sends drawings to a vision model and extracts structured records
// from its answer
type Detector struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
	limiter   *rate.Limiter
}

// NewDetector creates a new detector with a vision client
func NewDetector(c client.VisionClient, cfg Config) *Detector {
	if cfg.Family == "" {
		cfg.Family = FamilyDeepSeek
	}
	return &Detector{
		client:    c,
		processor: processing.NewProcessor(),
		config:    cfg,
	}
}

// SetLimiter throttles model calls; nil disables throttling
func (d *Detector) SetLimiter(l *rate.Limiter) {
	d.limiter = l
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.config
}

// Analyze runs the model on img and extracts records from the answer
func (d *Detector) Analyze(ctx context.Context, img image.Image, opts Options) (types.AnalysisResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	if err := d.processor.ValidateImage(img); err != nil {
		return types.AnalysisResult{}, err
	}

	sent := d.processor.ResizeForModel(img, d.config.SendSize)
	imgB64, err := d.processor.EncodeForModel(sent, d.config.SendFormat, d.config.SendQuality)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("failed to encode image: %w", err)
	}

	grounding := opts.Pipeline.Grounding
	system, prompt := Prompt(d.config.Family, opts.Pipeline.Mode, opts.CustomPrompt, grounding)

	slog.Debug("detection: request",
		"request_id", requestID, "model", d.config.Model, "family", d.config.Family, "mode", opts.Pipeline.Mode)

	text, err := d.client.Transcribe(ctx, client.Request{
		Model:    d.config.Model,
		System:   system,
		Prompt:   prompt,
		ImageB64: imgB64,
	})
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("transcription failed: %w", err)
	}

	popts := opts.Pipeline
	if popts.Grammar == "" || popts.Grammar == pipeline.GrammarAuto {
		popts.Grammar = d.config.Family.Grammar()
	}
	popts.StripReasoning = popts.StripReasoning || Thinking(d.config.Model)

	// normalized boxes are resolution independent; pixel boxes refer to the
	// image the model saw
	bounds := img.Bounds()
	if popts.Grammar == pipeline.GrammarJSON {
		bounds = sent.Bounds()
	}

	result := pipeline.Run(text, bounds.Dx(), bounds.Dy(), popts)
	result.RequestID = requestID
	result.Model = d.config.Model
	result.ProcessingTime = time.Since(start).Seconds()

	slog.Info("detection: analysis complete",
		"request_id", requestID,
		"output_len", len(text),
		"elements", len(result.DetectedElements),
		"dimensions", len(result.Dimensions),
		"part_numbers", len(result.PartNumbers),
		"tables", len(result.Tables),
		"elapsed_s", result.ProcessingTime)

	return result, nil
}

// AnalyzeSource loads an image from a path or URL and analyzes it
func (d *Detector) AnalyzeSource(ctx context.Context, source string, opts Options) (types.AnalysisResult, error) {
	img, err := d.processor.LoadImageSmart(source)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("failed to load image: %w", err)
	}
	return d.Analyze(ctx, img, opts)
}

// ProcessBatch analyzes each source in order. A failing source is recorded in
// the result and does not stop the batch.
func (d *Detector) ProcessBatch(ctx context.Context, sources []string, opts Options) types.BatchResult {
	batch := types.BatchResult{
		Results: []types.AnalysisResult{},
		Errors:  []types.BatchError{},
		Total:   len(sources),
	}

	for _, src := range sources {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				batch.Errors = append(batch.Errors, types.BatchError{Source: src, Error: err.Error()})
				continue
			}
		}

		result, err := d.AnalyzeSource(ctx, src, opts)
		if err != nil {
			slog.Warn("detection: batch item failed", "source", src, "error", err)
			batch.Errors = append(batch.Errors, types.BatchError{Source: src, Error: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, result)
	}

	batch.Successful = len(batch.Results)
	batch.Failed = len(batch.Errors)
	return batch
}

// NewLimiter returns a limiter allowing perMinute requests, or nil when
// perMinute is not positive
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}
