package detection

import (
	"context"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/drawing-analyzer/internal/errs"
	"github.com/menta2k/drawing-analyzer/pkg/client"
	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/processing"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

type fakeClient struct {
	answer string
	err    error
	calls  []client.Request
}

func (f *fakeClient) Transcribe(_ context.Context, req client.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.answer, f.err
}

func drawing(w, h int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func TestAnalyzeTagFamily(t *testing.T) {
	fc := &fakeClient{answer: "<|ref|>Ø25<|/ref|><|det|>[[0,0,999,999]]<|/det|>"}
	cfg := DefaultConfig()
	cfg.SendSize = 1000
	d := NewDetector(fc, cfg)

	r, err := d.Analyze(context.Background(), drawing(3000, 1500), Options{Pipeline: pipeline.DefaultOptions()})
	require.NoError(t, err)

	require.Len(t, fc.calls, 1)
	assert.Equal(t, "deepseek-ocr", fc.calls[0].Model)
	assert.Empty(t, fc.calls[0].System)
	assert.True(t, strings.HasPrefix(fc.calls[0].Prompt, "<image>\n<|grounding|>"))
	assert.NotEmpty(t, fc.calls[0].ImageB64)

	// normalized boxes are mapped onto the original drawing
	assert.Equal(t, 3000, r.ImageWidth)
	require.Len(t, r.DetectedElements, 1)
	assert.Equal(t, types.BoundingBox{X1: 0, Y1: 0, X2: 3000, Y2: 1500}, r.DetectedElements[0].BBox)
	assert.Len(t, r.Dimensions, 1)
	assert.NotEmpty(t, r.RequestID)
	assert.Equal(t, "deepseek-ocr", r.Model)
}

func TestAnalyzeJSONFamilyUsesSentSize(t *testing.T) {
	fc := &fakeClient{answer: "```json\n[{\"bbox_2d\": [10, 20, 110, 60], \"label\": \"DETAIL A\"}]\n```"}
	d := NewDetector(fc, Config{Model: "qwen3-vl", Family: FamilyQwen, SendFormat: "jpg", SendSize: 1000, SendQuality: 80})

	r, err := d.Analyze(context.Background(), drawing(3000, 1500), Options{Pipeline: pipeline.DefaultOptions()})
	require.NoError(t, err)

	assert.Equal(t, QwenSystemPrompt, fc.calls[0].System)
	assert.Equal(t, 1000, r.ImageWidth)
	assert.Equal(t, 500, r.ImageHeight)
	require.Len(t, r.DetectedElements, 1)
	assert.Equal(t, types.ElementView, r.DetectedElements[0].ElementType)
	assert.Equal(t, types.BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 60}, r.DetectedElements[0].BBox)
}

func TestAnalyzeThinkingModelStripsReasoning(t *testing.T) {
	fc := &fakeClient{answer: "Okay, let me read it.\n## Result\nTitle: Shaft"}
	d := NewDetector(fc, Config{Model: "qwen3-vl-thinking", Family: FamilyQwen, SendFormat: "png"})

	r, err := d.Analyze(context.Background(), drawing(100, 100), Options{Pipeline: pipeline.DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, "## Result\nTitle: Shaft", r.Markdown)
	require.NotNil(t, r.DrawingTitle)
	assert.Equal(t, "Shaft", *r.DrawingTitle)
}

func TestAnalyzeErrors(t *testing.T) {
	d := NewDetector(&fakeClient{}, DefaultConfig())
	_, err := d.Analyze(context.Background(), drawing(10, 10), Options{})
	assert.ErrorIs(t, err, errs.ErrInvalidImage)

	d = NewDetector(&fakeClient{err: errs.ErrBackendUnavailable}, DefaultConfig())
	_, err = d.Analyze(context.Background(), drawing(100, 100), Options{})
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
}

func TestProcessBatchCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	require.NoError(t, processing.NewProcessor().SaveImage(drawing(64, 64), good, "png", 0, false))

	fc := &fakeClient{answer: "<|ref|>R5<|/ref|><|det|>[[1,1,2,2]]<|/det|>"}
	d := NewDetector(fc, DefaultConfig())
	d.SetLimiter(NewLimiter(6000))

	batch := d.ProcessBatch(context.Background(), []string{good, filepath.Join(dir, "missing.png")}, Options{Pipeline: pipeline.DefaultOptions()})

	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 1, batch.Successful)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Errors, 1)
	assert.Contains(t, batch.Errors[0].Source, "missing.png")
	assert.Len(t, fc.calls, 1)
}

func TestProcessBatchSendsCustomPrompt(t *testing.T) {
	dir := t.TempDir()
	var sources []string
	for _, name := range []string{"a.png", "b.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, processing.NewProcessor().SaveImage(drawing(64, 64), path, "png", 0, false))
		sources = append(sources, path)
	}

	fc := &fakeClient{answer: "<|ref|>R5<|/ref|><|det|>[[1,1,2,2]]<|/det|>"}
	d := NewDetector(fc, DefaultConfig())
	opts := Options{Pipeline: pipeline.OptionsForMode(types.ModeCustom), CustomPrompt: "<image>\nList every weld symbol."}

	batch := d.ProcessBatch(context.Background(), sources, opts)

	assert.Equal(t, 2, batch.Successful)
	require.Len(t, fc.calls, 2)
	for _, call := range fc.calls {
		assert.Equal(t, "<image>\nList every weld symbol.", call.Prompt)
	}
}

func TestProcessBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDetector(&fakeClient{}, DefaultConfig())
	d.SetLimiter(NewLimiter(1))
	batch := d.ProcessBatch(ctx, []string{"a.png", "b.png"}, Options{})

	assert.Equal(t, 2, batch.Failed)
	assert.Empty(t, batch.Results)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.NotNil(t, NewLimiter(30))
}

func TestNewDetectorDefaultsFamily(t *testing.T) {
	d := NewDetector(&fakeClient{}, Config{Model: "m"})
	assert.Equal(t, FamilyDeepSeek, d.Config().Family)
}
