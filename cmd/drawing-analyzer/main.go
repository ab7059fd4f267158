package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	drawinganalyzer "github.com/menta2k/drawing-analyzer"
	"github.com/menta2k/drawing-analyzer/internal/config"
	"github.com/menta2k/drawing-analyzer/internal/utils"
	"github.com/menta2k/drawing-analyzer/pkg/cropper"
	"github.com/menta2k/drawing-analyzer/pkg/detection"
	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/processing"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

func main() {
	var in, textFile, cfgPath, outDir string
	var backend, url, model, family, mode, grammar, prompt, logLevel string
	var width, height, rpm int
	var debug, strip, crops bool

	flag.StringVar(&in, "in", "", "input drawing path, URL or directory (jpg/png/webp)")
	flag.StringVar(&textFile, "text", "", "parse this model answer instead of calling the model")
	flag.IntVar(&width, "width", 0, "image width in pixels when -text is used without -in")
	flag.IntVar(&height, "height", 0, "image height in pixels when -text is used without -in")
	flag.StringVar(&cfgPath, "config", "", "config file (yaml or json)")
	flag.StringVar(&outDir, "out", "", "output directory")

	flag.StringVar(&backend, "backend", "", "backend to use: ollama or llamacpp")
	flag.StringVar(&url, "url", "", "server URL")
	flag.StringVar(&model, "model", "", "model name")
	flag.StringVar(&family, "family", "", "model family: deepseek or qwen")
	flag.IntVar(&rpm, "rpm", 0, "max model requests per minute in batch mode (0 = unlimited)")

	flag.StringVar(&mode, "mode", "", "mode: technical_drawing|dimensions_only|part_numbers|bom_extraction|plain_ocr|custom")
	flag.StringVar(&grammar, "grammar", "", "grounding grammar: auto|tag|json")
	flag.StringVar(&prompt, "prompt", "", "custom prompt (mode custom)")
	flag.BoolVar(&strip, "strip", false, "strip reasoning preamble from the markdown")
	flag.BoolVar(&debug, "debug", false, "write a debug overlay with detected boxes")
	flag.BoolVar(&crops, "crops", false, "save a crop of every detected element")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")

	flag.Parse()
	if in == "" && textFile == "" {
		log.Fatalf("usage: %s -in drawing.png|URL|dir [-text answer.txt] [-backend ollama|llamacpp] [-family deepseek|qwen] [-mode technical_drawing] [-out outdir] [-debug]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgPath); err != nil {
			log.Fatal(err)
		}
	}

	// flags override the config file
	setString(&cfg.Backend.Type, backend)
	setString(&cfg.Backend.URL, url)
	setString(&cfg.Backend.Model, model)
	setString(&cfg.Backend.Family, family)
	setString(&cfg.Extraction.Mode, mode)
	setString(&cfg.Extraction.Grammar, grammar)
	setString(&cfg.Output.OutputDir, outDir)
	setString(&cfg.Log.Level, logLevel)
	if rpm > 0 {
		cfg.Backend.RequestsPerMinute = rpm
	}
	if strip {
		cfg.Extraction.StripReasoning = true
	}
	if prompt != "" && mode == "" {
		cfg.Extraction.Mode = string(types.ModeCustom)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg.Log.Level)

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}

	opts := cfg.Extraction.PipelineOptions()
	processor := processing.NewProcessor()

	if textFile != "" {
		runText(cfg, processor, in, textFile, width, height, opts, debug, crops)
		return
	}

	visionClient, err := drawinganalyzer.NewClient(cfg.Backend.Type, cfg.Backend.URL)
	if err != nil {
		log.Fatalf("Failed to create %s client: %v", cfg.Backend.Type, err)
	}

	analyzer := drawinganalyzer.New(visionClient, detection.Config{
		Model:       cfg.Backend.Model,
		Family:      detection.Family(cfg.Backend.Family),
		SendFormat:  cfg.Send.Format,
		SendSize:    cfg.Send.MaxSize,
		SendQuality: cfg.Send.Quality,
	})
	analyzer.Detector().SetLimiter(detection.NewLimiter(cfg.Backend.RequestsPerMinute))

	ctx := context.Background()
	if cfg.Backend.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	if utils.DirExists(in) {
		files, err := utils.ListImageFiles(in)
		if err != nil {
			log.Fatal(err)
		}
		if len(files) == 0 {
			log.Fatalf("no images found in %s", in)
		}
		batch := analyzer.Detector().ProcessBatch(ctx, files, detection.Options{Pipeline: opts, CustomPrompt: prompt})
		writeJSON(filepath.Join(cfg.Output.OutputDir, "batch_analysis.json"), batch)
		log.Printf("processed %d drawings: %d ok, %d failed", batch.Total, batch.Successful, batch.Failed)
		return
	}

	img, err := analyzer.LoadImage(in)
	if err != nil {
		log.Fatal(err)
	}

	result, err := analyzer.Detector().Analyze(ctx, img, detection.Options{Pipeline: opts, CustomPrompt: prompt})
	if err != nil {
		log.Fatal(err)
	}

	writeResult(cfg, processor, in, img, result, debug, crops)
}

// runText parses a saved model answer without calling the model
func runText(cfg *config.Config, processor *processing.Processor, in, textFile string, width, height int, opts pipeline.Options, debug, crops bool) {
	data, err := os.ReadFile(textFile)
	if err != nil {
		log.Fatal(err)
	}

	var img image.Image
	if in != "" {
		if img, err = processor.LoadImageSmart(in); err != nil {
			log.Fatal(err)
		}
		b := img.Bounds()
		width, height = b.Dx(), b.Dy()
	}
	if width <= 0 || height <= 0 {
		slog.Warn("image size unknown, normalized boxes are left unscaled")
	}

	result := drawinganalyzer.Extract(string(data), width, height, opts)

	name := in
	if name == "" {
		name = textFile
	}
	writeResult(cfg, processor, name, img, result, debug, crops)
}

func writeResult(cfg *config.Config, processor *processing.Processor, name string, img image.Image, result types.AnalysisResult, debug, crops bool) {
	log.Printf("elements=%d dimensions=%d part_numbers=%d tables=%d annotations=%d",
		len(result.DetectedElements), len(result.Dimensions), len(result.PartNumbers), len(result.Tables), len(result.Annotations))
	if result.DrawingTitle != nil {
		log.Printf("title: %s", *result.DrawingTitle)
	}

	writeJSON(utils.OutputPath(name, cfg.Output.OutputDir, "_analysis", "json"), result)

	if debug && img != nil {
		overlay := processor.CreateDebugOverlay(img, result.DetectedElements, result.ImageWidth, result.ImageHeight)
		path := utils.OutputPath(name, cfg.Output.OutputDir, "_boxes", strings.ToLower(cfg.Output.DebugFormat))
		if err := processor.SaveImage(overlay, path, cfg.Output.DebugFormat, cfg.Output.DebugQuality, false); err != nil {
			log.Printf("debug overlay save failed: %v", err)
		} else {
			log.Printf("wrote %s", path)
		}
	}

	if crops && img != nil {
		saveCrops(cfg, processor, name, img, result)
	}
}

func saveCrops(cfg *config.Config, processor *processing.Processor, name string, img image.Image, result types.AnalysisResult) {
	dir := strings.TrimSuffix(utils.OutputPath(name, cfg.Output.OutputDir, "_crops", "d"), ".d")
	if err := utils.EnsureDir(dir); err != nil {
		log.Printf("crop dir: %v", err)
		return
	}

	ec := cropper.NewWithConfig(cropper.CropConfig{PaddingRatio: 0.1, MinSize: 32, AllowUpscaling: true})
	for i, c := range ec.CropElements(img, result.DetectedElements, result.ImageWidth, result.ImageHeight) {
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s.png", i+1, c.Element.ElementType))
		if err := processor.SaveImage(c.Image, path, "png", 0, false); err != nil {
			log.Printf("crop save failed: %v", err)
		}
	}
}

func writeJSON(path string, v any) {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(path, js, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", path)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", level)
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
