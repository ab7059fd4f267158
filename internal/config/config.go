package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/drawing-analyzer/internal/errs"
	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Backend    BackendConfig    `json:"backend" yaml:"backend"`
	Send       SendConfig       `json:"send" yaml:"send"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// BackendConfig selects the vision model server
type BackendConfig struct {
	Type              string `json:"type" yaml:"type"` // ollama or llamacpp
	URL               string `json:"url" yaml:"url"`
	Model             string `json:"model" yaml:"model"`
	Family            string `json:"family" yaml:"family"` // deepseek or qwen
	TimeoutSeconds    int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// SendConfig controls the image sent to the model
type SendConfig struct {
	Format  string `json:"format" yaml:"format"`
	MaxSize int    `json:"max_size" yaml:"max_size"`
	Quality int    `json:"quality" yaml:"quality"`
}

// ExtractionConfig holds the default mode and extractor toggles
type ExtractionConfig struct {
	Mode               string `json:"mode" yaml:"mode"`
	Grammar            string `json:"grammar" yaml:"grammar"`
	Grounding          *bool  `json:"grounding,omitempty" yaml:"grounding,omitempty"`
	ExtractDimensions  *bool  `json:"extract_dimensions,omitempty" yaml:"extract_dimensions,omitempty"`
	ExtractPartNumbers *bool  `json:"extract_part_numbers,omitempty" yaml:"extract_part_numbers,omitempty"`
	ExtractTables      *bool  `json:"extract_tables,omitempty" yaml:"extract_tables,omitempty"`
	ExtractMetadata    *bool  `json:"extract_metadata,omitempty" yaml:"extract_metadata,omitempty"`
	ExtractAnnotations *bool  `json:"extract_annotations,omitempty" yaml:"extract_annotations,omitempty"`
	StripReasoning     bool   `json:"strip_reasoning" yaml:"strip_reasoning"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir    string `json:"output_dir" yaml:"output_dir"`
	DebugFormat  string `json:"debug_format" yaml:"debug_format"`
	DebugQuality int    `json:"debug_quality" yaml:"debug_quality"`
}

// LogConfig sets the log level (debug, info, warn, error)
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Type:           "ollama",
			URL:            "http://localhost:11434",
			Model:          "deepseek-ocr",
			Family:         "deepseek",
			TimeoutSeconds: 300,
		},
		Send: SendConfig{
			Format:  "png",
			MaxSize: 1536,
			Quality: 90,
		},
		Extraction: ExtractionConfig{
			Mode:    "technical_drawing",
			Grammar: "auto",
		},
		Output: OutputConfig{
			OutputDir:    "./out",
			DebugFormat:  "png",
			DebugQuality: 92,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults. Environment variables in the file are expanded.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration as YAML or JSON depending on the extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("%w: backend.type must be ollama or llamacpp, got %q", errs.ErrInvalidConfig, c.Backend.Type)
	}

	switch c.Backend.Family {
	case "deepseek", "qwen":
	default:
		return fmt.Errorf("%w: backend.family must be deepseek or qwen, got %q", errs.ErrInvalidConfig, c.Backend.Family)
	}

	if c.Backend.Model == "" {
		return fmt.Errorf("%w: backend.model cannot be empty", errs.ErrInvalidConfig)
	}

	if c.Backend.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: backend.requests_per_minute cannot be negative", errs.ErrInvalidConfig)
	}

	switch c.Send.Format {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("%w: send.format must be jpg or png", errs.ErrInvalidConfig)
	}

	if c.Send.Quality < 1 || c.Send.Quality > 100 {
		return fmt.Errorf("%w: send.quality must be between 1 and 100", errs.ErrInvalidConfig)
	}

	if c.Send.MaxSize < 0 {
		return fmt.Errorf("%w: send.max_size cannot be negative", errs.ErrInvalidConfig)
	}

	switch c.Extraction.Mode {
	case "technical_drawing", "dimensions_only", "part_numbers", "bom_extraction", "plain_ocr", "custom":
	default:
		return fmt.Errorf("%w: unknown extraction.mode %q", errs.ErrInvalidConfig, c.Extraction.Mode)
	}

	switch c.Extraction.Grammar {
	case "auto", "tag", "json":
	default:
		return fmt.Errorf("%w: extraction.grammar must be auto, tag or json", errs.ErrInvalidConfig)
	}

	return nil
}

// PipelineOptions starts from the mode defaults and applies explicit toggles
func (e ExtractionConfig) PipelineOptions() pipeline.Options {
	opts := pipeline.OptionsForMode(types.Mode(e.Mode))
	if e.Grammar != "" {
		opts.Grammar = pipeline.Grammar(e.Grammar)
	}
	override(&opts.Grounding, e.Grounding)
	override(&opts.ExtractDimensions, e.ExtractDimensions)
	override(&opts.ExtractPartNumbers, e.ExtractPartNumbers)
	override(&opts.ExtractTables, e.ExtractTables)
	override(&opts.ExtractMetadata, e.ExtractMetadata)
	override(&opts.ExtractAnnotations, e.ExtractAnnotations)
	opts.StripReasoning = e.StripReasoning
	return opts
}

func override(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "drawing-analyzer", "config.yaml")
}
