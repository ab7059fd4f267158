package detection

import (
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/pipeline"
	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// Family is a model family with its own prompt format and grounding grammar
type Family string

const (
	// FamilyDeepSeek answers with the inline <|ref|><|det|> tag grammar
	FamilyDeepSeek Family = "deepseek"
	// FamilyQwen answers conversationally with JSON grounding arrays
	FamilyQwen Family = "qwen"
)

// Grammar returns the grounding grammar the family emits
func (f Family) Grammar() pipeline.Grammar {
	if f == FamilyQwen {
		return pipeline.GrammarJSON
	}
	return pipeline.GrammarTag
}

// Thinking reports whether the model prefixes answers with reasoning
func Thinking(model string) bool {
	return strings.Contains(strings.ToLower(model), "thinking")
}

// groundingPrefix is required by DeepSeek-OCR to emit boxes
const groundingPrefix = "<image>\n<|grounding|>"

var deepseekPrompts = map[types.Mode]string{
	types.ModeTechnicalDrawing: groundingPrefix + "Analyze this technical drawing or engineering diagram. Extract and identify all dimensions, part numbers, tables (especially BOMs), drawing metadata (title, number, revision, scale), and annotations. Convert the document to structured markdown.",
	types.ModeDimensionsOnly:   groundingPrefix + "Extract all dimensions and measurements from this technical drawing including linear dimensions, diameters (Ø), radii (R), angular dimensions, tolerances (±), and units. Convert to markdown.",
	types.ModePartNumbers:      groundingPrefix + "Identify and extract all part numbers, item numbers, and callouts from this technical drawing with their descriptions. Convert to markdown.",
	types.ModeBOMExtraction:    groundingPrefix + "Extract all tables from this drawing, especially Bills of Materials (BOMs). Preserve the table structure with headers and all rows. Convert to markdown.",
	types.ModePlainOCR:         groundingPrefix + "Convert the document to markdown.",
}

// QwenSystemPrompt frames the conversational model as a drawing analyst
const QwenSystemPrompt = `You are an expert technical drawing analyst. You specialize in reading and interpreting engineering drawings, CAD diagrams, blueprints, and technical schematics.

Your capabilities include:
- Reading dimensions, tolerances, and measurements
- Identifying part numbers and callouts
- Extracting Bills of Materials (BOMs) and tables
- Understanding engineering symbols and annotations
- Identifying drawing metadata (title, revision, scale, standards)
- Analyzing geometric tolerancing (GD&T)
- Reading material specifications

Always provide precise, structured answers. When asked about specific measurements or data, extract the exact values from the drawing.`

// qwenGrounding asks for the JSON grounding array alongside the markdown answer
const qwenGrounding = "\n\nAlso locate every dimension, part number, table, title block field and view. Output them as a JSON array in a ```json code block, one object per element: {\"bbox_2d\": [x1, y1, x2, y2], \"label\": \"text as written\", \"sub_label\": \"optional qualifier\"}."

var qwenPrompts = map[types.Mode]string{
	types.ModeTechnicalDrawing: "Analyze this technical drawing thoroughly. Extract all dimensions, part numbers, tables (especially BOMs), drawing metadata (title, number, revision, scale), and annotations. Provide a structured markdown output.",
	types.ModeDimensionsOnly:   "Extract all dimensions and measurements from this technical drawing including linear dimensions, diameters (Ø), radii (R), angular dimensions, tolerances (±), and units. List them clearly.",
	types.ModePartNumbers:      "Identify and extract all part numbers, item numbers, and callouts from this technical drawing with their descriptions.",
	types.ModeBOMExtraction:    "Extract all tables from this drawing, especially Bills of Materials (BOMs). Preserve the table structure with headers and all rows in markdown format.",
	types.ModePlainOCR:         "Read and transcribe all text visible in this image.",
}

// Prompt returns the system and user prompts for a family and mode. A custom
// prompt replaces the mode prompt; DeepSeek-only markers are removed from it
// for the Qwen family.
func Prompt(f Family, mode types.Mode, custom string, grounding bool) (system, user string) {
	if f == FamilyQwen {
		if custom != "" {
			user = strings.TrimSpace(strings.NewReplacer("<image>", "", "<|grounding|>", "").Replace(custom))
		} else {
			user = lookup(qwenPrompts, mode)
		}
		if grounding && custom == "" && mode != types.ModePlainOCR {
			user += qwenGrounding
		}
		return QwenSystemPrompt, user
	}

	if custom != "" {
		return "", custom
	}
	return "", lookup(deepseekPrompts, mode)
}

func lookup(prompts map[types.Mode]string, mode types.Mode) string {
	if p, ok := prompts[mode]; ok {
		return p
	}
	return prompts[types.ModeTechnicalDrawing]
}
