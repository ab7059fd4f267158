package grounding

import "github.com/menta2k/drawing-analyzer/pkg/types"

// NormalizedMax is the upper bound of the normalized coordinate range [0, 999]
const NormalizedMax = 999

// Provenance records which coordinate space a candidate box is in
type Provenance int

const (
	// Normalized boxes are on the fixed [0, 999] scale and need mapping
	Normalized Provenance = iota
	// Pixel boxes are already in image pixel space
	Pixel
)

func (p Provenance) String() string {
	switch p {
	case Normalized:
		return "normalized"
	case Pixel:
		return "pixel"
	default:
		return "unknown"
	}
}

// ToPixels maps a normalized coordinate onto an axis of the given pixel extent.
// A non-positive extent leaves the value unscaled.
func ToPixels(n float64, extent int) float64 {
	if extent <= 0 {
		return n
	}
	return n * float64(extent) / NormalizedMax
}

// Candidate is a labeled box produced by a scanner, before classification
type Candidate struct {
	Label      string
	Box        [4]float64
	Provenance Provenance
	Metadata   map[string]any
}

// Resolve returns the candidate's box in pixel space. Normalized boxes are
// mapped with the image width (x) and height (y); pixel boxes pass through.
func (c Candidate) Resolve(width, height int) types.BoundingBox {
	x1, y1, x2, y2 := c.Box[0], c.Box[1], c.Box[2], c.Box[3]
	if c.Provenance == Normalized {
		x1, x2 = ToPixels(x1, width), ToPixels(x2, width)
		y1, y2 = ToPixels(y1, height), ToPixels(y2, height)
	}
	return types.NewBoundingBox(x1, y1, x2, y2)
}
