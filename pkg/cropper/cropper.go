// Package cropper cuts detected elements out of a drawing, e.g. to review a
// dimension callout or re-read a title block at full resolution.
package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

// CropConfig holds configuration for element cropping
type CropConfig struct {
	// PaddingRatio grows each box by this fraction of its larger side
	PaddingRatio float64
	// MinSize is the smallest crop side in pixels; smaller crops are upscaled
	// when AllowUpscaling is set and skipped otherwise
	MinSize        int
	AllowUpscaling bool
}

// ElementCropper crops detected elements from the source image
type ElementCropper struct {
	config CropConfig
}

// CropResult contains one cropped element
type CropResult struct {
	Image   image.Image
	Element types.DetectedElement
	Region  image.Rectangle
}

// New creates an ElementCropper with default configuration
func New() *ElementCropper {
	return &ElementCropper{
		config: CropConfig{
			PaddingRatio:   0.1,
			MinSize:        16,
			AllowUpscaling: false,
		},
	}
}

// NewWithConfig creates an ElementCropper with custom configuration
func NewWithConfig(config CropConfig) *ElementCropper {
	return &ElementCropper{config: config}
}

// Config returns the cropper configuration
func (c *ElementCropper) Config() CropConfig {
	return c.config
}

// Region maps an element box from a width x height pixel space onto img,
// applies padding and clips it to the image bounds
func (c *ElementCropper) Region(img image.Image, box types.BoundingBox, width, height int) (image.Rectangle, error) {
	bounds := img.Bounds()
	sx, sy := 1.0, 1.0
	if width > 0 && height > 0 {
		sx = float64(bounds.Dx()) / float64(width)
		sy = float64(bounds.Dy()) / float64(height)
	}

	x1, y1 := box.X1*sx, box.Y1*sy
	x2, y2 := box.X2*sx, box.Y2*sy
	pad := c.config.PaddingRatio * math.Max(x2-x1, y2-y1)

	r := image.Rect(
		int(math.Floor(x1-pad)), int(math.Floor(y1-pad)),
		int(math.Ceil(x2+pad)), int(math.Ceil(y2+pad)),
	).Add(bounds.Min).Intersect(bounds)

	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("box %.0f,%.0f,%.0f,%.0f lies outside the image", box.X1, box.Y1, box.X2, box.Y2)
	}
	return r, nil
}

// CropElement cuts a single element out of img
func (c *ElementCropper) CropElement(img image.Image, el types.DetectedElement, width, height int) (CropResult, error) {
	r, err := c.Region(img, el.BBox, width, height)
	if err != nil {
		return CropResult{}, err
	}

	cropped := image.Image(imaging.Crop(img, r))
	if side := min(r.Dx(), r.Dy()); side < c.config.MinSize {
		if !c.config.AllowUpscaling {
			return CropResult{}, fmt.Errorf("crop %dx%d is smaller than %d and upscaling is disabled", r.Dx(), r.Dy(), c.config.MinSize)
		}
		scale := float64(c.config.MinSize) / float64(side)
		cropped = imaging.Resize(cropped, int(math.Round(float64(r.Dx())*scale)), 0, imaging.Lanczos)
	}

	return CropResult{Image: cropped, Element: el, Region: r}, nil
}

// CropElements crops every element whose type is in only; an empty only crops
// all of them. Elements that cannot be cropped are skipped.
func (c *ElementCropper) CropElements(img image.Image, elements []types.DetectedElement, width, height int, only ...types.ElementType) []CropResult {
	var results []CropResult
	for _, el := range elements {
		if len(only) > 0 && !contains(only, el.ElementType) {
			continue
		}
		res, err := c.CropElement(img, el, width, height)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return results
}

func contains(list []types.ElementType, t types.ElementType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
