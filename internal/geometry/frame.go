// Package geometry converts placements between rendered-page pixels and PDF
// page space.
//
// Screen space is measured in logical (CSS) pixels with the origin at the
// top-left corner of the rendered page. PDF space is measured in points with
// the origin at the bottom-left corner of the page.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidFrame = errors.New("invalid render frame")
	ErrStaleFrame   = errors.New("stale render frame")
)

// RenderFrame describes one rendered instance of a page. A frame is never
// mutated: rendering the page again at another zoom level produces a new frame.
type RenderFrame struct {
	PageNumber       int     `json:"page_number"`
	OriginWidthPt    float64 `json:"origin_width_pt"`
	OriginHeightPt   float64 `json:"origin_height_pt"`
	RenderScale      float64 `json:"render_scale"`
	DevicePixelRatio float64 `json:"device_pixel_ratio,omitempty"`
}

// NewRenderFrame builds a validated frame. A zero dpr means 1.
func NewRenderFrame(pageNumber int, widthPt, heightPt, scale, dpr float64) (RenderFrame, error) {
	if dpr == 0 {
		dpr = 1
	}
	f := RenderFrame{
		PageNumber:       pageNumber,
		OriginWidthPt:    widthPt,
		OriginHeightPt:   heightPt,
		RenderScale:      scale,
		DevicePixelRatio: dpr,
	}
	if err := f.Validate(); err != nil {
		return RenderFrame{}, err
	}
	return f, nil
}

// Validate reports whether the frame can be used for mapping.
func (f RenderFrame) Validate() error {
	switch {
	case f.PageNumber < 1:
		return fmt.Errorf("%w: page number %d", ErrInvalidFrame, f.PageNumber)
	case !positive(f.OriginWidthPt) || !positive(f.OriginHeightPt):
		return fmt.Errorf("%w: page size %gx%g", ErrInvalidFrame, f.OriginWidthPt, f.OriginHeightPt)
	case !positive(f.RenderScale):
		return fmt.Errorf("%w: render scale %g", ErrInvalidFrame, f.RenderScale)
	case f.DevicePixelRatio != 0 && (!finite(f.DevicePixelRatio) || f.DevicePixelRatio < 1):
		return fmt.Errorf("%w: device pixel ratio %g", ErrInvalidFrame, f.DevicePixelRatio)
	}
	return nil
}

// PixelRatio returns the device pixel ratio, treating an unset value as 1.
func (f RenderFrame) PixelRatio() float64 {
	if f.DevicePixelRatio == 0 {
		return 1
	}
	return f.DevicePixelRatio
}

// LogicalSize is the size of the rendered page in CSS pixels.
func (f RenderFrame) LogicalSize() (width, height float64) {
	return f.OriginWidthPt * f.RenderScale, f.OriginHeightPt * f.RenderScale
}

// BackingScale is the number of backing-store pixels per point. It is only
// meant for rasterisation; placements are always mapped with RenderScale.
func (f RenderFrame) BackingScale() float64 {
	return f.RenderScale * f.PixelRatio()
}

// BackingSize is the pixel size of the raster backing the frame.
func (f RenderFrame) BackingSize() (width, height int) {
	s := f.BackingScale()
	width = int(math.Floor(f.OriginWidthPt * s))
	height = int(math.Floor(f.OriginHeightPt * s))
	return max(1, width), max(1, height)
}

// Rescaled returns the frame that supersedes f when the page is rendered
// again at scale.
func (f RenderFrame) Rescaled(scale float64) (RenderFrame, error) {
	return NewRenderFrame(f.PageNumber, f.OriginWidthPt, f.OriginHeightPt, scale, f.PixelRatio())
}

// Matches reports whether placements drawn against f can be mapped with
// current without a remap.
func (f RenderFrame) Matches(current RenderFrame) bool {
	return f.PageNumber == current.PageNumber &&
		f.RenderScale == current.RenderScale &&
		f.OriginWidthPt == current.OriginWidthPt &&
		f.OriginHeightPt == current.OriginHeightPt
}

// CheckCurrent returns ErrStaleFrame when drawn no longer matches current.
func CheckCurrent(drawn, current RenderFrame) error {
	if drawn.Matches(current) {
		return nil
	}
	return fmt.Errorf("%w: drawn at scale %g on page %d, page %d is now at scale %g",
		ErrStaleFrame, drawn.RenderScale, drawn.PageNumber, current.PageNumber, current.RenderScale)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
