package geometry

import "fmt"

// Point is a position in either coordinate space; the function that produced
// it determines which.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScreenRect is a rectangle in logical pixels relative to the top-left corner
// of a rendered page.
type ScreenRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PdfRect is a rectangle in PDF points; X and Y locate its bottom-left corner.
type PdfRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Canon returns r with non-negative width and height. Pointer drags towards
// the top-left produce negative extents.
func (r ScreenRect) Canon() ScreenRect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

func (r ScreenRect) IsFinite() bool {
	return finite(r.X) && finite(r.Y) && finite(r.Width) && finite(r.Height)
}

func (r PdfRect) IsFinite() bool {
	return finite(r.X) && finite(r.Y) && finite(r.Width) && finite(r.Height)
}

// ScreenToPdf maps a screen rectangle drawn on frame f into PDF space.
//
// Lengths are divided by the logical render scale and the vertical axis is
// flipped. Nothing is clamped. A frame with a zero scale or height yields a
// non-finite result.
func ScreenToPdf(r ScreenRect, f RenderFrame) PdfRect {
	r = r.Canon()
	s := f.RenderScale
	x, y := r.X/s, r.Y/s
	w, h := r.Width/s, r.Height/s
	return PdfRect{
		X:      x,
		Y:      f.OriginHeightPt - (y + h),
		Width:  w,
		Height: h,
	}
}

// PdfToScreen is the inverse of ScreenToPdf.
func PdfToScreen(r PdfRect, f RenderFrame) ScreenRect {
	s := f.RenderScale
	top := f.OriginHeightPt - (r.Y + r.Height)
	return ScreenRect{
		X:      r.X * s,
		Y:      top * s,
		Width:  r.Width * s,
		Height: r.Height * s,
	}
}

// ScreenPointToPdf maps a single point, e.g. a text baseline origin.
func ScreenPointToPdf(p Point, f RenderFrame) Point {
	return Point{
		X: p.X / f.RenderScale,
		Y: f.OriginHeightPt - p.Y/f.RenderScale,
	}
}

// PdfPointToScreen is the inverse of ScreenPointToPdf.
func PdfPointToScreen(p Point, f RenderFrame) Point {
	return Point{
		X: p.X * f.RenderScale,
		Y: (f.OriginHeightPt - p.Y) * f.RenderScale,
	}
}

// MapToPdf is ScreenToPdf for client input. A frame can be valid and still
// overflow for extreme rectangles, e.g. a tiny scale with a huge rectangle;
// such a mapping is ErrInvalidFrame.
func MapToPdf(r ScreenRect, f RenderFrame) (PdfRect, error) {
	out := ScreenToPdf(r, f)
	if !out.IsFinite() {
		return PdfRect{}, fmt.Errorf("%w: rectangle %gx%g does not map at render scale %g", ErrInvalidFrame, r.Width, r.Height, f.RenderScale)
	}
	return out, nil
}

// MapPointToPdf is the point form of MapToPdf.
func MapPointToPdf(p Point, f RenderFrame) (Point, error) {
	out := ScreenPointToPdf(p, f)
	if !finite(out.X) || !finite(out.Y) {
		return Point{}, fmt.Errorf("%w: point (%g, %g) does not map at render scale %g", ErrInvalidFrame, p.X, p.Y, f.RenderScale)
	}
	return out, nil
}

// MustScreenToPdf is MapToPdf for callers whose input cannot overflow. It
// panics on a non-finite result.
func MustScreenToPdf(r ScreenRect, f RenderFrame) PdfRect {
	out, err := MapToPdf(r, f)
	if err != nil {
		panic(fmt.Sprintf("geometry: non-finite mapping of %+v on frame %+v", r, f))
	}
	return out
}

// MustScreenPointToPdf is the point form of MustScreenToPdf.
func MustScreenPointToPdf(p Point, f RenderFrame) Point {
	out, err := MapPointToPdf(p, f)
	if err != nil {
		panic(fmt.Sprintf("geometry: non-finite mapping of %+v on frame %+v", p, f))
	}
	return out
}

// Placement is a screen rectangle together with the frame it was drawn on.
type Placement struct {
	Frame RenderFrame `json:"frame"`
	Rect  ScreenRect  `json:"rect"`
}

// Pdf maps the placement with the frame it was drawn on.
func (p Placement) Pdf() PdfRect {
	return MustScreenToPdf(p.Rect, p.Frame)
}

// Remap re-expresses the placement for a newer frame of the same page, so
// that it keeps covering the same area of the page.
func (p Placement) Remap(to RenderFrame) Placement {
	return Placement{
		Frame: to,
		Rect:  PdfToScreen(p.Pdf(), to),
	}
}

// ToTopLeft converts a PDF rectangle to a top-left origin in points, which is
// what page-description writers such as gofpdf expect.
func ToTopLeft(r PdfRect, pageHeightPt float64) (x, y, w, h float64) {
	return r.X, pageHeightPt - (r.Y + r.Height), r.Width, r.Height
}
