package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Clip intersects r with the rendered page of f. The second result is false
// when nothing of r lies on the page.
func Clip(r ScreenRect, f RenderFrame) (ScreenRect, bool) {
	r = r.Canon()
	w, h := f.LogicalSize()
	page := r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: w, Y: h})
	box := r2.RectFromPoints(r2.Point{X: r.X, Y: r.Y}, r2.Point{X: r.X + r.Width, Y: r.Y + r.Height})

	in := page.Intersection(box)
	if in.IsEmpty() {
		return ScreenRect{}, false
	}
	size := in.Size()
	if size.X <= 0 || size.Y <= 0 {
		return ScreenRect{}, false
	}
	lo := in.Lo()
	return ScreenRect{X: lo.X, Y: lo.Y, Width: size.X, Height: size.Y}, true
}

// ClampInto moves r, keeping its size, so that it lies on the rendered page
// of f. A rectangle larger than the page is pinned to the top-left corner.
func ClampInto(r ScreenRect, f RenderFrame) ScreenRect {
	r = r.Canon()
	w, h := f.LogicalSize()
	r.X = math.Max(0, math.Min(w-r.Width, r.X))
	r.Y = math.Max(0, math.Min(h-r.Height, r.Y))
	return r
}
