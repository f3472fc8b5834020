// Package viewer coordinates page rendering for one open document.
//
// A viewer has a single in-flight render slot. Starting a render cancels the
// render occupying the slot, whose caller receives domain.ErrRenderSuperseded.
// Cancel empties the slot explicitly. Frames of completed renders are kept
// per page so that placements drawn on an older frame can be detected.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"

	"golang.org/x/image/draw"
)

// thumbnailOversample renders thumbnails at this multiple of their final
// size before scaling down.
const thumbnailOversample = 2

type slot struct {
	page   int
	cancel context.CancelCauseFunc
}

// Viewer implements domain.Viewer.
type Viewer struct {
	doc    domain.RenderDocument
	logger domain.Logger

	mu       sync.Mutex
	inflight *slot
	frames   map[int]geometry.RenderFrame
	closed   bool
}

// New creates a viewer that owns doc.
func New(doc domain.RenderDocument, logger domain.Logger) *Viewer {
	return &Viewer{
		doc:    doc,
		logger: logger,
		frames: make(map[int]geometry.RenderFrame),
	}
}

// Render rasterises frame's page at the frame's backing scale, replacing any
// render in flight.
func (v *Viewer) Render(ctx context.Context, frame geometry.RenderFrame) (image.Image, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	s, rctx, err := v.claim(ctx, frame.PageNumber)
	if err != nil {
		return nil, err
	}

	img, err := v.doc.Render(rctx, frame.PageNumber, frame.BackingScale())

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inflight == s {
		v.inflight = nil
	}
	cause := context.Cause(rctx)
	s.cancel(nil)

	if cause != nil {
		// A raster that finished just as it was superseded is dropped too.
		return nil, cause
	}
	if err != nil {
		return nil, err
	}
	v.frames[frame.PageNumber] = frame
	return img, nil
}

func (v *Viewer) claim(ctx context.Context, page int) (*slot, context.Context, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, nil, domain.ErrViewerClosed
	}
	if prev := v.inflight; prev != nil {
		v.logger.Debug("Render superseded", "page", prev.page, "by_page", page)
		prev.cancel(domain.ErrRenderSuperseded)
	}

	rctx, cancel := context.WithCancelCause(ctx)
	s := &slot{page: page, cancel: cancel}
	v.inflight = s
	return s, rctx, nil
}

// Cancel aborts the in-flight render. It reports whether one was running.
func (v *Viewer) Cancel() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inflight == nil {
		return false
	}
	v.inflight.cancel(domain.ErrRenderCancelled)
	v.inflight = nil
	return true
}

// CurrentFrame returns the frame of the last completed render of page.
func (v *Viewer) CurrentFrame(page int) (geometry.RenderFrame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.frames[page]
	return f, ok
}

// Thumbnail renders page scaled to width pixels. Thumbnails do not use the
// render slot.
func (v *Viewer) Thumbnail(ctx context.Context, page, width int) (image.Image, error) {
	if width < 1 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return nil, domain.ErrViewerClosed
	}

	size, err := v.doc.PageSize(page)
	if err != nil {
		return nil, err
	}
	if size.WidthPt <= 0 || size.HeightPt <= 0 {
		return nil, fmt.Errorf("page %d has no area", page)
	}

	ppp := float64(width) / size.WidthPt * thumbnailOversample
	src, err := v.doc.Render(ctx, page, ppp)
	if err != nil {
		return nil, err
	}
	return scaleToWidth(src, width), nil
}

// scaleToWidth resamples img to width pixels, keeping its aspect ratio.
func scaleToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() == width {
		return img
	}
	height := max(1, int(float64(b.Dy())*float64(width)/float64(b.Dx())+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Close cancels any render and releases the document.
func (v *Viewer) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	if v.inflight != nil {
		v.inflight.cancel(domain.ErrRenderCancelled)
		v.inflight = nil
	}
	v.mu.Unlock()

	if err := v.doc.Close(); err != nil && !errors.Is(err, domain.ErrViewerClosed) {
		return fmt.Errorf("failed to close document: %w", err)
	}
	return nil
}
