// Package raster renders PDF pages to images with MuPDF through go-fitz.
package raster

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"pdf-suite-server/internal/domain"

	"github.com/gen2brain/go-fitz"
)

const (
	pointsPerInch = 72.0
	renderTimeout = 90 * time.Second
)

// source is the part of *fitz.Document the renderer uses.
type source interface {
	NumPage() int
	Bound(pageNumber int) (image.Rectangle, error)
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Text(pageNumber int) (string, error)
	Close() error
}

// Renderer implements domain.Renderer.
type Renderer struct {
	logger domain.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(logger domain.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// Open loads pdf for rendering. sizes are the page sizes the document engine
// reported; when they do not cover every page, PageSize falls back to MuPDF's
// bounds.
func (r *Renderer) Open(pdf []byte, sizes []domain.PageSize) (domain.RenderDocument, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}
	return newDocument(doc, sizes, r.logger), nil
}

// Document is an open document. MuPDF documents are not safe for concurrent
// use, so every call into src holds mu.
type Document struct {
	mu     sync.Mutex
	src    source
	pages  int
	sizes  []domain.PageSize
	closed bool
	logger domain.Logger
}

func newDocument(src source, sizes []domain.PageSize, logger domain.Logger) *Document {
	d := &Document{src: src, pages: src.NumPage(), logger: logger}
	if len(sizes) == d.pages {
		d.sizes = sizes
	} else if sizes != nil {
		logger.Warn("Page sizes ignored", "sizes", len(sizes), "pages", d.pages)
	}
	return d
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pages
}

// PageSize returns the size given to Open, or else the page bounds at 72 DPI.
// go-fitz only exposes whole-point bounds, so the fallback truncates: A4 is
// 595x841 rather than 595.28x841.89.
func (d *Document) PageSize(page int) (domain.PageSize, error) {
	if err := d.checkPage(page); err != nil {
		return domain.PageSize{}, err
	}
	if d.sizes != nil {
		return d.sizes[page-1], nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.PageSize{}, domain.ErrViewerClosed
	}
	b, err := d.src.Bound(page - 1)
	if err != nil {
		return domain.PageSize{}, fmt.Errorf("failed to read page %d bounds: %w", page, err)
	}
	return domain.PageSize{WidthPt: float64(b.Dx()), HeightPt: float64(b.Dy())}, nil
}

// Render rasterises a 1-based page at pixelsPerPoint. MuPDF cannot be
// interrupted, so when ctx ends first Render returns ctx's cause at once and
// the abandoned raster is discarded when it completes.
func (d *Document) Render(ctx context.Context, page int, pixelsPerPoint float64) (image.Image, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if pixelsPerPoint <= 0 {
		return nil, fmt.Errorf("invalid render scale %g", pixelsPerPoint)
	}
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	img, err := run(ctx, d, func() (*image.RGBA, error) {
		return d.src.ImageDPI(page-1, pixelsPerPoint*pointsPerInch)
	})
	if err != nil {
		if ctx.Err() != nil {
			d.logger.Debug("Render abandoned", "page", page, "cause", err)
			return nil, err
		}
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

// Text extracts the text of a 1-based page.
func (d *Document) Text(ctx context.Context, page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", context.Cause(ctx)
	}
	text, err := run(ctx, d, func() (string, error) {
		return d.src.Text(page - 1)
	})
	if err != nil && ctx.Err() == nil {
		return "", fmt.Errorf("failed to read text of page %d: %w", page, err)
	}
	return text, err
}

// run calls fn under the document lock in its own goroutine and waits for
// it, for ctx or for renderTimeout, whichever comes first. A result that
// arrives after the wait ended is dropped.
func run[T any](ctx context.Context, d *Document, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			resultCh <- result{err: domain.ErrViewerClosed}
			return
		}
		v, err := fn()
		resultCh <- result{value: v, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

// Close releases the document. It waits for a running raster to finish.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.src.Close()
}

func (d *Document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("%w: %d of %d", domain.ErrPageOutOfRange, page, d.pages)
	}
	return nil
}
