package domain

import (
	"context"
	"image"
	"time"

	"pdf-suite-server/internal/geometry"
)

// DocumentEngine loads, copies and writes PDF documents. Every method takes
// the whole document as bytes and returns a new document; inputs are never
// modified.
type DocumentEngine interface {
	Info(pdf []byte) (*DocumentInfo, error)
	// CopyPages builds a document from pages of pdf in the given order.
	CopyPages(pdf []byte, pages []int) ([]byte, error)
	Merge(docs [][]byte) ([]byte, error)
	// Stamp lays single-page overlay documents over the given pages.
	Stamp(pdf []byte, overlays map[int][]byte) ([]byte, error)
	Watermark(pdf []byte, spec WatermarkSpec) ([]byte, error)
	Optimize(pdf []byte) ([]byte, error)
	// SetMetadata writes the non-empty fields of meta into the document.
	SetMetadata(pdf []byte, meta DocumentMetadata) ([]byte, error)
}

// Composer writes new page content: overlays for annotation tools and whole
// documents built from images or text.
type Composer interface {
	Overlay(size PageSize, marks []Mark) ([]byte, error)
	ImagesToPDF(images []NamedFile) ([]byte, error)
	TextToPDF(text string) ([]byte, error)
	// PagesFromImages builds a document with one full-bleed image per page.
	PagesFromImages(pages []PageImage) ([]byte, error)
}

// Renderer opens documents for rasterisation.
type Renderer interface {
	// Open loads pdf. sizes, when given for every page, are reported by
	// PageSize in place of the renderer's own page bounds.
	Open(pdf []byte, sizes []PageSize) (RenderDocument, error)
}

// RenderDocument is a document opened for rendering. Render must return
// promptly once ctx is done.
type RenderDocument interface {
	PageCount() int
	// PageSize is the page viewport at scale 1, in points.
	PageSize(page int) (PageSize, error)
	Render(ctx context.Context, page int, pixelsPerPoint float64) (image.Image, error)
	Text(ctx context.Context, page int) (string, error)
	Close() error
}

// Viewer coordinates rendering for one open document. It owns a single
// in-flight render slot.
type Viewer interface {
	Render(ctx context.Context, frame geometry.RenderFrame) (image.Image, error)
	Thumbnail(ctx context.Context, page, width int) (image.Image, error)
	// Cancel aborts the in-flight render, reporting whether there was one.
	Cancel() bool
	CurrentFrame(page int) (geometry.RenderFrame, bool)
	Close() error
}

// Archiver packs named files into one archive.
type Archiver interface {
	Archive(files []NamedFile) ([]byte, error)
}

// Converter turns a PDF into an office document using an external service.
type Converter interface {
	PDFToDocx(ctx context.Context, title string, pdf []byte) ([]byte, error)
}

// SessionRepository keeps the interactive sessions of the viewer.
type SessionRepository interface {
	Create(session *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
	// Sweep removes sessions idle since before cutoff and returns how many.
	Sweep(cutoff time.Time) int
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetConverterURL() string
	GetConvertTimeout() time.Duration
	GetConvertConcurrency() int64
	GetAllowedOrigins() []string
	GetSessionTTL() time.Duration
	GetMaxRenderScale() float64
}
