package domain

import (
	"context"
	"image"

	"pdf-suite-server/internal/geometry"
	"pdf-suite-server/internal/pagerange"
)

// Output is a generated file returned to the client. Meta holds extra
// facts about the result, sent as response headers.
type Output struct {
	Name        string
	ContentType string
	Data        []byte
	Meta        map[string]string
}

// Output.Meta keys.
const (
	MetaOriginalSize   = "X-Original-Size"
	MetaCompressedSize = "X-Compressed-Size"
	MetaCompression    = "X-Compression-Method"
)

// MetaKeys lists every Output.Meta key.
var MetaKeys = []string{MetaOriginalSize, MetaCompressedSize, MetaCompression}

// WatermarkOptions is the user-facing form of WatermarkSpec. Absent fields
// take the defaults; a rotation of 0 means horizontal text.
type WatermarkOptions struct {
	Text     string   `json:"text"`
	Opacity  *float64 `json:"opacity,omitempty"`
	FontSize *float64 `json:"font_size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Color    string   `json:"color"`
}

// CompressionLevel trades quality for size when a document has to be
// rasterised to shrink.
type CompressionLevel string

const (
	CompressLow    CompressionLevel = "low"
	CompressMedium CompressionLevel = "medium"
	CompressHigh   CompressionLevel = "high"
)

// ParseCompressionLevel reads a level; empty means medium.
func ParseCompressionLevel(s string) (CompressionLevel, error) {
	switch CompressionLevel(s) {
	case "":
		return CompressMedium, nil
	case CompressLow, CompressMedium, CompressHigh:
		return CompressionLevel(s), nil
	}
	return "", &ValidationError{Field: "level", Message: "must be low, medium or high"}
}

// PageMatches is the number of hits on one page.
type PageMatches struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}

// SearchResult lists the pages whose text contains the query.
type SearchResult struct {
	Query   string        `json:"query"`
	Total   int           `json:"total_matches"`
	Pages   []int         `json:"pages"`
	Matches []PageMatches `json:"matches"`
}

// Comparison is the page-by-page text difference of two documents.
type Comparison struct {
	PageCountA     int   `json:"page_count_a"`
	PageCountB     int   `json:"page_count_b"`
	DifferentPages []int `json:"different_pages"`
	Identical      bool  `json:"identical"`
}

// Signature is a signature image and the rectangles it is stamped into.
type Signature struct {
	Image      []byte
	Placements []geometry.Placement
}

// CutsView is the cut set of a session and the parts it produces.
type CutsView struct {
	Total  int                   `json:"total_pages"`
	Cuts   []int                 `json:"cuts"`
	Ranges []pagerange.PageRange `json:"ranges"`
}

// ToolService runs the one-shot document tools. Every tool is stateless.
type ToolService interface {
	Info(pdf []byte) (*DocumentInfo, error)
	Merge(files []NamedFile) (*Output, error)
	Split(file NamedFile, cuts []int, everyPage bool) (*Output, error)
	SplitRanges(file NamedFile, ranges []pagerange.PageRange) (*Output, error)
	Extract(file NamedFile, spec string, order pagerange.Order) (*Output, error)
	Delete(file NamedFile, spec string) (*Output, error)
	Insert(base, insert NamedFile, pos pagerange.Position, after int) (*Output, error)
	Watermark(file NamedFile, opts WatermarkOptions) (*Output, error)
	Compress(ctx context.Context, files []NamedFile, level CompressionLevel) (*Output, error)
	ImagesToPDF(images []NamedFile) (*Output, error)
	TextToPDF(name, text string) (*Output, error)
	PDFToImages(ctx context.Context, file NamedFile, dpi float64) (*Output, error)
	Search(ctx context.Context, file NamedFile, query string) (*SearchResult, error)
	Compare(ctx context.Context, a, b NamedFile) (*Comparison, error)
	SetMetadata(files []NamedFile, meta DocumentMetadata) (*Output, error)
	Flatten(ctx context.Context, files []NamedFile) (*Output, error)
	Batch(files []NamedFile) (*Output, error)
}

// AnnotationService draws on pages using placements made on rendered pages.
type AnnotationService interface {
	Highlight(file NamedFile, highlights []Highlight) (*Output, error)
	Sign(file NamedFile, sig Signature) (*Output, error)
	FillText(file NamedFile, fields []TextField) (*Output, error)
}

// SessionService manages interactive viewer sessions.
type SessionService interface {
	Create(file NamedFile) (*Session, error)
	Get(id string) (*Session, error)
	Delete(id string) error
	Render(ctx context.Context, id string, page int, scale, dpr float64) (image.Image, geometry.RenderFrame, error)
	CancelRender(id string) (bool, error)
	Thumbnail(ctx context.Context, id string, page, width int) (image.Image, error)
	Cuts(id string) (*CutsView, error)
	ToggleCut(id string, page int) (*CutsView, error)
	SplitEveryPage(id string) (*CutsView, error)
	ClearCuts(id string) (*CutsView, error)
	Split(id string) (*Output, error)
	Map(id string, page int, renderScale float64, rect geometry.ScreenRect) (geometry.PdfRect, error)
}

// ConvertService converts documents through the external conversion service.
type ConvertService interface {
	PDFToDocx(ctx context.Context, file NamedFile) (*Output, error)
}
