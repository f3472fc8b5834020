package domain

import (
	"fmt"
	"strconv"
	"strings"

	"pdf-suite-server/internal/geometry"
)

// PageSize is a page size in points.
type PageSize struct {
	WidthPt  float64 `json:"width_pt"`
	HeightPt float64 `json:"height_pt"`
}

// DocumentInfo describes a loaded document.
type DocumentInfo struct {
	PageCount int               `json:"page_count"`
	Pages     []PageSize        `json:"pages"`
	Metadata  *DocumentMetadata `json:"metadata,omitempty"`
}

// DocumentMetadata is the descriptive part of the document information
// dictionary.
type DocumentMetadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// Page returns the size of a 1-based page.
func (d *DocumentInfo) Page(page int) (PageSize, error) {
	if page < 1 || page > len(d.Pages) {
		return PageSize{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, len(d.Pages))
	}
	return d.Pages[page-1], nil
}

// PageImage is a raster of a whole page and the page size it fills.
type PageImage struct {
	Size  PageSize
	Image []byte
}

// NamedFile is an uploaded or generated file.
type NamedFile struct {
	Name string
	Data []byte
}

// RGB is an opaque colour.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor reads "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, &ValidationError{Field: "color", Message: fmt.Sprintf("expected #rrggbb, got %q", s)}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, &ValidationError{Field: "color", Message: fmt.Sprintf("expected #rrggbb, got %q", s)}
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarkKind is what a Mark draws.
type MarkKind string

const (
	MarkRect  MarkKind = "rect"
	MarkImage MarkKind = "image"
	MarkText  MarkKind = "text"
)

// Mark is one drawing operation on an overlay page, in PDF space.
// Text marks draw from the baseline at (Rect.X, Rect.Y).
type Mark struct {
	Kind     MarkKind
	Rect     geometry.PdfRect
	Color    RGB
	Opacity  float64
	Image    []byte
	Text     string
	FontSize float64
}

// Highlight is a filled rectangle drawn on a rendered page.
type Highlight struct {
	Placement geometry.Placement `json:"placement"`
	Color     string             `json:"color"`
	Opacity   float64            `json:"opacity"`
}

// TextField is text typed at a point of a rendered page. At is the top-left
// corner of the text box in screen space.
type TextField struct {
	Frame geometry.RenderFrame `json:"frame"`
	At    geometry.Point       `json:"at"`
	Text  string               `json:"text"`
	Size  float64              `json:"size"`
	Color string               `json:"color,omitempty"`
}

// WatermarkSpec describes a text watermark stamped on every page.
type WatermarkSpec struct {
	Text     string
	FontSize float64
	Opacity  float64
	Rotation float64
	Color    RGB
}
