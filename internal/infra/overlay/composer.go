// Package overlay writes new page content. Annotation tools draw their marks
// on a transparent page of the target page's size, which the document engine
// then stamps over the original.
package overlay

import (
	"bytes"
	"fmt"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"

	"github.com/jung-kurt/gofpdf"
)

const (
	a4Width  = 595.28
	a4Height = 841.89

	captionSize   = 10.0
	captionOffset = 24.0
)

// Composer implements domain.Composer.
type Composer struct {
	logger domain.Logger
}

// NewComposer creates a composer.
func NewComposer(logger domain.Logger) *Composer {
	return &Composer{logger: logger}
}

func newPage(w, h float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// Overlay draws marks on one page of the given size. Mark rectangles are in
// PDF space.
func (c *Composer) Overlay(size domain.PageSize, marks []domain.Mark) ([]byte, error) {
	pdf := newPage(size.WidthPt, size.HeightPt)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, m := range marks {
		x, y, w, h := geometry.ToTopLeft(m.Rect, size.HeightPt)
		switch m.Kind {
		case domain.MarkRect:
			pdf.SetAlpha(opacityOr(m.Opacity, 1), "Normal")
			pdf.SetFillColor(int(m.Color.R), int(m.Color.G), int(m.Color.B))
			pdf.Rect(x, y, w, h, "F")
			pdf.SetAlpha(1, "Normal")
		case domain.MarkImage:
			img, typ, err := normalizeImage(m.Image)
			if err != nil {
				return nil, fmt.Errorf("mark %d: %w", i, err)
			}
			name := fmt.Sprintf("mark-%d", i)
			opts := gofpdf.ImageOptions{ImageType: typ}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
			pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
		case domain.MarkText:
			pdf.SetAlpha(opacityOr(m.Opacity, 1), "Normal")
			pdf.SetFont("Helvetica", "", m.FontSize)
			pdf.SetTextColor(int(m.Color.R), int(m.Color.G), int(m.Color.B))
			pdf.Text(m.Rect.X, size.HeightPt-m.Rect.Y, tr(m.Text))
			pdf.SetAlpha(1, "Normal")
		default:
			return nil, fmt.Errorf("mark %d: unknown kind %q", i, m.Kind)
		}
	}

	c.logger.Debug("Overlay composed", "marks", len(marks), "width_pt", size.WidthPt, "height_pt", size.HeightPt)
	return output(pdf)
}

// ImagesToPDF puts each image on its own A4 page, scaled to fit and centred,
// with the file name as a caption in the bottom-left corner.
func (c *Composer) ImagesToPDF(images []domain.NamedFile) ([]byte, error) {
	if len(images) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "at least one image is required"}
	}

	pdf := newPage(a4Width, a4Height)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, f := range images {
		img, typ, err := normalizeImage(f.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		opts := gofpdf.ImageOptions{ImageType: typ}
		name := fmt.Sprintf("image-%d", i)
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		if pdf.Err() {
			return nil, fmt.Errorf("%s: %w: %v", f.Name, domain.ErrUnsupportedImage, pdf.Error())
		}

		w, h := fitInto(info.Width(), info.Height(), a4Width, a4Height)
		pdf.AddPage()
		pdf.ImageOptions(name, (a4Width-w)/2, (a4Height-h)/2, w, h, false, opts, 0, "")
		pdf.SetFont("Helvetica", "", captionSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(captionOffset, a4Height-captionOffset, tr(f.Name))
	}

	c.logger.Info("Images converted to PDF", "images", len(images))
	return output(pdf)
}

// fitInto scales w x h to the largest size that fits inside maxW x maxH.
func fitInto(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	s := min(maxW/w, maxH/h)
	return w * s, h * s
}

func opacityOr(v, def float64) float64 {
	if v <= 0 || v > 1 {
		return def
	}
	return v
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
