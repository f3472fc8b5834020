package overlay

import (
	"bytes"
	"fmt"

	"pdf-suite-server/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

// PagesFromImages builds a document with one page per image, each page at
// its recorded size and covered edge to edge by its image.
func (c *Composer) PagesFromImages(pages []domain.PageImage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, &domain.ValidationError{Field: "pages", Message: "no pages to write"}
	}

	pdf := newPage(pages[0].Size.WidthPt, pages[0].Size.HeightPt)
	for i, p := range pages {
		img, typ, err := normalizeImage(p.Image)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: typ}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		if pdf.Err() {
			return nil, fmt.Errorf("page %d: %w: %v", i+1, domain.ErrUnsupportedImage, pdf.Error())
		}

		// "P" keeps the size as given; "L" would swap it.
		w, h := p.Size.WidthPt, p.Size.HeightPt
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	c.logger.Debug("Pages composed from images", "pages", len(pages))
	return output(pdf)
}
