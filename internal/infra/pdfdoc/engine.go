// Package pdfdoc is the document engine: it loads PDFs and writes new ones
// from their pages using pdfcpu.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"pdf-suite-server/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// stampDesc places an overlay page at the bottom-left corner of the target
// page at its natural size.
const stampDesc = "position:bl, offset:0 0, scalefactor:1 abs, rotation:0, opacity:1"

// Engine implements domain.DocumentEngine.
type Engine struct {
	logger domain.Logger
}

// NewEngine creates a document engine.
func NewEngine(logger domain.Logger) *Engine {
	// pdfcpu would otherwise create a config directory under $HOME.
	api.DisableConfigDir()
	return &Engine{logger: logger}
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// read loads and validates a document that has at least one page.
func (e *Engine) read(pdf []byte) (*model.Context, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), newConfig())
	if err != nil {
		return nil, classify(err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, classify(err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInvalidPDF)
	}
	return ctx, nil
}

func classify(err error) error {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return fmt.Errorf("%w: %v", domain.ErrEncryptedPDF, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
}

func write(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Info returns the page count and the visible size of every page. The
// visible area is the crop box turned by the page rotation, which is what
// the renderer draws.
func (e *Engine) Info(pdf []byte) (*domain.DocumentInfo, error) {
	ctx, err := e.read(pdf)
	if err != nil {
		return nil, err
	}
	boxes, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, classify(err)
	}

	info := &domain.DocumentInfo{
		PageCount: ctx.PageCount,
		Pages:     make([]domain.PageSize, len(boxes)),
		Metadata:  metadataOf(ctx),
	}
	for i, pb := range boxes {
		crop := pb.CropBox()
		if crop == nil {
			return nil, fmt.Errorf("%w: page %d has no media box", domain.ErrInvalidPDF, i+1)
		}
		d := crop.Dimensions()
		if pb.Rot%180 != 0 {
			d.Width, d.Height = d.Height, d.Width
		}
		info.Pages[i] = domain.PageSize{WidthPt: d.Width, HeightPt: d.Height}
	}
	return info, nil
}

func metadataOf(ctx *model.Context) *domain.DocumentMetadata {
	m := domain.DocumentMetadata{
		Title:    ctx.Title,
		Author:   ctx.Author,
		Subject:  ctx.Subject,
		Keywords: ctx.Keywords,
	}
	if m == (domain.DocumentMetadata{}) {
		return nil
	}
	return &m
}

// SetMetadata writes the non-empty fields of meta into the info dictionary.
func (e *Engine) SetMetadata(pdf []byte, meta domain.DocumentMetadata) ([]byte, error) {
	props := make(map[string]string, 4)
	for key, value := range map[string]string{
		"Title":    meta.Title,
		"Author":   meta.Author,
		"Subject":  meta.Subject,
		"Keywords": meta.Keywords,
	} {
		if value != "" {
			props[key] = value
		}
	}
	if len(props) == 0 {
		return nil, &domain.ValidationError{Field: "metadata", Message: "no metadata given"}
	}

	ctx, err := e.read(pdf)
	if err != nil {
		return nil, err
	}
	if ctx.Info == nil && ctx.XRefTable.Version() >= model.V20 {
		return nil, &domain.ValidationError{Field: "file", Message: "PDF 2.0 documents without an info dictionary are not supported"}
	}
	if err := pdfcpu.PropertiesAdd(ctx, props); err != nil {
		return nil, fmt.Errorf("failed to set metadata: %w", err)
	}
	e.logger.Debug("Metadata updated", "fields", len(props))
	return write(ctx)
}

// CopyPages builds a new document from the given pages, in the given order.
func (e *Engine) CopyPages(pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, domain.ErrNothingSelected
	}
	ctx, err := e.read(pdf)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p < 1 || p > ctx.PageCount {
			return nil, fmt.Errorf("%w: %d of %d", domain.ErrPageOutOfRange, p, ctx.PageCount)
		}
	}

	out, err := pdfcpu.ExtractPages(ctx, pages, false)
	if err != nil {
		return nil, fmt.Errorf("failed to copy pages: %w", err)
	}
	e.logger.Debug("Pages copied", "pages", len(pages), "source_pages", ctx.PageCount)
	return write(out)
}

// Merge concatenates documents in order.
func (e *Engine) Merge(docs [][]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, &domain.ValidationError{Field: "files", Message: "at least one PDF is required"}
	case 1:
		if _, err := e.read(docs[0]); err != nil {
			return nil, err
		}
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfig()); err != nil {
		return nil, classify(err)
	}
	e.logger.Debug("Documents merged", "documents", len(docs))
	return buf.Bytes(), nil
}

// Stamp lays each single-page overlay over its target page. An overlay is
// anchored at the lower-left corner of the crop box, so overlays sized from
// Info cover the visible page. The overlays are written to temporary files
// for the duration of the call.
func (e *Engine) Stamp(pdf []byte, overlays map[int][]byte) ([]byte, error) {
	if len(overlays) == 0 {
		return pdf, nil
	}

	var paths []string
	defer func() {
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				e.logger.Warn("Failed to remove overlay file", "path", p, "error", err)
			}
		}
	}()

	wms := make(map[int]*model.Watermark, len(overlays))
	for page, data := range overlays {
		path, err := writeTemp(data)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)

		wm, err := api.PDFWatermark(path, stampDesc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare overlay for page %d: %w", page, err)
		}
		wms[page] = wm
	}

	var buf bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(pdf), &buf, wms, newConfig()); err != nil {
		return nil, classify(err)
	}
	e.logger.Debug("Overlays stamped", "pages", len(overlays))
	return buf.Bytes(), nil
}

func writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "overlay-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create overlay file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write overlay file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close overlay file: %w", err)
	}
	return f.Name(), nil
}

// Watermark stamps spec's text, centred, on every page.
func (e *Engine) Watermark(pdf []byte, spec domain.WatermarkSpec) ([]byte, error) {
	desc := fmt.Sprintf("fontname:Helvetica-Bold, points:%g, fillcolor:%s, opacity:%g, rotation:%g, scalefactor:1 abs",
		spec.FontSize, spec.Color.Hex(), spec.Opacity, spec.Rotation)
	wm, err := api.TextWatermark(spec.Text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("invalid watermark: %w", err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &buf, nil, wm, newConfig()); err != nil {
		return nil, classify(err)
	}
	return buf.Bytes(), nil
}

// Optimize rewrites the document without unused or duplicate objects.
func (e *Engine) Optimize(pdf []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(pdf), &buf, newConfig()); err != nil {
		return nil, classify(err)
	}
	e.logger.Info("Document optimized", "before_bytes", len(pdf), "after_bytes", buf.Len())
	return buf.Bytes(), nil
}
