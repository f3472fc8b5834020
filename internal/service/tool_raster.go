package service

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"strconv"

	"pdf-suite-server/internal/domain"
)

// rasterSettings is how a rasterised copy of a document is produced.
type rasterSettings struct {
	dpi     float64
	quality int
}

var (
	flattenSettings = rasterSettings{dpi: 108, quality: 90}

	compressSettings = map[domain.CompressionLevel]rasterSettings{
		domain.CompressLow:    {dpi: 150, quality: 85},
		domain.CompressMedium: {dpi: 110, quality: 70},
		domain.CompressHigh:   {dpi: 96, quality: 60},
	}
)

// minStructuralSavings is the share of bytes the structural rewrite must
// save before the raster copy is no longer tried.
const minStructuralSavings = 0.01

// Compression methods reported in Output.Meta.
const (
	methodStructural = "structural"
	methodRaster     = "raster"
	methodOriginal   = "original"
)

// Flatten replaces every page with an image of itself, which bakes in
// annotations and form fields. Pages keep their size.
func (s *ToolService) Flatten(ctx context.Context, files []domain.NamedFile) (*domain.Output, error) {
	if len(files) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "at least one PDF is required"}
	}
	outs := make([]domain.NamedFile, 0, len(files))
	for _, f := range files {
		out, err := s.rasterize(ctx, f.Data, flattenSettings)
		if err != nil {
			return nil, fmt.Errorf("flatten %s: %w", f.Name, err)
		}
		outs = append(outs, domain.NamedFile{Name: stem(f.Name) + "_flattened.pdf", Data: out})
	}
	s.logger.Info("Flattened documents", "files", len(files))
	return s.pack(outs, "flattened.zip")
}

// Compress shrinks every file. The structural rewrite is tried first; when
// it saves less than 1% a rasterised copy at the level's settings is tried
// too. The smallest of the candidates and the original is kept, so the
// result is never larger than the upload.
func (s *ToolService) Compress(ctx context.Context, files []domain.NamedFile, level domain.CompressionLevel) (*domain.Output, error) {
	if len(files) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "at least one PDF is required"}
	}
	settings, ok := compressSettings[level]
	if !ok {
		return nil, &domain.ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", level)}
	}

	outs := make([]domain.NamedFile, 0, len(files))
	methods := make([]string, 0, len(files))
	var before, after int
	for _, f := range files {
		out, method, err := s.compressOne(ctx, f, settings)
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", f.Name, err)
		}
		before += len(f.Data)
		after += len(out)
		outs = append(outs, domain.NamedFile{Name: stem(f.Name) + "_compressed.pdf", Data: out})
		methods = append(methods, method)
	}

	result, err := s.pack(outs, "compressed.zip")
	if err != nil {
		return nil, err
	}
	result.Meta = map[string]string{
		domain.MetaOriginalSize:   strconv.Itoa(before),
		domain.MetaCompressedSize: strconv.Itoa(after),
	}
	if len(methods) == 1 {
		result.Meta[domain.MetaCompression] = methods[0]
	}
	s.logger.Info("Compressed documents", "files", len(files), "level", string(level), "before", before, "after", after)
	return result, nil
}

func (s *ToolService) compressOne(ctx context.Context, file domain.NamedFile, settings rasterSettings) ([]byte, string, error) {
	best, method := file.Data, methodOriginal

	optimized, err := s.engine.Optimize(file.Data)
	if err != nil {
		return nil, "", err
	}
	if len(optimized) < len(best) {
		best, method = optimized, methodStructural
	}

	saved := float64(len(file.Data)-len(best)) / float64(len(file.Data))
	if saved >= minStructuralSavings {
		return best, method, nil
	}

	raster, err := s.rasterize(ctx, file.Data, settings)
	switch {
	case ctx.Err() != nil:
		return nil, "", context.Cause(ctx)
	case err != nil:
		s.logger.Warn("Raster compression failed", "name", file.Name, "error", err)
	case len(raster) < len(best):
		best, method = raster, methodRaster
	}
	s.logger.Debug("Compression candidates", "name", file.Name, "original", len(file.Data), "structural", len(optimized), "raster", len(raster), "kept", method)
	return best, method, nil
}

// rasterize renders every page to JPEG and rebuilds the document from the
// images, each page at its original size.
func (s *ToolService) rasterize(ctx context.Context, pdf []byte, settings rasterSettings) ([]byte, error) {
	info, err := s.engine.Info(pdf)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Open(pdf, info.Pages)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([]domain.PageImage, 0, info.PageCount)
	for page := 1; page <= doc.PageCount(); page++ {
		size, err := doc.PageSize(page)
		if err != nil {
			return nil, err
		}
		img, err := doc.Render(ctx, page, settings.dpi/72)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: settings.quality}); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", page, err)
		}
		pages = append(pages, domain.PageImage{Size: size, Image: buf.Bytes()})
	}
	return s.composer.PagesFromImages(pages)
}
