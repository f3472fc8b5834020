package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/pagerange"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeZip  = "application/zip"
	contentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	defaultDPI = 150
	minDPI     = 36
	maxDPI     = 600
)

// Watermark defaults.
const (
	defaultWatermarkText     = "CONFIDENTIAL"
	defaultWatermarkOpacity  = 0.2
	defaultWatermarkSize     = 48
	defaultWatermarkRotation = -30
)

var defaultWatermarkColor = domain.RGB{R: 255}

type ToolService struct {
	engine   domain.DocumentEngine
	composer domain.Composer
	renderer domain.Renderer
	archiver domain.Archiver
	logger   domain.Logger
}

func NewToolService(
	engine domain.DocumentEngine,
	composer domain.Composer,
	renderer domain.Renderer,
	archiver domain.Archiver,
	logger domain.Logger,
) *ToolService {
	return &ToolService{
		engine:   engine,
		composer: composer,
		renderer: renderer,
		archiver: archiver,
		logger:   logger,
	}
}

func (s *ToolService) Info(pdf []byte) (*domain.DocumentInfo, error) {
	return s.engine.Info(pdf)
}

// Merge concatenates the files in upload order.
func (s *ToolService) Merge(files []domain.NamedFile) (*domain.Output, error) {
	if len(files) < 2 {
		return nil, &domain.ValidationError{Field: "files", Message: "at least two PDFs are required"}
	}
	docs := make([][]byte, len(files))
	for i, f := range files {
		docs[i] = f.Data
	}
	out, err := s.engine.Merge(docs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	s.logger.Info("Merged documents", "files", len(files), "bytes", len(out))
	return pdfOutput("merged.pdf", out), nil
}

// Split cuts the document after each page in cuts, or after every page.
func (s *ToolService) Split(file domain.NamedFile, cuts []int, everyPage bool) (*domain.Output, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}
	if everyPage {
		cuts = pagerange.EveryPage(info.PageCount)
	}
	return s.SplitRanges(file, pagerange.RangesFromCuts(cuts, info.PageCount))
}

// SplitRanges writes one part per range and archives them as part_1.pdf,
// part_2.pdf and so on. Parts are produced one after another.
func (s *ToolService) SplitRanges(file domain.NamedFile, ranges []pagerange.PageRange) (*domain.Output, error) {
	if len(ranges) == 0 {
		return nil, domain.ErrNothingSelected
	}
	parts := make([]domain.NamedFile, 0, len(ranges))
	for i, r := range ranges {
		part, err := s.engine.CopyPages(file.Data, r.Pages())
		if err != nil {
			return nil, fmt.Errorf("split part %d (pages %s): %w", i+1, r, err)
		}
		parts = append(parts, domain.NamedFile{Name: fmt.Sprintf("part_%d.pdf", i+1), Data: part})
	}
	zipped, err := s.archiver.Archive(parts)
	if err != nil {
		return nil, fmt.Errorf("split archive: %w", err)
	}
	s.logger.Info("Split document", "name", file.Name, "parts", len(parts))
	return &domain.Output{Name: stem(file.Name) + "_split.zip", ContentType: contentTypeZip, Data: zipped}, nil
}

// Extract copies the pages named by spec into a new document. Pages that do
// not exist are dropped.
func (s *ToolService) Extract(file domain.NamedFile, spec string, order pagerange.Order) (*domain.Output, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}
	pages := pagerange.Resolve(pagerange.ParsePageList(spec), info.PageCount, order)
	if len(pages) == 0 {
		return nil, domain.ErrNothingSelected
	}
	out, err := s.engine.CopyPages(file.Data, pages)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	s.logger.Debug("Extracted pages", "name", file.Name, "pages", pagerange.FormatPages(pages), "order", order.String())
	return pdfOutput(stem(file.Name)+"_extracted.pdf", out), nil
}

// Delete removes the pages named by spec. Removing every page is refused.
func (s *ToolService) Delete(file domain.NamedFile, spec string) (*domain.Output, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}
	selected := pagerange.ParsePageSpec(spec).Within(info.PageCount).Sorted()
	if len(selected) == 0 {
		return nil, domain.ErrNothingSelected
	}
	keep := pagerange.PagesToRemove(selected, info.PageCount)
	if len(keep) == 0 {
		return nil, domain.ErrNoPagesLeft
	}
	out, err := s.engine.CopyPages(file.Data, keep)
	if err != nil {
		return nil, fmt.Errorf("delete pages: %w", err)
	}
	s.logger.Debug("Deleted pages", "name", file.Name, "removed", pagerange.FormatPages(selected))
	return pdfOutput(stem(file.Name)+"_trimmed.pdf", out), nil
}

// Insert places every page of insert into base at pos.
func (s *ToolService) Insert(base, insert domain.NamedFile, pos pagerange.Position, after int) (*domain.Output, error) {
	info, err := s.engine.Info(base.Data)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.Info(insert.Data); err != nil {
		return nil, fmt.Errorf("inserted file: %w", err)
	}

	plan := pagerange.PlanInsert(pos, after, info.PageCount)
	docs := make([][]byte, 0, 3)
	if len(plan.Head) > 0 {
		head, err := s.engine.CopyPages(base.Data, plan.Head)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		docs = append(docs, head)
	}
	docs = append(docs, insert.Data)
	if len(plan.Tail) > 0 {
		tail, err := s.engine.CopyPages(base.Data, plan.Tail)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		docs = append(docs, tail)
	}

	out, err := s.engine.Merge(docs)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return pdfOutput(stem(base.Name)+"_inserted.pdf", out), nil
}

func (s *ToolService) Watermark(file domain.NamedFile, opts domain.WatermarkOptions) (*domain.Output, error) {
	spec, err := watermarkSpec(opts)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.Watermark(file.Data, spec)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	return pdfOutput(stem(file.Name)+"_watermarked.pdf", out), nil
}

func watermarkSpec(opts domain.WatermarkOptions) (domain.WatermarkSpec, error) {
	spec := domain.WatermarkSpec{
		Text:     strings.TrimSpace(opts.Text),
		Opacity:  defaultWatermarkOpacity,
		FontSize: defaultWatermarkSize,
		Rotation: defaultWatermarkRotation,
		Color:    defaultWatermarkColor,
	}
	if spec.Text == "" {
		spec.Text = defaultWatermarkText
	}
	if opts.Opacity != nil {
		if *opts.Opacity <= 0 || *opts.Opacity > 1 {
			return domain.WatermarkSpec{}, &domain.ValidationError{Field: "opacity", Message: "must be greater than 0 and at most 1"}
		}
		spec.Opacity = *opts.Opacity
	}
	if opts.FontSize != nil {
		if *opts.FontSize <= 0 {
			return domain.WatermarkSpec{}, &domain.ValidationError{Field: "font_size", Message: "must be positive"}
		}
		spec.FontSize = *opts.FontSize
	}
	if opts.Rotation != nil {
		spec.Rotation = *opts.Rotation
	}
	if opts.Color != "" {
		c, err := domain.ParseHexColor(opts.Color)
		if err != nil {
			return domain.WatermarkSpec{}, err
		}
		spec.Color = c
	}
	return spec, nil
}

// SetMetadata writes the given fields into every file. Keywords are a comma
// separated list; blanks are dropped.
func (s *ToolService) SetMetadata(files []domain.NamedFile, meta domain.DocumentMetadata) (*domain.Output, error) {
	meta = domain.DocumentMetadata{
		Title:    strings.TrimSpace(meta.Title),
		Author:   strings.TrimSpace(meta.Author),
		Subject:  strings.TrimSpace(meta.Subject),
		Keywords: strings.Join(splitKeywords(meta.Keywords), ", "),
	}
	if meta == (domain.DocumentMetadata{}) {
		return nil, &domain.ValidationError{Field: "metadata", Message: "set at least one of title, author, subject or keywords"}
	}
	return s.eachFile(files, "_metadata.pdf", "metadata.zip", func(pdf []byte) ([]byte, error) {
		return s.engine.SetMetadata(pdf, meta)
	})
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Batch rewrites every file through the engine, which normalises its
// structure and drops unused objects.
func (s *ToolService) Batch(files []domain.NamedFile) (*domain.Output, error) {
	return s.eachFile(files, "_processed.pdf", "batch_processed.zip", s.engine.Optimize)
}

// eachFile applies fn to every file. One file comes back as a PDF named
// after it; several come back zipped.
func (s *ToolService) eachFile(files []domain.NamedFile, suffix, archive string, fn func([]byte) ([]byte, error)) (*domain.Output, error) {
	if len(files) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "at least one PDF is required"}
	}
	outs := make([]domain.NamedFile, 0, len(files))
	for _, f := range files {
		out, err := fn(f.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		outs = append(outs, domain.NamedFile{Name: stem(f.Name) + suffix, Data: out})
	}
	return s.pack(outs, archive)
}

func (s *ToolService) pack(files []domain.NamedFile, archive string) (*domain.Output, error) {
	if len(files) == 1 {
		return pdfOutput(files[0].Name, files[0].Data), nil
	}
	zipped, err := s.archiver.Archive(uniqueNames(files))
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &domain.Output{Name: archive, ContentType: contentTypeZip, Data: zipped}, nil
}

// uniqueNames numbers repeated names so archive entries do not collide.
func uniqueNames(files []domain.NamedFile) []domain.NamedFile {
	seen := make(map[string]int, len(files))
	out := make([]domain.NamedFile, len(files))
	for i, f := range files {
		seen[f.Name]++
		if n := seen[f.Name]; n > 1 {
			ext := filepath.Ext(f.Name)
			f.Name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(f.Name, ext), n, ext)
		}
		out[i] = f
	}
	return out
}

func (s *ToolService) ImagesToPDF(images []domain.NamedFile) (*domain.Output, error) {
	out, err := s.composer.ImagesToPDF(images)
	if err != nil {
		return nil, fmt.Errorf("images to pdf: %w", err)
	}
	return pdfOutput("images.pdf", out), nil
}

func (s *ToolService) TextToPDF(name, text string) (*domain.Output, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "text", Message: "text is empty"}
	}
	out, err := s.composer.TextToPDF(text)
	if err != nil {
		return nil, fmt.Errorf("text to pdf: %w", err)
	}
	return pdfOutput(stem(name)+".pdf", out), nil
}

// PDFToImages renders every page to PNG at dpi and archives them as
// page_1.png, page_2.png and so on. A zero dpi means the default.
func (s *ToolService) PDFToImages(ctx context.Context, file domain.NamedFile, dpi float64) (*domain.Output, error) {
	if dpi == 0 {
		dpi = defaultDPI
	}
	if dpi < minDPI || dpi > maxDPI {
		return nil, &domain.ValidationError{Field: "dpi", Message: fmt.Sprintf("must be between %d and %d", minDPI, maxDPI)}
	}

	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Open(file.Data, info.Pages)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	images := make([]domain.NamedFile, 0, doc.PageCount())
	for page := 1; page <= doc.PageCount(); page++ {
		img, err := doc.Render(ctx, page, dpi/72)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", page, err)
		}
		images = append(images, domain.NamedFile{Name: fmt.Sprintf("page_%d.png", page), Data: buf.Bytes()})
	}

	zipped, err := s.archiver.Archive(images)
	if err != nil {
		return nil, fmt.Errorf("images archive: %w", err)
	}
	s.logger.Info("Rendered pages", "name", file.Name, "pages", len(images), "dpi", dpi)
	return &domain.Output{Name: stem(file.Name) + "_images.zip", ContentType: contentTypeZip, Data: zipped}, nil
}

func pdfOutput(name string, data []byte) *domain.Output {
	return &domain.Output{Name: name, ContentType: contentTypePDF, Data: data}
}

// stem returns the file name without directory or extension.
func stem(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document"
	}
	return base
}
