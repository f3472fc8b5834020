package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"pdf-suite-server/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(s string) {
	m.mu.Lock()
	m.messages = append(m.messages, s)
	m.mu.Unlock()
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.record("ERROR: " + msg + " - " + err.Error())
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

// Fake documents are page labels joined by "|", e.g. "a1|a2|a3". Every page
// is US Letter unless the label ends in "L", which is landscape A4.
func fakePDF(labels ...string) []byte {
	return []byte(strings.Join(labels, "|"))
}

func labels(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

type MockEngine struct {
	stamped     map[int][]byte
	watermarked *domain.WatermarkSpec
	copies      [][]int
	metadata    *domain.DocumentMetadata
	// optimizeSame makes Optimize return its input unchanged.
	optimizeSame bool
}

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func split(pdf []byte) ([]string, error) {
	if len(pdf) == 0 || string(pdf) == "garbage" {
		return nil, domain.ErrInvalidPDF
	}
	return strings.Split(string(pdf), "|"), nil
}

func (m *MockEngine) Info(pdf []byte) (*domain.DocumentInfo, error) {
	pages, err := split(pdf)
	if err != nil {
		return nil, err
	}
	info := &domain.DocumentInfo{PageCount: len(pages)}
	for _, p := range pages {
		size := domain.PageSize{WidthPt: 612, HeightPt: 792}
		if strings.HasSuffix(p, "L") {
			size = domain.PageSize{WidthPt: 842, HeightPt: 595}
		}
		info.Pages = append(info.Pages, size)
	}
	return info, nil
}

func (m *MockEngine) CopyPages(pdf []byte, pages []int) ([]byte, error) {
	all, err := split(pdf)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, domain.ErrNothingSelected
	}
	m.copies = append(m.copies, pages)
	out := make([]string, len(pages))
	for i, p := range pages {
		if p < 1 || p > len(all) {
			return nil, domain.ErrPageOutOfRange
		}
		out[i] = all[p-1]
	}
	return fakePDF(out...), nil
}

func (m *MockEngine) Merge(docs [][]byte) ([]byte, error) {
	parts := make([]string, len(docs))
	for i, d := range docs {
		if _, err := split(d); err != nil {
			return nil, err
		}
		parts[i] = string(d)
	}
	return []byte(strings.Join(parts, "|")), nil
}

func (m *MockEngine) Stamp(pdf []byte, overlays map[int][]byte) ([]byte, error) {
	m.stamped = overlays
	return pdf, nil
}

func (m *MockEngine) Watermark(pdf []byte, spec domain.WatermarkSpec) ([]byte, error) {
	m.watermarked = &spec
	return pdf, nil
}

func (m *MockEngine) Optimize(pdf []byte) ([]byte, error) {
	if _, err := split(pdf); err != nil {
		return nil, err
	}
	if m.optimizeSame {
		return pdf, nil
	}
	return pdf[:len(pdf)/2], nil
}

func (m *MockEngine) SetMetadata(pdf []byte, meta domain.DocumentMetadata) ([]byte, error) {
	if _, err := split(pdf); err != nil {
		return nil, err
	}
	m.metadata = &meta
	return pdf, nil
}

type overlayCall struct {
	size  domain.PageSize
	marks []domain.Mark
}

type MockComposer struct {
	overlays []overlayCall
	text     string
	pages    []domain.PageImage
	// pagesOut, when set, is what PagesFromImages returns.
	pagesOut []byte
}

func (m *MockComposer) Overlay(size domain.PageSize, marks []domain.Mark) ([]byte, error) {
	m.overlays = append(m.overlays, overlayCall{size: size, marks: marks})
	return []byte(fmt.Sprintf("overlay-%d", len(m.overlays))), nil
}

func (m *MockComposer) ImagesToPDF(images []domain.NamedFile) ([]byte, error) {
	if len(images) == 0 {
		return nil, &domain.ValidationError{Field: "images", Message: "at least one image is required"}
	}
	return fakePDF(labels(len(images), "img")...), nil
}

func (m *MockComposer) TextToPDF(text string) ([]byte, error) {
	m.text = text
	return fakePDF("t1"), nil
}

func (m *MockComposer) PagesFromImages(pages []domain.PageImage) ([]byte, error) {
	m.pages = pages
	if m.pagesOut != nil {
		return m.pagesOut, nil
	}
	return fakePDF(labels(len(pages), "r")...), nil
}

// MockRenderer opens fake documents whose pages are 10x20pt. A page's text
// is its label.
type MockRenderer struct {
	mu   sync.Mutex
	docs []*MockRenderDocument
}

func (m *MockRenderer) Open(pdf []byte, sizes []domain.PageSize) (domain.RenderDocument, error) {
	pages, err := split(pdf)
	if err != nil {
		return nil, err
	}
	doc := &MockRenderDocument{pages: len(pages), labels: pages, sizes: sizes}
	m.mu.Lock()
	m.docs = append(m.docs, doc)
	m.mu.Unlock()
	return doc, nil
}

type MockRenderDocument struct {
	pages  int
	labels []string
	sizes  []domain.PageSize

	mu     sync.Mutex
	scales []float64
	closed bool
}

func (d *MockRenderDocument) PageCount() int { return d.pages }

func (d *MockRenderDocument) PageSize(page int) (domain.PageSize, error) {
	if page < 1 || page > d.pages {
		return domain.PageSize{}, domain.ErrPageOutOfRange
	}
	return domain.PageSize{WidthPt: 10, HeightPt: 20}, nil
}

func (d *MockRenderDocument) Render(ctx context.Context, page int, ppp float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > d.pages {
		return nil, domain.ErrPageOutOfRange
	}
	d.mu.Lock()
	d.scales = append(d.scales, ppp)
	d.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, int(10*ppp), int(20*ppp))), nil
}

func (d *MockRenderDocument) Text(ctx context.Context, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if page < 1 || page > d.pages {
		return "", domain.ErrPageOutOfRange
	}
	return d.labels[page-1], nil
}

func (d *MockRenderDocument) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

type MockArchiver struct {
	files []domain.NamedFile
}

func (m *MockArchiver) Archive(files []domain.NamedFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, errors.New("nothing to archive")
	}
	m.files = files
	return []byte("zip"), nil
}

type MockConverter struct {
	title string
	err   error
}

func (m *MockConverter) PDFToDocx(ctx context.Context, title string, pdf []byte) ([]byte, error) {
	m.title = title
	if m.err != nil {
		return nil, m.err
	}
	return []byte("docx"), nil
}

type MockConfig struct {
	maxScale float64
	ttl      time.Duration
}

func (c *MockConfig) GetServerPort() string            { return "3001" }
func (c *MockConfig) GetMaxFileSize() int64            { return 1 << 20 }
func (c *MockConfig) GetLogLevel() string              { return "debug" }
func (c *MockConfig) GetConverterURL() string          { return "http://converter" }
func (c *MockConfig) GetConvertTimeout() time.Duration { return time.Second }
func (c *MockConfig) GetConvertConcurrency() int64     { return 1 }
func (c *MockConfig) GetAllowedOrigins() []string      { return nil }
func (c *MockConfig) GetSessionTTL() time.Duration     { return c.ttl }
func (c *MockConfig) GetMaxRenderScale() float64       { return c.maxScale }
