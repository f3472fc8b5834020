package handler

import (
	"bytes"
	"context"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
	"pdf-suite-server/internal/pagerange"

	"github.com/stretchr/testify/require"
)

// toolCall records the arguments a mock tool received.
type toolCall struct {
	method    string
	files     []domain.NamedFile
	spec      string
	order     pagerange.Order
	pos       pagerange.Position
	after     int
	cuts      []int
	everyPage bool
	dpi       float64
	text      string
	watermark domain.WatermarkOptions
	level     domain.CompressionLevel
	meta      domain.DocumentMetadata
	query     string
}

type MockToolService struct {
	last toolCall
	err  error
}

func (m *MockToolService) result(c toolCall) (*domain.Output, error) {
	m.last = c
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Output{Name: c.method + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF-" + c.method)}, nil
}

func (m *MockToolService) Info(pdf []byte) (*domain.DocumentInfo, error) {
	m.last = toolCall{method: "info"}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DocumentInfo{PageCount: 1, Pages: []domain.PageSize{{WidthPt: 612, HeightPt: 792}}}, nil
}

func (m *MockToolService) Merge(files []domain.NamedFile) (*domain.Output, error) {
	return m.result(toolCall{method: "merge", files: files})
}

func (m *MockToolService) Split(file domain.NamedFile, cuts []int, everyPage bool) (*domain.Output, error) {
	return m.result(toolCall{method: "split", files: []domain.NamedFile{file}, cuts: cuts, everyPage: everyPage})
}

func (m *MockToolService) SplitRanges(file domain.NamedFile, ranges []pagerange.PageRange) (*domain.Output, error) {
	return m.result(toolCall{method: "split", files: []domain.NamedFile{file}})
}

func (m *MockToolService) Extract(file domain.NamedFile, spec string, order pagerange.Order) (*domain.Output, error) {
	return m.result(toolCall{method: "extract", files: []domain.NamedFile{file}, spec: spec, order: order})
}

func (m *MockToolService) Delete(file domain.NamedFile, spec string) (*domain.Output, error) {
	return m.result(toolCall{method: "delete", files: []domain.NamedFile{file}, spec: spec})
}

func (m *MockToolService) Insert(base, insert domain.NamedFile, pos pagerange.Position, after int) (*domain.Output, error) {
	return m.result(toolCall{method: "insert", files: []domain.NamedFile{base, insert}, pos: pos, after: after})
}

func (m *MockToolService) Watermark(file domain.NamedFile, opts domain.WatermarkOptions) (*domain.Output, error) {
	return m.result(toolCall{method: "watermark", files: []domain.NamedFile{file}, watermark: opts})
}

func (m *MockToolService) Compress(ctx context.Context, files []domain.NamedFile, level domain.CompressionLevel) (*domain.Output, error) {
	out, err := m.result(toolCall{method: "compress", files: files, level: level})
	if err != nil {
		return nil, err
	}
	out.Meta = map[string]string{domain.MetaOriginalSize: "100", domain.MetaCompressedSize: "40", domain.MetaCompression: "structural"}
	return out, nil
}

func (m *MockToolService) Search(ctx context.Context, file domain.NamedFile, query string) (*domain.SearchResult, error) {
	m.last = toolCall{method: "search", files: []domain.NamedFile{file}, query: query}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SearchResult{Query: query, Total: 2, Pages: []int{3}, Matches: []domain.PageMatches{{Page: 3, Count: 2}}}, nil
}

func (m *MockToolService) Compare(ctx context.Context, a, b domain.NamedFile) (*domain.Comparison, error) {
	m.last = toolCall{method: "compare", files: []domain.NamedFile{a, b}}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Comparison{PageCountA: 2, PageCountB: 3, DifferentPages: []int{3}}, nil
}

func (m *MockToolService) SetMetadata(files []domain.NamedFile, meta domain.DocumentMetadata) (*domain.Output, error) {
	return m.result(toolCall{method: "metadata", files: files, meta: meta})
}

func (m *MockToolService) Flatten(ctx context.Context, files []domain.NamedFile) (*domain.Output, error) {
	return m.result(toolCall{method: "flatten", files: files})
}

func (m *MockToolService) Batch(files []domain.NamedFile) (*domain.Output, error) {
	return m.result(toolCall{method: "batch", files: files})
}

func (m *MockToolService) ImagesToPDF(images []domain.NamedFile) (*domain.Output, error) {
	return m.result(toolCall{method: "images", files: images})
}

func (m *MockToolService) TextToPDF(name, text string) (*domain.Output, error) {
	return m.result(toolCall{method: "text", files: []domain.NamedFile{{Name: name}}, text: text})
}

func (m *MockToolService) PDFToImages(ctx context.Context, file domain.NamedFile, dpi float64) (*domain.Output, error) {
	return m.result(toolCall{method: "images", files: []domain.NamedFile{file}, dpi: dpi})
}

type MockAnnotationService struct {
	highlights []domain.Highlight
	signature  domain.Signature
	fields     []domain.TextField
	err        error
}

func (m *MockAnnotationService) Highlight(file domain.NamedFile, highlights []domain.Highlight) (*domain.Output, error) {
	m.highlights = highlights
	return m.out()
}

func (m *MockAnnotationService) Sign(file domain.NamedFile, sig domain.Signature) (*domain.Output, error) {
	m.signature = sig
	return m.out()
}

func (m *MockAnnotationService) FillText(file domain.NamedFile, fields []domain.TextField) (*domain.Output, error) {
	m.fields = fields
	return m.out()
}

func (m *MockAnnotationService) out() (*domain.Output, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Output{Name: "annotated.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

var nowForTests = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type MockSessionService struct {
	session   *domain.Session
	renderErr error
	mapErr    error
	cuts      domain.CutsView
	toggled   int
	scale     float64
	dpr       float64
}

func (m *MockSessionService) lookup(id string) (*domain.Session, error) {
	if m.session == nil || id != m.session.ID {
		return nil, domain.ErrSessionNotFound
	}
	return m.session, nil
}

func (m *MockSessionService) Create(file domain.NamedFile) (*domain.Session, error) {
	info := domain.DocumentInfo{PageCount: 2, Pages: []domain.PageSize{{WidthPt: 612, HeightPt: 792}, {WidthPt: 612, HeightPt: 792}}}
	m.session = domain.NewSession("s1", file.Name, file.Data, info, nil, nowForTests)
	return m.session, nil
}

func (m *MockSessionService) Get(id string) (*domain.Session, error) {
	return m.lookup(id)
}

func (m *MockSessionService) Delete(id string) error {
	if _, err := m.lookup(id); err != nil {
		return err
	}
	m.session = nil
	return nil
}

func (m *MockSessionService) Render(ctx context.Context, id string, page int, scale, dpr float64) (image.Image, geometry.RenderFrame, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	m.scale, m.dpr = scale, dpr
	if m.renderErr != nil {
		return nil, geometry.RenderFrame{}, m.renderErr
	}
	frame, err := geometry.NewRenderFrame(page, 612, 792, scale, dpr)
	if err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	w, h := frame.BackingSize()
	return image.NewRGBA(image.Rect(0, 0, w, h)), frame, nil
}

func (m *MockSessionService) CancelRender(id string) (bool, error) {
	if _, err := m.lookup(id); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockSessionService) Thumbnail(ctx context.Context, id string, page, width int) (image.Image, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, err
	}
	if width == 0 {
		width = 160
	}
	return image.NewRGBA(image.Rect(0, 0, width, width*2)), nil
}

func (m *MockSessionService) Cuts(id string) (*domain.CutsView, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, err
	}
	return &m.cuts, nil
}

func (m *MockSessionService) ToggleCut(id string, page int) (*domain.CutsView, error) {
	m.toggled = page
	return m.Cuts(id)
}

func (m *MockSessionService) SplitEveryPage(id string) (*domain.CutsView, error) {
	return m.Cuts(id)
}

func (m *MockSessionService) ClearCuts(id string) (*domain.CutsView, error) {
	return m.Cuts(id)
}

func (m *MockSessionService) Split(id string) (*domain.Output, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, err
	}
	return &domain.Output{Name: "doc_split.zip", ContentType: "application/zip", Data: []byte("zip")}, nil
}

func (m *MockSessionService) Map(id string, page int, renderScale float64, rect geometry.ScreenRect) (geometry.PdfRect, error) {
	if _, err := m.lookup(id); err != nil {
		return geometry.PdfRect{}, err
	}
	if m.mapErr != nil {
		return geometry.PdfRect{}, m.mapErr
	}
	frame, err := geometry.NewRenderFrame(page, 612, 792, renderScale, 1)
	if err != nil {
		return geometry.PdfRect{}, err
	}
	return geometry.ScreenToPdf(rect, frame), nil
}

type MockConvertService struct {
	err error
}

func (m *MockConvertService) PDFToDocx(ctx context.Context, file domain.NamedFile) (*domain.Output, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Output{Name: "report.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("PK")}, nil
}

type part struct {
	field, name string
	data        []byte
}

// multipartRequest builds a POST with the given files and plain fields.
func multipartRequest(t *testing.T, target string, files []part, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pdfPart(field, name string) part {
	return part{field: field, name: name, data: []byte("%PDF-1.7")}
}

type testServer struct {
	tools       *MockToolService
	annotations *MockAnnotationService
	sessions    *MockSessionService
	convert     *MockConvertService
	logger      *MockHandlerLogger
	handler     http.Handler
}

func newTestServer() *testServer {
	s := &testServer{
		tools:       &MockToolService{},
		annotations: &MockAnnotationService{},
		sessions:    &MockSessionService{},
		convert:     &MockConvertService{},
		logger:      NewMockHandlerLogger(),
	}
	s.handler = NewRouter(
		NewToolHandler(s.tools, s.annotations, s.logger),
		NewSessionHandler(s.sessions, s.logger),
		NewConvertHandler(s.convert, s.logger),
		NewPageHandler(s.logger),
		[]string{"http://localhost:5173"},
		Recoverer(s.logger),
		LimitBody(1<<20),
	)
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}
