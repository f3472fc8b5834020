package service

import (
	"context"
	"errors"
	"testing"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/pagerange"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolFixture struct {
	engine   *MockEngine
	composer *MockComposer
	renderer *MockRenderer
	archiver *MockArchiver
	svc      *ToolService
}

func newToolFixture() *toolFixture {
	f := &toolFixture{
		engine:   NewMockEngine(),
		composer: &MockComposer{},
		renderer: &MockRenderer{},
		archiver: &MockArchiver{},
	}
	f.svc = NewToolService(f.engine, f.composer, f.renderer, f.archiver, NewMockLogger())
	return f
}

func file(name string, data []byte) domain.NamedFile {
	return domain.NamedFile{Name: name, Data: data}
}

func archived(a *MockArchiver) map[string]string {
	out := make(map[string]string, len(a.files))
	for _, f := range a.files {
		out[f.Name] = string(f.Data)
	}
	return out
}

func TestToolService_Merge(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.Merge([]domain.NamedFile{
		file("b.pdf", fakePDF("b1", "b2")),
		file("a.pdf", fakePDF("a1")),
	})
	require.NoError(t, err)
	assert.Equal(t, "b1|b2|a1", string(out.Data), "upload order is kept")
	assert.Equal(t, "merged.pdf", out.Name)
	assert.Equal(t, "application/pdf", out.ContentType)

	_, err = f.svc.Merge([]domain.NamedFile{file("a.pdf", fakePDF("a1"))})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = f.svc.Merge([]domain.NamedFile{file("a.pdf", fakePDF("a1")), file("x.pdf", []byte("garbage"))})
	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
}

func TestToolService_Split(t *testing.T) {
	tests := []struct {
		name      string
		cuts      []int
		everyPage bool
		want      map[string]string
	}{
		{
			name: "cuts with out of range entries",
			cuts: []int{4, 2, 9, 0},
			want: map[string]string{"part_1.pdf": "p1|p2", "part_2.pdf": "p3|p4", "part_3.pdf": "p5|p6"},
		},
		{
			name: "no cuts",
			want: map[string]string{"part_1.pdf": "p1|p2|p3|p4|p5|p6"},
		},
		{
			name:      "every page",
			cuts:      []int{3},
			everyPage: true,
			want: map[string]string{
				"part_1.pdf": "p1", "part_2.pdf": "p2", "part_3.pdf": "p3",
				"part_4.pdf": "p4", "part_5.pdf": "p5", "part_6.pdf": "p6",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newToolFixture()
			out, err := f.svc.Split(file("report.pdf", fakePDF(labels(6, "p")...)), tt.cuts, tt.everyPage)
			require.NoError(t, err)
			assert.Equal(t, "report_split.zip", out.Name)
			assert.Equal(t, "application/zip", out.ContentType)
			if diff := cmp.Diff(tt.want, archived(f.archiver)); diff != "" {
				t.Fatalf("parts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToolService_SplitRangesIsSequential(t *testing.T) {
	f := newToolFixture()
	ranges := pagerange.RangesFromCuts([]int{1, 2}, 3)

	_, err := f.svc.SplitRanges(file("a.pdf", fakePDF("p1", "p2", "p3")), ranges)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {2}, {3}}, f.engine.copies)

	_, err = f.svc.SplitRanges(file("a.pdf", fakePDF("p1")), nil)
	assert.True(t, errors.Is(err, domain.ErrNothingSelected))
}

func TestToolService_Extract(t *testing.T) {
	doc := file("a.pdf", fakePDF(labels(5, "p")...))
	tests := []struct {
		spec  string
		order pagerange.Order
		want  string
	}{
		{spec: "4,1-2", order: pagerange.DocumentOrder, want: "p1|p2|p4"},
		{spec: "4,1-2", order: pagerange.SelectionOrder, want: "p4|p1|p2"},
		{spec: "5,5,0,99,3", order: pagerange.SelectionOrder, want: "p5|p3"},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.order.String(), func(t *testing.T) {
			out, err := newToolFixture().svc.Extract(doc, tt.spec, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out.Data))
			assert.Equal(t, "a_extracted.pdf", out.Name)
		})
	}

	_, err := newToolFixture().svc.Extract(doc, "9-12,x", pagerange.DocumentOrder)
	assert.True(t, errors.Is(err, domain.ErrNothingSelected))
}

func TestToolService_Delete(t *testing.T) {
	f := newToolFixture()
	doc := file("a.pdf", fakePDF(labels(10, "p")...))

	out, err := f.svc.Delete(doc, "2,4,6,40")
	require.NoError(t, err)
	assert.Equal(t, "p1|p3|p5|p7|p8|p9|p10", string(out.Data))

	_, err = f.svc.Delete(doc, "1-10")
	assert.True(t, errors.Is(err, domain.ErrNoPagesLeft))

	_, err = f.svc.Delete(doc, "11,x")
	assert.True(t, errors.Is(err, domain.ErrNothingSelected))
}

func TestToolService_Insert(t *testing.T) {
	base := file("base.pdf", fakePDF("b1", "b2", "b3"))
	ins := file("ins.pdf", fakePDF("i1", "i2"))

	tests := []struct {
		name  string
		pos   pagerange.Position
		after int
		want  string
	}{
		{name: "start", pos: pagerange.AtStart, want: "i1|i2|b1|b2|b3"},
		{name: "end", pos: pagerange.AtEnd, want: "b1|b2|b3|i1|i2"},
		{name: "after 1", pos: pagerange.AfterPage, after: 1, want: "b1|i1|i2|b2|b3"},
		{name: "after past end", pos: pagerange.AfterPage, after: 99, want: "b1|b2|b3|i1|i2"},
		{name: "after 0 clamps to 1", pos: pagerange.AfterPage, after: 0, want: "b1|i1|i2|b2|b3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newToolFixture().svc.Insert(base, ins, tt.pos, tt.after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out.Data))
			assert.Equal(t, "base_inserted.pdf", out.Name)
		})
	}

	_, err := newToolFixture().svc.Insert(base, file("x.pdf", []byte("garbage")), pagerange.AtEnd, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
}

func ptr(v float64) *float64 { return &v }

func TestToolService_Watermark(t *testing.T) {
	f := newToolFixture()
	doc := file("a.pdf", fakePDF("p1"))

	_, err := f.svc.Watermark(doc, domain.WatermarkOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.WatermarkSpec{
		Text:     "CONFIDENTIAL",
		FontSize: 48,
		Opacity:  0.2,
		Rotation: -30,
		Color:    domain.RGB{R: 255},
	}, *f.engine.watermarked)

	_, err = f.svc.Watermark(doc, domain.WatermarkOptions{Text: " DRAFT ", Opacity: ptr(0.5), FontSize: ptr(20), Rotation: ptr(45), Color: "#0000ff"})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", f.engine.watermarked.Text)
	assert.Equal(t, 0.5, f.engine.watermarked.Opacity)
	assert.Equal(t, 20.0, f.engine.watermarked.FontSize)
	assert.Equal(t, 45.0, f.engine.watermarked.Rotation)
	assert.Equal(t, domain.RGB{B: 255}, f.engine.watermarked.Color)

	_, err = f.svc.Watermark(doc, domain.WatermarkOptions{Color: "blue"})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestToolService_WatermarkKeepsHorizontalText(t *testing.T) {
	f := newToolFixture()

	_, err := f.svc.Watermark(file("a.pdf", fakePDF("p1")), domain.WatermarkOptions{Rotation: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.engine.watermarked.Rotation, "an explicit 0 is not the default")
	assert.Equal(t, 0.2, f.engine.watermarked.Opacity)
}

func TestToolService_WatermarkRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		opts  domain.WatermarkOptions
		field string
	}{
		{"invisible", domain.WatermarkOptions{Opacity: ptr(0)}, "opacity"},
		{"over opaque", domain.WatermarkOptions{Opacity: ptr(1.5)}, "opacity"},
		{"zero font", domain.WatermarkOptions{FontSize: ptr(0)}, "font_size"},
		{"negative font", domain.WatermarkOptions{FontSize: ptr(-3)}, "font_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newToolFixture()
			_, err := f.svc.Watermark(file("a.pdf", fakePDF("p1")), tt.opts)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Nil(t, f.engine.watermarked)
		})
	}
}

func TestToolService_Compress(t *testing.T) {
	ctx := context.Background()

	t.Run("structural rewrite is enough", func(t *testing.T) {
		f := newToolFixture()
		out, err := f.svc.Compress(ctx, []domain.NamedFile{file("big.pdf", fakePDF("p1", "p2"))}, domain.CompressMedium)
		require.NoError(t, err)
		assert.Equal(t, "big_compressed.pdf", out.Name)
		assert.Len(t, out.Data, 2)
		assert.Equal(t, map[string]string{
			domain.MetaOriginalSize:   "5",
			domain.MetaCompressedSize: "2",
			domain.MetaCompression:    "structural",
		}, out.Meta)
		assert.Empty(t, f.renderer.docs, "no raster copy once the rewrite saves enough")
	})

	t.Run("raster copy when the rewrite saves nothing", func(t *testing.T) {
		f := newToolFixture()
		f.engine.optimizeSame = true
		f.composer.pagesOut = []byte("r")

		out, err := f.svc.Compress(ctx, []domain.NamedFile{file("scan.pdf", fakePDF("p1", "p2"))}, domain.CompressHigh)
		require.NoError(t, err)
		assert.Equal(t, "r", string(out.Data))
		assert.Equal(t, "raster", out.Meta[domain.MetaCompression])
		assert.Equal(t, "1", out.Meta[domain.MetaCompressedSize])

		require.Len(t, f.renderer.docs, 1)
		doc := f.renderer.docs[0]
		assert.Equal(t, []float64{96.0 / 72, 96.0 / 72}, doc.scales)
		assert.True(t, doc.closed)
		require.Len(t, f.composer.pages, 2)
		assert.Equal(t, domain.PageSize{WidthPt: 10, HeightPt: 20}, f.composer.pages[0].Size)
		assert.NotEmpty(t, f.composer.pages[0].Image)
	})

	t.Run("original kept when nothing is smaller", func(t *testing.T) {
		f := newToolFixture()
		f.engine.optimizeSame = true

		out, err := f.svc.Compress(ctx, []domain.NamedFile{file("tiny.pdf", fakePDF("p1", "p2"))}, domain.CompressLow)
		require.NoError(t, err)
		assert.Equal(t, "p1|p2", string(out.Data))
		assert.Equal(t, "original", out.Meta[domain.MetaCompression])
		assert.Equal(t, "5", out.Meta[domain.MetaCompressedSize])
	})

	t.Run("several files are zipped", func(t *testing.T) {
		f := newToolFixture()
		out, err := f.svc.Compress(ctx, []domain.NamedFile{
			file("a.pdf", fakePDF("a1", "a2")),
			file("a.pdf", fakePDF("b1", "b2")),
		}, domain.CompressMedium)
		require.NoError(t, err)
		assert.Equal(t, "compressed.zip", out.Name)
		assert.Equal(t, map[string]string{"a_compressed.pdf": "a1", "a_compressed_2.pdf": "b1"}, archived(f.archiver))
		assert.Equal(t, "10", out.Meta[domain.MetaOriginalSize])
		assert.Equal(t, "4", out.Meta[domain.MetaCompressedSize])
		assert.NotContains(t, out.Meta, domain.MetaCompression)
	})

	t.Run("bad input", func(t *testing.T) {
		f := newToolFixture()
		var verr *domain.ValidationError

		_, err := f.svc.Compress(ctx, nil, domain.CompressMedium)
		assert.True(t, errors.As(err, &verr))

		_, err = f.svc.Compress(ctx, []domain.NamedFile{file("a.pdf", fakePDF("p1"))}, "extreme")
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "level", verr.Field)

		_, err = f.svc.Compress(ctx, []domain.NamedFile{file("a.pdf", []byte("garbage"))}, domain.CompressMedium)
		assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
	})

	t.Run("cancelled during the raster copy", func(t *testing.T) {
		f := newToolFixture()
		f.engine.optimizeSame = true
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.svc.Compress(cancelled, []domain.NamedFile{file("a.pdf", fakePDF("p1"))}, domain.CompressMedium)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestToolService_Flatten(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.Flatten(context.Background(), []domain.NamedFile{file("form.pdf", fakePDF("p1", "p2L"))})
	require.NoError(t, err)
	assert.Equal(t, "form_flattened.pdf", out.Name)
	assert.Equal(t, "r1|r2", string(out.Data))

	require.Len(t, f.renderer.docs, 1)
	assert.Equal(t, []domain.PageSize{{WidthPt: 612, HeightPt: 792}, {WidthPt: 842, HeightPt: 595}}, f.renderer.docs[0].sizes,
		"the renderer gets the engine's page sizes")
	assert.Equal(t, []float64{1.5, 1.5}, f.renderer.docs[0].scales)
	assert.Len(t, f.composer.pages, 2)

	out, err = f.svc.Flatten(context.Background(), []domain.NamedFile{file("a.pdf", fakePDF("a1")), file("b.pdf", fakePDF("b1"))})
	require.NoError(t, err)
	assert.Equal(t, "flattened.zip", out.Name)
	assert.Len(t, archived(f.archiver), 2)

	_, err = f.svc.Flatten(context.Background(), []domain.NamedFile{file("bad.pdf", []byte("garbage"))})
	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
}

func TestToolService_Search(t *testing.T) {
	f := newToolFixture()
	doc := file("a.pdf", fakePDF("Hello hello", "nothing", "HELLO \tworld"))

	got, err := f.svc.Search(context.Background(), doc, "hello")
	require.NoError(t, err)
	if diff := cmp.Diff(&domain.SearchResult{
		Query:   "hello",
		Total:   3,
		Pages:   []int{1, 3},
		Matches: []domain.PageMatches{{Page: 1, Count: 2}, {Page: 3, Count: 1}},
	}, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}

	got, err = f.svc.Search(context.Background(), doc, "  Hello   World ")
	require.NoError(t, err)
	assert.Equal(t, "Hello   World", got.Query)
	assert.Equal(t, []int{3}, got.Pages)

	got, err = f.svc.Search(context.Background(), doc, "absent")
	require.NoError(t, err)
	assert.Zero(t, got.Total)
	assert.NotNil(t, got.Pages)

	_, err = f.svc.Search(context.Background(), doc, " \t")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "query", verr.Field)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.Search(ctx, doc, "hello")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestToolService_Compare(t *testing.T) {
	f := newToolFixture()
	a := file("a.pdf", fakePDF("p1", "p2"))

	got, err := f.svc.Compare(context.Background(), a, file("b.pdf", fakePDF("p1", "P2", "p3")))
	require.NoError(t, err)
	assert.Equal(t, &domain.Comparison{PageCountA: 2, PageCountB: 3, DifferentPages: []int{3}}, got)

	got, err = f.svc.Compare(context.Background(), a, file("c.pdf", fakePDF("p1", "changed")))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got.DifferentPages)
	assert.False(t, got.Identical)

	got, err = f.svc.Compare(context.Background(), a, a)
	require.NoError(t, err)
	assert.True(t, got.Identical)
	assert.Empty(t, got.DifferentPages)

	_, err = f.svc.Compare(context.Background(), a, file("bad.pdf", []byte("garbage")))
	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
	assert.Contains(t, err.Error(), "bad.pdf")
}

func TestToolService_SetMetadata(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.SetMetadata([]domain.NamedFile{file("a.pdf", fakePDF("p1"))}, domain.DocumentMetadata{
		Title:    "  Report ",
		Keywords: " tax, ,2024 ,",
	})
	require.NoError(t, err)
	assert.Equal(t, "a_metadata.pdf", out.Name)
	assert.Equal(t, &domain.DocumentMetadata{Title: "Report", Keywords: "tax, 2024"}, f.engine.metadata)

	out, err = f.svc.SetMetadata([]domain.NamedFile{file("a.pdf", fakePDF("a1")), file("b.pdf", fakePDF("b1"))}, domain.DocumentMetadata{Author: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "metadata.zip", out.Name)
	assert.Equal(t, map[string]string{"a_metadata.pdf": "a1", "b_metadata.pdf": "b1"}, archived(f.archiver))

	_, err = f.svc.SetMetadata([]domain.NamedFile{file("a.pdf", fakePDF("p1"))}, domain.DocumentMetadata{Keywords: " , "})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "metadata", verr.Field)
}

func TestToolService_Batch(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.Batch([]domain.NamedFile{file("a.pdf", fakePDF("a1", "a2")), file("b.pdf", fakePDF("b1", "b2"))})
	require.NoError(t, err)
	assert.Equal(t, "batch_processed.zip", out.Name)
	assert.Equal(t, map[string]string{"a_processed.pdf": "a1", "b_processed.pdf": "b1"}, archived(f.archiver))

	out, err = f.svc.Batch([]domain.NamedFile{file("a.pdf", fakePDF("a1", "a2"))})
	require.NoError(t, err)
	assert.Equal(t, "a_processed.pdf", out.Name)

	_, err = f.svc.Batch(nil)
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = f.svc.Batch([]domain.NamedFile{file("a.pdf", fakePDF("a1")), file("bad.pdf", []byte("garbage"))})
	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
}

func TestToolService_TextToPDF(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.TextToPDF("notes.txt", "hello\nworld")
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", out.Name)
	assert.Equal(t, "hello\nworld", f.composer.text)

	_, err = f.svc.TextToPDF("notes.txt", " \n\t")
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestToolService_PDFToImages(t *testing.T) {
	f := newToolFixture()

	out, err := f.svc.PDFToImages(context.Background(), file("scan.pdf", fakePDF("p1", "p2")), 144)
	require.NoError(t, err)
	assert.Equal(t, "scan_images.zip", out.Name)

	got := archived(f.archiver)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "page_1.png")
	assert.Contains(t, got, "page_2.png")

	require.Len(t, f.renderer.docs, 1)
	doc := f.renderer.docs[0]
	assert.Equal(t, []float64{2, 2}, doc.scales)
	assert.True(t, doc.closed)

	_, err = f.svc.PDFToImages(context.Background(), file("scan.pdf", fakePDF("p1")), 5000)
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.PDFToImages(ctx, file("scan.pdf", fakePDF("p1")), 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"report.pdf":        "report",
		"dir/archive.2.pdf": "archive.2",
		"  ":                "document",
		"noext":             "noext",
	}
	for in, want := range tests {
		if got := stem(in); got != want {
			t.Fatalf("stem(%q) = %q, want %q", in, got, want)
		}
	}
}
