package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
)

const (
	defaultHighlightColor   = "#ffeb3b"
	defaultHighlightOpacity = 0.35
	defaultTextSize         = 12
	defaultTextColor        = "#000000"

	sizeTolerance = 0.01
)

// AnnotationService maps placements made on rendered pages into PDF space
// and stamps the resulting marks onto the document.
type AnnotationService struct {
	engine   domain.DocumentEngine
	composer domain.Composer
	logger   domain.Logger
}

func NewAnnotationService(engine domain.DocumentEngine, composer domain.Composer, logger domain.Logger) *AnnotationService {
	return &AnnotationService{engine: engine, composer: composer, logger: logger}
}

// Highlight draws filled rectangles. Rectangles are clipped to the page;
// rectangles entirely off the page are dropped.
func (s *AnnotationService) Highlight(file domain.NamedFile, highlights []domain.Highlight) (*domain.Output, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}

	marks := make(map[int][]domain.Mark)
	for i, h := range highlights {
		frame := h.Placement.Frame
		if err := checkFrame(info, frame); err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i, err)
		}
		rect, ok := geometry.Clip(h.Placement.Rect, frame)
		if !ok {
			continue
		}
		color, err := domain.ParseHexColor(or(h.Color, defaultHighlightColor))
		if err != nil {
			return nil, err
		}
		opacity := h.Opacity
		if opacity <= 0 || opacity > 1 {
			opacity = defaultHighlightOpacity
		}
		pdfRect, err := geometry.MapToPdf(rect, frame)
		if err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i, err)
		}
		marks[frame.PageNumber] = append(marks[frame.PageNumber], domain.Mark{
			Kind:    domain.MarkRect,
			Rect:    pdfRect,
			Color:   color,
			Opacity: opacity,
		})
	}

	out, err := s.stamp(file.Data, info, marks)
	if err != nil {
		return nil, fmt.Errorf("highlight: %w", err)
	}
	return pdfOutput(stem(file.Name)+"_highlighted.pdf", out), nil
}

// Sign places the signature image at every placement. A placement that hangs
// over the edge is moved back onto the page.
func (s *AnnotationService) Sign(file domain.NamedFile, sig domain.Signature) (*domain.Output, error) {
	if len(sig.Image) == 0 {
		return nil, &domain.ValidationError{Field: "signature", Message: "signature image is required"}
	}
	if len(sig.Placements) == 0 {
		return nil, &domain.ValidationError{Field: "placements", Message: "at least one placement is required"}
	}
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}

	marks := make(map[int][]domain.Mark)
	for i, p := range sig.Placements {
		if err := checkFrame(info, p.Frame); err != nil {
			return nil, fmt.Errorf("placement %d: %w", i, err)
		}
		rect := geometry.ClampInto(p.Rect, p.Frame)
		if rect.Width <= 0 || rect.Height <= 0 {
			continue
		}
		pdfRect, err := geometry.MapToPdf(rect, p.Frame)
		if err != nil {
			return nil, fmt.Errorf("placement %d: %w", i, err)
		}
		marks[p.Frame.PageNumber] = append(marks[p.Frame.PageNumber], domain.Mark{
			Kind:  domain.MarkImage,
			Rect:  pdfRect,
			Image: sig.Image,
		})
	}

	out, err := s.stamp(file.Data, info, marks)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return pdfOutput(stem(file.Name)+"_signed.pdf", out), nil
}

// FillText writes text at points of rendered pages. Empty fields and fields
// anchored off the page are dropped.
func (s *AnnotationService) FillText(file domain.NamedFile, fields []domain.TextField) (*domain.Output, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}

	marks := make(map[int][]domain.Mark)
	for i, f := range fields {
		if err := checkFrame(info, f.Frame); err != nil {
			return nil, fmt.Errorf("text field %d: %w", i, err)
		}
		if strings.TrimSpace(f.Text) == "" || !onPage(f.At, f.Frame) {
			continue
		}
		color, err := domain.ParseHexColor(or(f.Color, defaultTextColor))
		if err != nil {
			return nil, err
		}
		size := f.Size
		if size <= 0 {
			size = defaultTextSize
		}
		top, err := geometry.MapPointToPdf(f.At, f.Frame)
		if err != nil {
			return nil, fmt.Errorf("text field %d: %w", i, err)
		}
		marks[f.Frame.PageNumber] = append(marks[f.Frame.PageNumber], domain.Mark{
			Kind:     domain.MarkText,
			Rect:     geometry.PdfRect{X: top.X, Y: top.Y - size},
			Color:    color,
			Opacity:  1,
			Text:     f.Text,
			FontSize: size,
		})
	}

	out, err := s.stamp(file.Data, info, marks)
	if err != nil {
		return nil, fmt.Errorf("fill text: %w", err)
	}
	return pdfOutput(stem(file.Name)+"_filled.pdf", out), nil
}

// stamp builds one overlay page per marked page and lays them over the
// document. Pages are processed in ascending order.
func (s *AnnotationService) stamp(pdf []byte, info *domain.DocumentInfo, marks map[int][]domain.Mark) ([]byte, error) {
	if len(marks) == 0 {
		return nil, domain.ErrNothingSelected
	}
	pages := make([]int, 0, len(marks))
	for p := range marks {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	overlays := make(map[int][]byte, len(pages))
	for _, p := range pages {
		size, err := info.Page(p)
		if err != nil {
			return nil, err
		}
		overlay, err := s.composer.Overlay(size, marks[p])
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		overlays[p] = overlay
	}
	s.logger.Debug("Stamping overlays", "pages", len(overlays))
	return s.engine.Stamp(pdf, overlays)
}

// checkFrame validates a client frame and compares it with the real page.
// Sizes are compared to within sizeTolerance points.
func checkFrame(info *domain.DocumentInfo, frame geometry.RenderFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	size, err := info.Page(frame.PageNumber)
	if err != nil {
		return err
	}
	if math.Abs(size.WidthPt-frame.OriginWidthPt) > sizeTolerance || math.Abs(size.HeightPt-frame.OriginHeightPt) > sizeTolerance {
		return fmt.Errorf("%w: frame is %gx%g, page %d is %gx%g", geometry.ErrStaleFrame,
			frame.OriginWidthPt, frame.OriginHeightPt, frame.PageNumber, size.WidthPt, size.HeightPt)
	}
	return nil
}

func onPage(p geometry.Point, f geometry.RenderFrame) bool {
	w, h := f.LogicalSize()
	return p.X >= 0 && p.Y >= 0 && p.X <= w && p.Y <= h
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
