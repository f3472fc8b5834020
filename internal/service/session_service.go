package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
	"pdf-suite-server/internal/pagerange"
	"pdf-suite-server/internal/viewer"

	"github.com/google/uuid"
)

const (
	defaultThumbnailWidth = 160
	maxThumbnailWidth     = 1024
)

// SessionService owns the interactive sessions: one open document each, with
// its viewer and cut set.
type SessionService struct {
	repo     domain.SessionRepository
	engine   domain.DocumentEngine
	renderer domain.Renderer
	tools    domain.ToolService
	config   domain.Config
	logger   domain.Logger
	now      func() time.Time
}

func NewSessionService(
	repo domain.SessionRepository,
	engine domain.DocumentEngine,
	renderer domain.Renderer,
	tools domain.ToolService,
	config domain.Config,
	logger domain.Logger,
) *SessionService {
	return &SessionService{
		repo:     repo,
		engine:   engine,
		renderer: renderer,
		tools:    tools,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Create loads file and opens a viewer for it.
func (s *SessionService) Create(file domain.NamedFile) (*domain.Session, error) {
	info, err := s.engine.Info(file.Data)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Open(file.Data, info.Pages)
	if err != nil {
		return nil, err
	}

	session := domain.NewSession(uuid.NewString(), file.Name, file.Data, *info, viewer.New(doc, s.logger), s.now())
	if err := s.repo.Create(session); err != nil {
		_ = doc.Close()
		return nil, err
	}
	s.logger.Info("Session opened", "session", session.ID, "name", file.Name, "pages", info.PageCount)
	return session, nil
}

// Get returns the session and marks it as used.
func (s *SessionService) Get(id string) (*domain.Session, error) {
	session, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	session.Touch(s.now())
	return session, nil
}

func (s *SessionService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logger.Info("Session closed", "session", id)
	return nil
}

// Render rasterises a page at scale*dpr pixels per point. The scale is
// capped at the configured maximum. Starting a render supersedes any render
// still running for the session.
func (s *SessionService) Render(ctx context.Context, id string, page int, scale, dpr float64) (image.Image, geometry.RenderFrame, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	size, err := session.Info.Page(page)
	if err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	if limit := s.config.GetMaxRenderScale(); scale > limit {
		scale = limit
	}

	frame, err := geometry.NewRenderFrame(page, size.WidthPt, size.HeightPt, scale, dpr)
	if err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	img, err := session.Viewer.Render(ctx, frame)
	if err != nil {
		return nil, geometry.RenderFrame{}, err
	}
	return img, frame, nil
}

func (s *SessionService) CancelRender(id string) (bool, error) {
	session, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return session.Viewer.Cancel(), nil
}

// Thumbnail renders a page scaled to width pixels. A zero width means the
// default.
func (s *SessionService) Thumbnail(ctx context.Context, id string, page, width int) (image.Image, error) {
	if width == 0 {
		width = defaultThumbnailWidth
	}
	if width < 1 || width > maxThumbnailWidth {
		return nil, &domain.ValidationError{Field: "width", Message: fmt.Sprintf("must be between 1 and %d", maxThumbnailWidth)}
	}
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Viewer.Thumbnail(ctx, page, width)
}

func (s *SessionService) Cuts(id string) (*domain.CutsView, error) {
	return s.withCuts(id, func(*pagerange.CutSet) error { return nil })
}

// ToggleCut flips the cut after page. Pages outside 1..total-1 are ignored.
func (s *SessionService) ToggleCut(id string, page int) (*domain.CutsView, error) {
	return s.withCuts(id, func(c *pagerange.CutSet) error {
		if _, err := c.Toggle(page); err != nil {
			s.logger.Debug("Ignoring cut", "session", id, "page", page, "error", err)
		}
		return nil
	})
}

func (s *SessionService) SplitEveryPage(id string) (*domain.CutsView, error) {
	return s.withCuts(id, func(c *pagerange.CutSet) error {
		c.SplitEveryPage()
		return nil
	})
}

func (s *SessionService) ClearCuts(id string) (*domain.CutsView, error) {
	return s.withCuts(id, func(c *pagerange.CutSet) error {
		c.Clear()
		return nil
	})
}

// Split writes the parts of the session's current cut set.
func (s *SessionService) Split(id string) (*domain.Output, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var ranges []pagerange.PageRange
	_ = session.WithCuts(func(c *pagerange.CutSet) error {
		ranges = c.Ranges()
		return nil
	})
	return s.tools.SplitRanges(domain.NamedFile{Name: session.Name, Data: session.PDF}, ranges)
}

// Map converts a rectangle drawn on a rendered page into PDF space. The
// rectangle must have been drawn on the page's current render; a page that
// has not been rendered yet accepts any scale.
func (s *SessionService) Map(id string, page int, renderScale float64, rect geometry.ScreenRect) (geometry.PdfRect, error) {
	session, err := s.Get(id)
	if err != nil {
		return geometry.PdfRect{}, err
	}
	size, err := session.Info.Page(page)
	if err != nil {
		return geometry.PdfRect{}, err
	}
	drawn, err := geometry.NewRenderFrame(page, size.WidthPt, size.HeightPt, renderScale, 1)
	if err != nil {
		return geometry.PdfRect{}, err
	}
	if !rect.IsFinite() {
		return geometry.PdfRect{}, &domain.ValidationError{Field: "rect", Message: "coordinates must be finite"}
	}
	if current, ok := session.Viewer.CurrentFrame(page); ok {
		if err := geometry.CheckCurrent(drawn, current); err != nil {
			return geometry.PdfRect{}, err
		}
	}
	return geometry.MapToPdf(rect, drawn)
}

// RunJanitor closes sessions idle for longer than the configured TTL until
// ctx is done.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}

// SweepIdle closes sessions idle for longer than the configured TTL.
func (s *SessionService) SweepIdle() int {
	removed := s.repo.Sweep(s.now().Add(-s.config.GetSessionTTL()))
	if removed > 0 {
		s.logger.Info("Expired idle sessions", "count", removed)
	}
	return removed
}

// CloseAll closes every open session. Used on shutdown.
func (s *SessionService) CloseAll() int {
	return s.repo.Sweep(s.now().Add(time.Nanosecond))
}

func (s *SessionService) withCuts(id string, fn func(c *pagerange.CutSet) error) (*domain.CutsView, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var view domain.CutsView
	err = session.WithCuts(func(c *pagerange.CutSet) error {
		if err := fn(c); err != nil {
			return err
		}
		view = domain.CutsView{Total: c.Total(), Cuts: c.Sorted(), Ranges: c.Ranges()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
