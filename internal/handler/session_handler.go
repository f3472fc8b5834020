package handler

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"net/http"
	"strconv"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
	apperrors "pdf-suite-server/pkg/errors"

	"github.com/gorilla/mux"
)

const thumbnailQuality = 80

// Frame headers describe the logical frame a rendered page belongs to.
const (
	headerPageNumber   = "X-Page-Number"
	headerRenderScale  = "X-Render-Scale"
	headerPixelRatio   = "X-Device-Pixel-Ratio"
	headerOriginWidth  = "X-Origin-Width-Pt"
	headerOriginHeight = "X-Origin-Height-Pt"
)

var frameHeaders = []string{headerPageNumber, headerRenderScale, headerPixelRatio, headerOriginWidth, headerOriginHeight}

// SessionHandler serves the interactive viewer: one session per open
// document.
type SessionHandler struct {
	sessions domain.SessionService
	logger   domain.Logger
}

func NewSessionHandler(sessions domain.SessionService, logger domain.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type sessionResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	PageCount int               `json:"page_count"`
	Pages     []domain.PageSize `json:"pages"`
}

func newSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{ID: s.ID, Name: s.Name, PageCount: s.Info.PageCount, Pages: s.Info.Pages}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	session, err := h.sessions.Create(file)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Render answers with a PNG of the page. The query takes the logical scale
// and the device pixel ratio; the frame actually used is echoed in headers.
func (h *SessionHandler) Render(w http.ResponseWriter, r *http.Request) {
	page, err := pageVar(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	scale, err := formFloat(q.Get("scale"), "scale")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if q.Get("scale") == "" {
		scale = 1
	}
	dpr, err := formFloat(q.Get("dpr"), "dpr")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	img, frame, err := h.sessions.Render(r.Context(), mux.Vars(r)["id"], page, scale, dpr)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondError(w, h.logger, err)
		return
	}
	setFrameHeaders(w.Header(), frame)
	writeImage(w, "image/png", buf.Bytes())
}

// CancelRender aborts the session's in-flight render.
func (h *SessionHandler) CancelRender(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.sessions.CancelRender(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (h *SessionHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	page, err := pageVar(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	width, err := formInt(r.URL.Query().Get("width"), "width")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	img, err := h.sessions.Thumbnail(r.Context(), mux.Vars(r)["id"], page, width)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeImage(w, "image/jpeg", buf.Bytes())
}

func (h *SessionHandler) Cuts(w http.ResponseWriter, r *http.Request) {
	h.writeCuts(w)(h.sessions.Cuts(mux.Vars(r)["id"]))
}

// ToggleCut flips the cut after the page in the path.
func (h *SessionHandler) ToggleCut(w http.ResponseWriter, r *http.Request) {
	page, err := pageVar(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.writeCuts(w)(h.sessions.ToggleCut(mux.Vars(r)["id"], page))
}

func (h *SessionHandler) SplitEveryPage(w http.ResponseWriter, r *http.Request) {
	h.writeCuts(w)(h.sessions.SplitEveryPage(mux.Vars(r)["id"]))
}

func (h *SessionHandler) ClearCuts(w http.ResponseWriter, r *http.Request) {
	h.writeCuts(w)(h.sessions.ClearCuts(mux.Vars(r)["id"]))
}

func (h *SessionHandler) Split(w http.ResponseWriter, r *http.Request) {
	out, err := h.sessions.Split(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeFile(w, out)
}

type mapRequest struct {
	Page        int                 `json:"page"`
	RenderScale float64             `json:"render_scale"`
	Rect        geometry.ScreenRect `json:"rect"`
}

// Map converts a rectangle drawn on the page's current render into PDF
// points.
func (h *SessionHandler) Map(w http.ResponseWriter, r *http.Request) {
	var req mapRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	rect, err := h.sessions.Map(mux.Vars(r)["id"], req.Page, req.RenderScale, req.Rect)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rect)
}

func (h *SessionHandler) writeCuts(w http.ResponseWriter) func(*domain.CutsView, error) {
	return func(view *domain.CutsView, err error) {
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func pageVar(r *http.Request) (int, error) {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		return 0, apperrors.NewValidationError("invalid page", err.Error())
	}
	return page, nil
}

func setFrameHeaders(h http.Header, f geometry.RenderFrame) {
	h.Set(headerPageNumber, strconv.Itoa(f.PageNumber))
	h.Set(headerRenderScale, formatFloat(f.RenderScale))
	h.Set(headerPixelRatio, formatFloat(f.PixelRatio()))
	h.Set(headerOriginWidth, formatFloat(f.OriginWidthPt))
	h.Set(headerOriginHeight, formatFloat(f.OriginHeightPt))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
