package handler

import (
	"net/http"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/pagerange"
	apperrors "pdf-suite-server/pkg/errors"
)

// PageHandler exposes the page segmenter without a document, for clients
// that want to preview what a split or a page list will produce.
type PageHandler struct {
	logger domain.Logger
}

func NewPageHandler(logger domain.Logger) *PageHandler {
	return &PageHandler{logger: logger}
}

type rangesRequest struct {
	TotalPages int   `json:"total_pages"`
	Cuts       []int `json:"cuts"`
}

type rangesResponse struct {
	Ranges []pagerange.PageRange `json:"ranges"`
}

// Ranges partitions 1..total_pages by the given cuts.
func (h *PageHandler) Ranges(w http.ResponseWriter, r *http.Request) {
	var req rangesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.TotalPages < 1 {
		respondError(w, h.logger, apperrors.NewValidationError("total_pages must be at least 1"))
		return
	}
	writeJSON(w, http.StatusOK, rangesResponse{Ranges: pagerange.RangesFromCuts(req.Cuts, req.TotalPages)})
}

type parseRequest struct {
	Spec       string `json:"spec"`
	TotalPages int    `json:"total_pages"`
}

type parseResponse struct {
	Pages     []int  `json:"pages"`
	InRange   []int  `json:"in_range"`
	Formatted string `json:"formatted"`
}

// Parse reads a typed page list. Pages is everything that parsed; InRange
// keeps the pages that exist when total_pages is given.
func (h *PageHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	set := pagerange.ParsePageSpec(req.Spec)
	resp := parseResponse{Pages: set.Sorted(), InRange: set.Sorted()}
	if req.TotalPages > 0 {
		resp.InRange = set.Within(req.TotalPages).Sorted()
	}
	resp.Formatted = pagerange.FormatPages(resp.InRange)
	writeJSON(w, http.StatusOK, resp)
}
