package handler

import (
	"context"
	"errors"
	"net/http"

	"pdf-suite-server/internal/domain"
	apperrors "pdf-suite-server/pkg/errors"
)

// ConvertHandler proxies office conversions to the external conversion
// service.
type ConvertHandler struct {
	converter domain.ConvertService
	logger    domain.Logger
}

func NewConvertHandler(converter domain.ConvertService, logger domain.Logger) *ConvertHandler {
	return &ConvertHandler{converter: converter, logger: logger}
}

// PDFToDocx converts the uploaded "file". Upstream answers without a file
// are a 502 carrying the upstream answer as details; any other failure is a
// 500.
func (h *ConvertHandler) PDFToDocx(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	out, err := h.converter.PDFToDocx(r.Context(), file)
	if err != nil {
		respondError(w, h.logger, convertError(err))
		return
	}
	writeFile(w, out)
}

// convertError keeps the mapped status of unfinished conversions, bad input
// and abandoned requests; anything else is a 500 carrying the failure.
func convertError(err error) error {
	var unfinished *domain.UnfinishedConversionError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &unfinished), errors.As(err, &validation), errors.Is(err, context.Canceled):
		return err
	}
	return apperrors.NewInternalError("convert failed", err).WithDetails(err.Error())
}
