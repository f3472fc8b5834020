package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
	"pdf-suite-server/internal/pagerange"
	apperrors "pdf-suite-server/pkg/errors"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

var errFileRequired = apperrors.NewValidationError("file required")

// writeJSON writes data as a JSON response.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeErrorDetails(w http.ResponseWriter, statusCode int, message string, details interface{}) {
	writeJSON(w, statusCode, map[string]interface{}{"error": message, "details": details})
}

// writeFile sends a generated file as an attachment. Output.Meta goes out as
// headers.
func writeFile(w http.ResponseWriter, out *domain.Output) {
	for k, v := range out.Meta {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

// respondError maps err to a status code and writes it. Upstream failures
// are logged as warnings, other server-side failures as errors and
// everything else at debug level.
func respondError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := toAppError(err)
	status, message := apperrors.GetStatusCode(appErr), apperrors.GetMessage(appErr)
	switch {
	case apperrors.IsType(appErr, apperrors.ErrorTypeUpstream):
		logger.Warn("Upstream answer unusable", "status", status, "error", err.Error())
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed", err, "status", status)
	default:
		logger.Debug("Request rejected", "status", status, "error", err.Error())
	}
	if appErr.Details != nil {
		writeErrorDetails(w, status, message, appErr.Details)
		return
	}
	writeError(w, status, message)
}

// toAppError classifies domain errors into HTTP-facing application errors.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return apperrors.NewValidationError(validation.Error())
	}
	var unfinished *domain.UnfinishedConversionError
	if errors.As(err, &unfinished) {
		return apperrors.NewUpstreamError("conversion not finished", unfinished.Details, err)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    fmt.Sprintf("request body larger than %d bytes", tooLarge.Limit),
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrViewerClosed):
		return apperrors.NewNotFoundError("session not found")
	case errors.Is(err, domain.ErrPageOutOfRange),
		errors.Is(err, domain.ErrNothingSelected),
		errors.Is(err, domain.ErrNoPagesLeft),
		errors.Is(err, geometry.ErrInvalidFrame),
		errors.Is(err, pagerange.ErrUnknownOrder),
		errors.Is(err, pagerange.ErrUnknownPosition):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, domain.ErrEncryptedPDF):
		return apperrors.NewProcessingError("pdf is password protected", err)
	case errors.Is(err, domain.ErrInvalidPDF):
		return apperrors.NewProcessingError("could not read pdf", err)
	case errors.Is(err, domain.ErrUnsupportedImage):
		return apperrors.NewProcessingError("unsupported image", err)
	case errors.Is(err, domain.ErrRenderSuperseded):
		return apperrors.NewConflictError("render superseded", err)
	case errors.Is(err, domain.ErrRenderCancelled):
		return apperrors.NewConflictError("render cancelled", err)
	case errors.Is(err, geometry.ErrStaleFrame):
		return apperrors.NewConflictError("stale render frame", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewNetworkError("timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewCancelledError(err)
	}
	return apperrors.NewInternalError("internal server error", err)
}

// parseForm reads a multipart body.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperrors.NewValidationError("expected a multipart form", err.Error())
	}
	return nil
}

// formFile reads one uploaded file. A missing field is errFileRequired.
func formFile(r *http.Request, field string) (domain.NamedFile, error) {
	if err := parseForm(r); err != nil {
		return domain.NamedFile{}, err
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return domain.NamedFile{}, errFileRequired
	}
	return readPart(headers[0])
}

// formFiles reads every file uploaded under field, in upload order.
func formFiles(r *http.Request, field string) ([]domain.NamedFile, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, errFileRequired
	}
	files := make([]domain.NamedFile, 0, len(headers))
	for _, h := range headers {
		f, err := readPart(h)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readPart(h *multipart.FileHeader) (domain.NamedFile, error) {
	f, err := h.Open()
	if err != nil {
		return domain.NamedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.NamedFile{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return domain.NamedFile{}, errFileRequired
	}
	return domain.NamedFile{Name: cleanName(h.Filename), Data: data}, nil
}

// cleanName strips any path components from an uploaded file name.
func cleanName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}

// formJSON decodes a JSON-encoded form value into v. An empty value leaves v
// untouched.
func formJSON(r *http.Request, field string, v interface{}) error {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return apperrors.NewValidationError("invalid "+field, err.Error())
	}
	return nil
}

// formFloat parses an optional numeric value; empty means zero.
func formFloat(value, field string) (float64, error) {
	f, err := formOptionalFloat(value, field)
	if err != nil || f == nil {
		return 0, err
	}
	return *f, nil
}

// formOptionalFloat parses a numeric value that may be absent; empty means
// nil, so an explicit 0 stays distinguishable.
func formOptionalFloat(value, field string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+field, err.Error())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperrors.NewValidationError("invalid "+field, "must be a finite number")
	}
	return &f, nil
}

// formInt parses an optional integer; empty means zero.
func formInt(value, field string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+field, err.Error())
	}
	return n, nil
}

func formBool(value string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(value))
	return b
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperrors.NewValidationError("invalid JSON body", err.Error())
	}
	return nil
}
