// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"pdf-suite-server/internal/domain"
	"pdf-suite-server/internal/geometry"
	"pdf-suite-server/internal/pagerange"
)

// ToolHandler serves the one-shot document tools. Every tool takes a
// multipart form and answers with the generated file.
type ToolHandler struct {
	tools       domain.ToolService
	annotations domain.AnnotationService
	logger      domain.Logger
}

func NewToolHandler(tools domain.ToolService, annotations domain.AnnotationService, logger domain.Logger) *ToolHandler {
	return &ToolHandler{
		tools:       tools,
		annotations: annotations,
		logger:      logger,
	}
}

// Info returns the page count and page sizes.
func (h *ToolHandler) Info(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	info, err := h.tools.Info(file.Data)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ToolHandler) Merge(w http.ResponseWriter, r *http.Request) {
	files, err := formFiles(r, "files")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Merge(files))
}

// Split takes cuts as a page list ("2,5") or every_page=true.
func (h *ToolHandler) Split(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	cuts := pagerange.ParsePageList(r.FormValue("cuts"))
	h.respond(w)(h.tools.Split(file, cuts, formBool(r.FormValue("every_page"))))
}

// Extract copies the pages of the "pages" spec, in "document" (default) or
// "selection" order.
func (h *ToolHandler) Extract(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	order, err := pagerange.ParseOrder(r.FormValue("order"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Extract(file, r.FormValue("pages"), order))
}

func (h *ToolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Delete(file, r.FormValue("pages")))
}

// Insert adds the pages of "insert" to "file". Position is "start", "end",
// "after" with an "after" field, or "after:N".
func (h *ToolHandler) Insert(w http.ResponseWriter, r *http.Request) {
	base, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	insert, err := formFile(r, "insert")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	position, afterValue := r.FormValue("position"), r.FormValue("after")
	if p, n, ok := strings.Cut(position, ":"); ok {
		position, afterValue = p, n
	}
	pos, err := pagerange.ParsePosition(position)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	after, err := formInt(afterValue, "after")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Insert(base, insert, pos, after))
}

func (h *ToolHandler) Watermark(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	opts := domain.WatermarkOptions{
		Text:  r.FormValue("text"),
		Color: r.FormValue("color"),
	}
	for field, dst := range map[string]**float64{
		"opacity":   &opts.Opacity,
		"font_size": &opts.FontSize,
		"rotation":  &opts.Rotation,
	} {
		if *dst, err = formOptionalFloat(r.FormValue(field), field); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}
	h.respond(w)(h.tools.Watermark(file, opts))
}

// Compress shrinks every uploaded "files" entry (or a single "file") at the
// "level" low, medium (default) or high. Sizes and the method used come
// back in headers.
func (h *ToolHandler) Compress(w http.ResponseWriter, r *http.Request) {
	files, err := pdfFiles(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	level, err := domain.ParseCompressionLevel(strings.TrimSpace(r.FormValue("level")))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Compress(r.Context(), files, level))
}

// Search answers with the pages on which "query" occurs.
func (h *ToolHandler) Search(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	result, err := h.tools.Search(r.Context(), file, r.FormValue("query"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Compare takes exactly two "files" and answers with the pages whose text
// differs.
func (h *ToolHandler) Compare(w http.ResponseWriter, r *http.Request) {
	files, err := formFiles(r, "files")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(files) != 2 {
		respondError(w, h.logger, &domain.ValidationError{Field: "files", Message: "exactly two PDFs are required"})
		return
	}
	result, err := h.tools.Compare(r.Context(), files[0], files[1])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Metadata sets title, author, subject and comma separated keywords on
// every uploaded file.
func (h *ToolHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	files, err := pdfFiles(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	meta := domain.DocumentMetadata{
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		Subject:  r.FormValue("subject"),
		Keywords: r.FormValue("keywords"),
	}
	h.respond(w)(h.tools.SetMetadata(files, meta))
}

func (h *ToolHandler) Flatten(w http.ResponseWriter, r *http.Request) {
	files, err := pdfFiles(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Flatten(r.Context(), files))
}

func (h *ToolHandler) Batch(w http.ResponseWriter, r *http.Request) {
	files, err := pdfFiles(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.Batch(files))
}

func (h *ToolHandler) ImagesToPDF(w http.ResponseWriter, r *http.Request) {
	images, err := formFiles(r, "images")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.ImagesToPDF(images))
}

// TextToPDF takes either a "text" field or an uploaded text "file".
func (h *ToolHandler) TextToPDF(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		respondError(w, h.logger, err)
		return
	}
	name, text := "text.txt", r.FormValue("text")
	if text == "" {
		file, err := formFile(r, "file")
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		name, text = file.Name, string(file.Data)
	}
	h.respond(w)(h.tools.TextToPDF(name, text))
}

func (h *ToolHandler) PDFToImages(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	dpi, err := formFloat(r.FormValue("dpi"), "dpi")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.tools.PDFToImages(r.Context(), file, dpi))
}

// Highlight takes a JSON "highlights" field: [{placement, color, opacity}].
func (h *ToolHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var highlights []domain.Highlight
	if err := formJSON(r, "highlights", &highlights); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.annotations.Highlight(file, highlights))
}

// Sign takes a "signature" image and a JSON "placements" field.
func (h *ToolHandler) Sign(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	image, err := formFile(r, "signature")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var placements []geometry.Placement
	if err := formJSON(r, "placements", &placements); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.annotations.Sign(file, domain.Signature{Image: image.Data, Placements: placements}))
}

// FillText takes a JSON "fields" field: [{frame, at, text, size, color}].
func (h *ToolHandler) FillText(w http.ResponseWriter, r *http.Request) {
	file, err := formFile(r, "file")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var fields []domain.TextField
	if err := formJSON(r, "fields", &fields); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respond(w)(h.annotations.FillText(file, fields))
}

// pdfFiles reads the "files" uploads, or a single "file" when there are none.
func pdfFiles(r *http.Request) ([]domain.NamedFile, error) {
	files, err := formFiles(r, "files")
	if errors.Is(err, errFileRequired) {
		file, err := formFile(r, "file")
		if err != nil {
			return nil, err
		}
		return []domain.NamedFile{file}, nil
	}
	return files, err
}

// respond writes a tool result or its error.
func (h *ToolHandler) respond(w http.ResponseWriter) func(*domain.Output, error) {
	return func(out *domain.Output, err error) {
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeFile(w, out)
	}
}
