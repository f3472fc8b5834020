package service

import (
	"context"
	"path/filepath"
	"strings"

	"pdf-suite-server/internal/domain"
)

type ConvertService struct {
	converter domain.Converter
	logger    domain.Logger
}

func NewConvertService(converter domain.Converter, logger domain.Logger) *ConvertService {
	return &ConvertService{converter: converter, logger: logger}
}

// PDFToDocx converts file and names the result after it: report.pdf
// becomes report.docx.
func (s *ConvertService) PDFToDocx(ctx context.Context, file domain.NamedFile) (*domain.Output, error) {
	if len(file.Data) == 0 {
		return nil, &domain.ValidationError{Field: "file", Message: "file required"}
	}
	title := docxTitle(file.Name)

	s.logger.Info("Converting to docx", "name", file.Name, "bytes", len(file.Data))
	out, err := s.converter.PDFToDocx(ctx, title, file.Data)
	if err != nil {
		return nil, err
	}
	return &domain.Output{Name: title, ContentType: contentTypeDocx, Data: out}, nil
}

func docxTitle(name string) string {
	base := strings.TrimSpace(filepath.Base(name))
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	return base + ".docx"
}
