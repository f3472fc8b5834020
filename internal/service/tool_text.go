package service

import (
	"context"
	"fmt"
	"strings"

	"pdf-suite-server/internal/domain"
)

// Search counts case-insensitive occurrences of query on every page. Runs
// of whitespace in the query and the page text compare equal.
func (s *ToolService) Search(ctx context.Context, file domain.NamedFile, query string) (*domain.SearchResult, error) {
	needle := normalizeText(query)
	if needle == "" {
		return nil, &domain.ValidationError{Field: "query", Message: "query is empty"}
	}

	texts, err := s.pageTexts(ctx, file.Data)
	if err != nil {
		return nil, err
	}
	result := &domain.SearchResult{Query: strings.TrimSpace(query), Pages: []int{}, Matches: []domain.PageMatches{}}
	for i, text := range texts {
		if n := strings.Count(normalizeText(text), needle); n > 0 {
			result.Pages = append(result.Pages, i+1)
			result.Matches = append(result.Matches, domain.PageMatches{Page: i + 1, Count: n})
			result.Total += n
		}
	}
	s.logger.Debug("Searched document", "name", file.Name, "pages", len(texts), "hits", result.Total)
	return result, nil
}

// Compare reports the pages whose text differs between a and b. A page that
// exists in only one of them differs.
func (s *ToolService) Compare(ctx context.Context, a, b domain.NamedFile) (*domain.Comparison, error) {
	textA, err := s.pageTexts(ctx, a.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name, err)
	}
	textB, err := s.pageTexts(ctx, b.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name, err)
	}

	result := &domain.Comparison{PageCountA: len(textA), PageCountB: len(textB), DifferentPages: []int{}}
	for page := 1; page <= max(len(textA), len(textB)); page++ {
		if page > len(textA) || page > len(textB) || normalizeText(textA[page-1]) != normalizeText(textB[page-1]) {
			result.DifferentPages = append(result.DifferentPages, page)
		}
	}
	result.Identical = len(result.DifferentPages) == 0
	return result, nil
}

func (s *ToolService) pageTexts(ctx context.Context, pdf []byte) ([]string, error) {
	info, err := s.engine.Info(pdf)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Open(pdf, info.Pages)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	texts := make([]string, doc.PageCount())
	for page := 1; page <= doc.PageCount(); page++ {
		if texts[page-1], err = doc.Text(ctx, page); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
