package pagerange

import (
	"sort"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds a single "a-b" token. Larger spans are treated as
// malformed so that a typed spec cannot allocate without limit.
const MaxRangeSpan = 1 << 16

// PageSet is an unordered set of page numbers.
type PageSet map[int]struct{}

// NewPageSet builds a set from pages.
func NewPageSet(pages ...int) PageSet {
	s := make(PageSet, len(pages))
	for _, p := range pages {
		s[p] = struct{}{}
	}
	return s
}

func (s PageSet) Contains(page int) bool {
	_, ok := s[page]
	return ok
}

// Sorted lists the set in ascending order.
func (s PageSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Within returns the pages of s that exist in a document of total pages.
func (s PageSet) Within(total int) PageSet {
	out := make(PageSet, len(s))
	for p := range s {
		if p >= 1 && p <= total {
			out[p] = struct{}{}
		}
	}
	return out
}

// ParsePageSpec parses a typed page list such as "1,3,5-8".
//
// Tokens are separated by commas; each is a non-negative integer or an
// "a-b" range in either order. Tokens that do not parse are skipped. The
// result is not checked against a page count; use Within for that.
func ParsePageSpec(text string) PageSet {
	return NewPageSet(ParsePageList(text)...)
}

// ParsePageList is ParsePageSpec keeping the order in which pages were
// written. Ranges expand ascending and repeats are kept.
func ParsePageList(text string) []int {
	var out []int
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !strings.Contains(tok, "-") {
			if n, ok := parsePage(tok); ok {
				out = append(out, n)
			}
			continue
		}

		parts := strings.Split(tok, "-")
		if len(parts) != 2 {
			continue
		}
		a, okA := parsePage(parts[0])
		b, okB := parsePage(parts[1])
		if !okA || !okB {
			continue
		}
		lo, hi := min(a, b), max(a, b)
		if hi-lo >= MaxRangeSpan {
			continue
		}
		for p := lo; p <= hi; p++ {
			out = append(out, p)
		}
	}
	return out
}

func parsePage(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
