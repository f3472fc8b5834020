package pagerange

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownOrder    = errors.New("unknown page order")
	ErrUnknownPosition = errors.New("unknown insert position")
)

// Order says how a tool lays out the pages it extracts.
type Order int

const (
	// DocumentOrder sorts the pages ascending.
	DocumentOrder Order = iota
	// SelectionOrder keeps the order in which pages were picked.
	SelectionOrder
)

// ParseOrder accepts "document" (also the empty string) and "selection".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "document":
		return DocumentOrder, nil
	case "selection":
		return SelectionOrder, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

func (o Order) String() string {
	if o == SelectionOrder {
		return "selection"
	}
	return "document"
}

// Resolve turns picked pages into the list to copy. Pages outside 1..total
// and repeated picks are dropped; the first pick of a page wins.
func Resolve(picked []int, total int, order Order) []int {
	mustTotal(total)

	seen := make(map[int]struct{}, len(picked))
	out := make([]int, 0, len(picked))
	for _, p := range picked {
		if p < 1 || p > total {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if order == DocumentOrder {
		sort.Ints(out)
	}
	return out
}

// Position is where inserted pages go in the base document.
type Position int

const (
	AtEnd Position = iota
	AtStart
	AfterPage
)

// ParsePosition accepts "start", "end" (also empty) and "after".
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "end":
		return AtEnd, nil
	case "start":
		return AtStart, nil
	case "after":
		return AfterPage, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}

// InsertPlan splits the base document around the insertion point.
type InsertPlan struct {
	Head []int
	Tail []int
}

// PlanInsert computes which base pages precede and follow inserted pages.
// For AfterPage, after is clamped into 1..total.
func PlanInsert(pos Position, after, total int) InsertPlan {
	mustTotal(total)

	var split int
	switch pos {
	case AtStart:
		split = 0
	case AfterPage:
		split = min(max(after, 1), total)
	default:
		split = total
	}

	all := PageRange{Start: 1, End: total}.Pages()
	return InsertPlan{Head: all[:split], Tail: all[split:]}
}

// FormatPages renders pages the way page-selection strings are written,
// collapsing runs: [1 2 3 7] -> "1-3,7".
func FormatPages(pages []int) string {
	var parts []string
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		parts = append(parts, PageRange{Start: pages[i], End: pages[j]}.String())
		i = j + 1
	}
	return strings.Join(parts, ",")
}
