// Package pagerange turns cut points and page selections into the page lists
// that drive page copy operations. Page numbers are 1-based throughout.
//
// Out-of-domain user input (a cut after the last page, a page beyond the
// document) is dropped silently. A total page count below one is a caller
// bug and panics.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
)

// PageRange is an inclusive, contiguous span of pages.
type PageRange struct {
	Start int `json:"start_page"`
	End   int `json:"end_page"`
}

// Len returns the number of pages in r.
func (r PageRange) Len() int {
	return r.End - r.Start + 1
}

// Pages lists the page numbers of r in ascending order.
func (r PageRange) Pages() []int {
	out := make([]int, 0, r.Len())
	for p := r.Start; p <= r.End; p++ {
		out = append(out, p)
	}
	return out
}

func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// RangesFromCuts partitions 1..total into ranges, starting a new range after
// every cut. Cuts outside 1..total-1 and duplicates are ignored.
func RangesFromCuts(cuts []int, total int) []PageRange {
	mustTotal(total)

	valid := make([]int, 0, len(cuts))
	for _, c := range cuts {
		if c >= 1 && c <= total-1 {
			valid = append(valid, c)
		}
	}
	sort.Ints(valid)

	ranges := make([]PageRange, 0, len(valid)+1)
	start := 1
	for _, c := range valid {
		if c < start {
			// duplicate
			continue
		}
		ranges = append(ranges, PageRange{Start: start, End: c})
		start = c + 1
	}
	return append(ranges, PageRange{Start: start, End: total})
}

// EveryPage returns the cuts that split a document into single pages.
func EveryPage(total int) []int {
	mustTotal(total)
	cuts := make([]int, 0, total-1)
	for p := 1; p < total; p++ {
		cuts = append(cuts, p)
	}
	return cuts
}

// PagesToRemove returns the pages that remain, ascending, after removing the
// selected pages. Selected pages outside 1..total are ignored.
func PagesToRemove(selection []int, total int) []int {
	mustTotal(total)

	drop := make(map[int]struct{}, len(selection))
	for _, p := range selection {
		drop[p] = struct{}{}
	}
	keep := make([]int, 0, total)
	for p := 1; p <= total; p++ {
		if _, ok := drop[p]; !ok {
			keep = append(keep, p)
		}
	}
	return keep
}

func mustTotal(total int) {
	if total < 1 {
		panic(fmt.Sprintf("pagerange: total pages %d, need at least 1", total))
	}
}
