package pagerange

import (
	"errors"
	"fmt"
	"sort"
)

var ErrCutOutOfDomain = errors.New("cut point out of range")

// CutSet holds the interactive "split after page n" choices for one
// document. Valid cuts are 1..total-1. The zero value is not usable; call
// NewCutSet.
type CutSet struct {
	total int
	cuts  map[int]struct{}
}

// NewCutSet returns an empty cut set for a document of total pages.
func NewCutSet(total int) *CutSet {
	mustTotal(total)
	return &CutSet{total: total, cuts: make(map[int]struct{})}
}

// Total is the page count the set was built for.
func (c *CutSet) Total() int {
	return c.total
}

// Toggle flips the cut after page and reports whether it is now present.
func (c *CutSet) Toggle(page int) (bool, error) {
	if page < 1 || page > c.total-1 {
		return false, fmt.Errorf("%w: %d not in 1..%d", ErrCutOutOfDomain, page, c.total-1)
	}
	if _, ok := c.cuts[page]; ok {
		delete(c.cuts, page)
		return false, nil
	}
	c.cuts[page] = struct{}{}
	return true, nil
}

func (c *CutSet) Has(page int) bool {
	_, ok := c.cuts[page]
	return ok
}

func (c *CutSet) Len() int {
	return len(c.cuts)
}

// SplitEveryPage selects every valid cut.
func (c *CutSet) SplitEveryPage() {
	for _, p := range EveryPage(c.total) {
		c.cuts[p] = struct{}{}
	}
}

// Clear removes all cuts.
func (c *CutSet) Clear() {
	clear(c.cuts)
}

// Reset clears the set for a newly loaded document.
func (c *CutSet) Reset(total int) {
	mustTotal(total)
	c.total = total
	clear(c.cuts)
}

// Sorted lists the cuts in ascending order.
func (c *CutSet) Sorted() []int {
	out := make([]int, 0, len(c.cuts))
	for p := range c.cuts {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Ranges returns the output segments the current cuts produce.
func (c *CutSet) Ranges() []PageRange {
	return RangesFromCuts(c.Sorted(), c.total)
}
