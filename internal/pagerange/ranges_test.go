package pagerange

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangesFromCuts(t *testing.T) {
	tests := []struct {
		name  string
		cuts  []int
		total int
		want  []PageRange
	}{
		{
			name:  "split scenario",
			cuts:  []int{2, 4},
			total: 6,
			want:  []PageRange{{1, 2}, {3, 4}, {5, 6}},
		},
		{
			name:  "no cuts",
			cuts:  nil,
			total: 9,
			want:  []PageRange{{1, 9}},
		},
		{
			name:  "single page ignores cuts",
			cuts:  []int{0, 1, 2},
			total: 1,
			want:  []PageRange{{1, 1}},
		},
		{
			name:  "unsorted with duplicates",
			cuts:  []int{4, 1, 4, 1},
			total: 5,
			want:  []PageRange{{1, 1}, {2, 4}, {5, 5}},
		},
		{
			name:  "out of domain cuts are dropped",
			cuts:  []int{-3, 0, 5, 6, 100, 3},
			total: 5,
			want:  []PageRange{{1, 3}, {4, 5}},
		},
		{
			name:  "every page",
			cuts:  EveryPage(4),
			total: 4,
			want:  []PageRange{{1, 1}, {2, 2}, {3, 3}, {4, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangesFromCuts(tt.cuts, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("RangesFromCuts(%v, %d) mismatch (-want +got):\n%s", tt.cuts, tt.total, diff)
			}
		})
	}
}

// Every subset of valid cuts for small documents must partition 1..total.
func TestRangesFromCuts_Partition(t *testing.T) {
	for total := 1; total <= 9; total++ {
		interior := total - 1
		for mask := 0; mask < 1<<interior; mask++ {
			var cuts []int
			for bit := 0; bit < interior; bit++ {
				if mask&(1<<bit) != 0 {
					cuts = append(cuts, bit+1)
				}
			}

			ranges := RangesFromCuts(cuts, total)

			require.Len(t, ranges, len(cuts)+1)
			require.Equal(t, 1, ranges[0].Start)
			require.Equal(t, total, ranges[len(ranges)-1].End)
			covered := 0
			for i, r := range ranges {
				require.LessOrEqual(t, r.Start, r.End)
				if i > 0 {
					require.Equal(t, ranges[i-1].End+1, r.Start)
				}
				covered += r.Len()
			}
			require.Equal(t, total, covered)
		}
	}
}

func TestRangesFromCuts_PanicsOnEmptyDocument(t *testing.T) {
	assert.Panics(t, func() { RangesFromCuts(nil, 0) })
	assert.Panics(t, func() { PagesToRemove(nil, -1) })
}

func TestPagesToRemove(t *testing.T) {
	tests := []struct {
		name      string
		selection []int
		total     int
		want      []int
	}{
		{name: "deletion complement", selection: []int{2, 4, 6}, total: 10, want: []int{1, 3, 5, 7, 8, 9, 10}},
		{name: "nothing selected", selection: nil, total: 3, want: []int{1, 2, 3}},
		{name: "out of range ignored", selection: []int{0, 4, 99, -1}, total: 4, want: []int{1, 2, 3}},
		{name: "duplicates count once", selection: []int{2, 2, 2}, total: 3, want: []int{1, 3}},
		{name: "everything removed", selection: []int{1, 2}, total: 2, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PagesToRemove(tt.selection, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("PagesToRemove mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPageRange_String(t *testing.T) {
	assert.Equal(t, "3", PageRange{Start: 3, End: 3}.String())
	assert.Equal(t, "3-7", PageRange{Start: 3, End: 7}.String())
	assert.Equal(t, []int{3, 4, 5}, PageRange{Start: 3, End: 5}.Pages())
}
