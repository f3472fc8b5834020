package domain

import (
	"errors"
	"testing"
	"time"

	"pdf-suite-server/internal/pagerange"
)

// TestParseHexColor covers accepted spellings and rejected input.
func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    RGB
		hex     string
		wantErr bool
	}{
		{name: "with hash", in: "#ffeb3b", want: RGB{R: 0xff, G: 0xeb, B: 0x3b}, hex: "#ffeb3b"},
		{name: "without hash", in: "00ff00", want: RGB{G: 0xff}, hex: "#00ff00"},
		{name: "upper case", in: "#ABCDEF", want: RGB{R: 0xab, G: 0xcd, B: 0xef}, hex: "#abcdef"},
		{name: "short form", in: "#fff", wantErr: true},
		{name: "not hex", in: "#gggggg", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != "color" {
					t.Fatalf("expected field color, got %q", verr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if got.Hex() != tt.hex {
				t.Fatalf("expected hex %s, got %s", tt.hex, got.Hex())
			}
		})
	}
}

func TestDocumentInfo_Page(t *testing.T) {
	info := DocumentInfo{PageCount: 2, Pages: []PageSize{{612, 792}, {842, 595}}}

	got, err := info.Page(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WidthPt != 842 || got.HeightPt != 595 {
		t.Fatalf("unexpected page size %+v", got)
	}

	for _, p := range []int{0, 3} {
		if _, err := info.Page(p); !errors.Is(err, ErrPageOutOfRange) {
			t.Fatalf("page %d: expected ErrPageOutOfRange, got %v", p, err)
		}
	}
}

func TestSession_IdleAndCuts(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("id", "a.pdf", []byte("%PDF"), DocumentInfo{PageCount: 4, Pages: make([]PageSize, 4)}, nil, start)

	if s.IdleSince(start) {
		t.Fatalf("session must not be idle at its own start time")
	}
	if !s.IdleSince(start.Add(time.Minute)) {
		t.Fatalf("session should be idle before a later cutoff")
	}
	s.Touch(start.Add(2 * time.Minute))
	if s.IdleSince(start.Add(time.Minute)) {
		t.Fatalf("touch should refresh the session")
	}

	var ranges []pagerange.PageRange
	err := s.WithCuts(func(c *pagerange.CutSet) error {
		if _, err := c.Toggle(2); err != nil {
			return err
		}
		ranges = c.Ranges()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 2 || ranges[0].End != 2 || ranges[1].Start != 3 {
		t.Fatalf("unexpected ranges %v", ranges)
	}
}
