package document

import (
	"testing"
)

func TestPositionAndOffset(t *testing.T) {
	doc := New("mem://a.yml", 1, "name: foo\nlabel: héllo\n  x: 1\n")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 0, 0},
		{6, 0, 6},
		{10, 1, 0},
		{17, 1, 7},
		{20, 1, 9}, // 'l' after the two-byte é
		{24, 2, 0},
	}
	for _, tt := range tests {
		line, col := doc.Position(tt.offset)
		if line != tt.line || col != tt.column {
			t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", tt.offset, line, col, tt.line, tt.column)
		}
		if got := doc.OffsetAt(tt.line, tt.column); got != tt.offset {
			t.Errorf("OffsetAt(%d,%d) = %d, want %d", tt.line, tt.column, got, tt.offset)
		}
	}
}

func TestLineText(t *testing.T) {
	doc := New("mem://a.yml", 1, "a: 1\r\nb: 2\n")
	if got := doc.LineText(0); got != "a: 1" {
		t.Errorf("LineText(0) = %q", got)
	}
	if got := doc.LineText(1); got != "b: 2" {
		t.Errorf("LineText(1) = %q", got)
	}
	if doc.LineCount() != 3 {
		t.Errorf("LineCount = %d, want 3", doc.LineCount())
	}
}

func TestRegionClampAndTrim(t *testing.T) {
	doc := New("mem://a.yml", 1, "a: 1\n---  \n")
	r := doc.TrimEnd(Region{Start: 0, End: doc.Len()})
	if got := doc.Slice(r.Start, r.End); got != "a: 1\n---" {
		t.Errorf("TrimEnd gave %q", got)
	}

	clamped := Region{Start: 2, End: 40}.Clamp(Region{Start: 4, End: 10})
	if clamped != (Region{Start: 4, End: 10}) {
		t.Errorf("Clamp gave %v", clamped)
	}
	if RegionOf(5, 2) != (Region{Start: 2, End: 5}) {
		t.Error("RegionOf should order bounds")
	}
}

func TestIndentation(t *testing.T) {
	doc := New("mem://a.yml", 1, "root:\n    child: 1\n")
	if got := doc.Indentation(12); got != 4 {
		t.Errorf("Indentation = %d, want 4", got)
	}
}

func TestVisible(t *testing.T) {
	doc := New("mem://a.yml", 1, "a: 1\n  b: é\n\n")
	tests := []struct {
		in   Region
		want string
	}{
		{Region{Start: 0, End: 1}, "a"},
		{Region{Start: 3, End: 3}, "1"},
		{Region{Start: 10, End: 10}, "é"},
		{Region{Start: 4, End: 4}, "a: 1"},
		{Region{Start: 14, End: 14}, "b: é"},
	}
	for _, tt := range tests {
		got := doc.Visible(tt.in)
		if s := doc.Slice(got.Start, got.End); s != tt.want {
			t.Errorf("Visible(%v) = %q, want %q", tt.in, s, tt.want)
		}
	}

	blank := New("mem://b.yml", 1, "\n\n")
	if got := blank.Visible(blank.EndRegion()); got != blank.Whole() {
		t.Errorf("Visible on blank document = %v, want %v", got, blank.Whole())
	}
}
