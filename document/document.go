// Package document provides the text model that diagnostics are anchored to:
// a document's content, its line structure and character regions within it.
package document

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is an immutable snapshot of a text document at one revision.
type Document struct {
	uri     string
	version int
	text    string

	// lineStarts holds the byte offset at which each line begins.
	lineStarts []int
}

// New creates a document snapshot for the given uri and text.
func New(uri string, version int, text string) *Document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{
		uri:        uri,
		version:    version,
		text:       text,
		lineStarts: starts,
	}
}

// URI returns the identifier of the document.
func (d *Document) URI() string { return d.uri }

// Version returns the revision number of the snapshot.
func (d *Document) Version() int { return d.version }

// Text returns the full content.
func (d *Document) Text() string { return d.text }

// Len returns the length of the content in bytes.
func (d *Document) Len() int { return len(d.text) }

// LineCount returns the number of lines. A trailing newline starts an
// additional, empty, line.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// LineOf returns the zero-based line containing offset. Offsets are clamped
// to the document bounds.
func (d *Document) LineOf(offset int) int {
	offset = d.clamp(offset)
	// first line start strictly greater than offset, minus one
	return sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
}

// LineStart returns the offset at which the zero-based line begins.
func (d *Document) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(d.lineStarts) {
		return len(d.text)
	}
	return d.lineStarts[line]
}

// LineEnd returns the offset of the end of the zero-based line, excluding
// the line terminator.
func (d *Document) LineEnd(line int) int {
	if line+1 < len(d.lineStarts) {
		end := d.lineStarts[line+1] - 1
		if end > 0 && d.text[end-1] == '\r' {
			end--
		}
		return end
	}
	return len(d.text)
}

// LineText returns the text of the zero-based line without its terminator.
func (d *Document) LineText(line int) string {
	return d.text[d.LineStart(line):d.LineEnd(line)]
}

// Position returns the zero-based line and rune column of offset.
func (d *Document) Position(offset int) (line, column int) {
	offset = d.clamp(offset)
	line = d.LineOf(offset)
	column = utf8.RuneCountInString(d.text[d.lineStarts[line]:offset])
	return line, column
}

// OffsetAt converts a zero-based line and rune column into a byte offset.
// Columns past the end of the line are clamped to the line end.
func (d *Document) OffsetAt(line, column int) int {
	if line >= len(d.lineStarts) {
		return len(d.text)
	}
	offset := d.LineStart(line)
	end := d.LineEnd(line)
	for column > 0 && offset < end {
		_, size := utf8.DecodeRuneInString(d.text[offset:])
		offset += size
		column--
	}
	return offset
}

// Slice returns the text between start and end, clamped to the document.
func (d *Document) Slice(start, end int) string {
	start, end = d.clamp(start), d.clamp(end)
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// Indentation returns the number of leading spaces on the line containing
// offset.
func (d *Document) Indentation(offset int) int {
	line := d.LineText(d.LineOf(offset))
	return len(line) - len(strings.TrimLeft(line, " "))
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}

// Region is a half-open byte range [Start,End) in a document.
type Region struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// RegionOf builds a region, swapping bounds given in the wrong order.
func RegionOf(start, end int) Region {
	if end < start {
		start, end = end, start
	}
	return Region{Start: start, End: end}
}

// Len returns the length of the region.
func (r Region) Len() int { return r.End - r.Start }

// IsEmpty reports whether the region covers no characters.
func (r Region) IsEmpty() bool { return r.End <= r.Start }

// Contains reports whether offset lies within the region. The end offset is
// considered contained so that a cursor placed right after a token matches.
func (r Region) Contains(offset int) bool {
	return r.Start <= offset && offset <= r.End
}

// Clamp restricts r to lie within outer.
func (r Region) Clamp(outer Region) Region {
	if r.Start < outer.Start {
		r.Start = outer.Start
	}
	if r.End > outer.End {
		r.End = outer.End
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// TrimEnd shrinks the region so that it does not end in whitespace.
func (d *Document) TrimEnd(r Region) Region {
	r = r.Clamp(Region{Start: 0, End: len(d.text)})
	for r.End > r.Start {
		switch d.text[r.End-1] {
		case ' ', '\t', '\n', '\r':
			r.End--
			continue
		}
		break
	}
	return r
}

// Whole returns the region spanning the entire document.
func (d *Document) Whole() Region {
	return Region{Start: 0, End: len(d.text)}
}

// EndRegion returns the empty region located at the end of the document.
func (d *Document) EndRegion() Region {
	return Region{Start: len(d.text), End: len(d.text)}
}

// Visible returns r unchanged unless it is empty. An empty region is widened
// to the character at its start, or, at a line end, to the last non-blank
// line before it. A document without content yields Whole.
func (d *Document) Visible(r Region) Region {
	if !r.IsEmpty() {
		return r
	}
	start := d.clamp(r.Start)
	if start < len(d.text) && d.text[start] != '\n' && d.text[start] != '\r' {
		_, size := utf8.DecodeRuneInString(d.text[start:])
		return Region{Start: start, End: start + size}
	}
	before := d.TrimEnd(Region{Start: 0, End: start})
	if before.IsEmpty() {
		return d.Whole()
	}
	line := d.LineOf(before.End - 1)
	lineStart := d.LineStart(line)
	return Region{Start: lineStart + d.Indentation(lineStart), End: before.End}
}
