// Package yamlpath models structural paths into a YAML document tree.
//
// A path is a sequence of segments, each selecting either the value at a
// sequence index, the value at a mapping key or the key node itself. Paths are
// immutable; every operation returns a new path.
package yamlpath

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentType identifies what a segment selects.
type SegmentType int

const (
	// ValAtIndex selects the element at an index of a sequence, or the
	// document at an index of a multi-document file.
	ValAtIndex SegmentType = iota
	// ValAtKey selects the value associated with a mapping key.
	ValAtKey
	// KeyAtKey selects the key node of a mapping entry.
	KeyAtKey
)

func (t SegmentType) String() string {
	switch t {
	case ValAtIndex:
		return "VAL_AT_INDEX"
	case ValAtKey:
		return "VAL_AT_KEY"
	case KeyAtKey:
		return "KEY_AT_KEY"
	default:
		return "UNKNOWN"
	}
}

// Segment is one step of a Path.
type Segment struct {
	Type  SegmentType
	Index int
	Key   string
}

// ValueAt returns a segment selecting the element at index.
func ValueAt(index int) Segment {
	return Segment{Type: ValAtIndex, Index: index}
}

// ValueAtKey returns a segment selecting the value at key.
func ValueAtKey(key string) Segment {
	return Segment{Type: ValAtKey, Key: key}
}

// KeyAt returns a segment selecting the key node for key.
func KeyAt(key string) Segment {
	return Segment{Type: KeyAtKey, Key: key}
}

// Encode renders the segment as a single string that Decode understands.
func (s Segment) Encode() string {
	switch s.Type {
	case ValAtIndex:
		return "I" + strconv.Itoa(s.Index)
	case KeyAtKey:
		return "K" + s.Key
	default:
		return "V" + s.Key
	}
}

// DecodeSegment parses the output of Segment.Encode.
func DecodeSegment(encoded string) (Segment, error) {
	if encoded == "" {
		return Segment{}, fmt.Errorf("empty path segment")
	}
	payload := encoded[1:]
	switch encoded[0] {
	case 'I':
		i, err := strconv.Atoi(payload)
		if err != nil {
			return Segment{}, fmt.Errorf("invalid index segment %q: %w", encoded, err)
		}
		return ValueAt(i), nil
	case 'V':
		return ValueAtKey(payload), nil
	case 'K':
		return KeyAt(payload), nil
	default:
		return Segment{}, fmt.Errorf("unknown path segment type in %q", encoded)
	}
}

// ToPropString renders the segment as it appears at the start of a
// property-style path.
func (s Segment) ToPropString() string {
	if s.Type == ValAtIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// ToNavString renders the segment as a navigation step such as ".key" or
// "[3]".
func (s Segment) ToNavString() string {
	if s.Type == ValAtIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "." + s.Key
}

func (s Segment) String() string {
	switch s.Type {
	case ValAtIndex:
		return fmt.Sprintf("VAL_AT_INDEX(%d)", s.Index)
	default:
		return fmt.Sprintf("%s(%s)", s.Type, s.Key)
	}
}

// Path is an immutable sequence of segments.
type Path struct {
	segments []Segment
}

// Empty is the path with no segments.
var Empty = Path{}

// New builds a path from segments.
func New(segments ...Segment) Path {
	if len(segments) == 0 {
		return Empty
	}
	return Path{segments: append([]Segment(nil), segments...)}
}

// FromProperty splits a dotted property name into value-at-key segments.
func FromProperty(name string) Path {
	parts := strings.Split(name, ".")
	segments := make([]Segment, len(parts))
	for i, p := range parts {
		segments[i] = ValueAtKey(p)
	}
	return Path{segments: segments}
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool { return len(p.segments) == 0 }

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Segment returns the i'th segment and whether it exists.
func (p Path) Segment(i int) (Segment, bool) {
	if i < 0 || i >= len(p.segments) {
		return Segment{}, false
	}
	return p.segments[i], true
}

// Last returns the final segment and whether the path is non-empty.
func (p Path) Last() (Segment, bool) {
	return p.Segment(len(p.segments) - 1)
}

// Append returns a new path with s added at the end.
func (p Path) Append(s Segment) Path {
	segments := make([]Segment, len(p.segments)+1)
	copy(segments, p.segments)
	segments[len(p.segments)] = s
	return Path{segments: segments}
}

// Prepend returns a new path with s added at the start.
func (p Path) Prepend(s Segment) Path {
	segments := make([]Segment, 0, len(p.segments)+1)
	segments = append(segments, s)
	segments = append(segments, p.segments...)
	return Path{segments: segments}
}

// Then concatenates two paths.
func (p Path) Then(other Path) Path {
	if p.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return p
	}
	segments := make([]Segment, 0, len(p.segments)+len(other.segments))
	segments = append(segments, p.segments...)
	segments = append(segments, other.segments...)
	return Path{segments: segments}
}

// DropFirst removes n leading segments.
func (p Path) DropFirst(n int) Path {
	if n >= len(p.segments) {
		return Empty
	}
	if n <= 0 {
		return p
	}
	return Path{segments: p.segments[n:]}
}

// DropLast removes n trailing segments.
func (p Path) DropLast(n int) Path {
	if n >= len(p.segments) {
		return Empty
	}
	if n <= 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-n]}
}

// Tail drops the first segment.
func (p Path) Tail() Path { return p.DropFirst(1) }

// StartsWith reports whether prefix is a prefix of p.
func (p Path) StartsWith(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// CommonPrefix returns the longest prefix shared by p and other.
func (p Path) CommonPrefix(other Path) Path {
	n := 0
	for n < len(p.segments) && n < len(other.segments) && p.segments[n] == other.segments[n] {
		n++
	}
	return p.DropLast(len(p.segments) - n)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return len(p.segments) == len(other.segments) && p.StartsWith(other)
}

// PointsAtKey reports whether the path selects a key node.
func (p Path) PointsAtKey() bool {
	s, ok := p.Last()
	return ok && s.Type == KeyAtKey
}

// PointsAtValue reports whether the path selects a value node.
func (p Path) PointsAtValue() bool {
	s, ok := p.Last()
	return ok && (s.Type == ValAtKey || s.Type == ValAtIndex)
}

// BeanPropertyName interprets the last segment as a property name. It returns
// "" when the path does not end in a keyed segment.
func (p Path) BeanPropertyName() string {
	s, ok := p.Last()
	if ok && (s.Type == KeyAtKey || s.Type == ValAtKey) {
		return s.Key
	}
	return ""
}

// Encode renders the path as a list of strings, one per segment.
func (p Path) Encode() []string {
	encoded := make([]string, len(p.segments))
	for i, s := range p.segments {
		encoded[i] = s.Encode()
	}
	return encoded
}

// Decode parses the output of Path.Encode.
func Decode(encoded []string) (Path, error) {
	segments := make([]Segment, len(encoded))
	for i, e := range encoded {
		s, err := DecodeSegment(e)
		if err != nil {
			return Empty, fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = s
	}
	return New(segments...), nil
}

// ToPropString renders the path in dotted property notation, e.g. "a.b[0]".
func (p Path) ToPropString() string {
	var b strings.Builder
	for i, s := range p.segments {
		if i == 0 {
			b.WriteString(s.ToPropString())
		} else {
			b.WriteString(s.ToNavString())
		}
	}
	return b.String()
}

// ToNavString renders the path as a sequence of navigation steps, e.g.
// ".a.b[0]".
func (p Path) ToNavString() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteString(s.ToNavString())
	}
	return b.String()
}

func (p Path) String() string {
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		parts[i] = s.String()
	}
	return "YamlPath(" + strings.Join(parts, ", ") + ")"
}
