package yschema

import "fmt"

// Range is an inclusive range of document counts. A negative Max means no
// upper bound.
type Range struct {
	Min int
	Max int
}

// Exactly returns the range holding only n.
func Exactly(n int) Range { return Range{Min: n, Max: n} }

// AtLeast returns the range [n, unbounded).
func AtLeast(n int) Range { return Range{Min: n, Max: -1} }

// Between returns the range [lo, hi].
func Between(lo, hi int) Range { return Range{Min: lo, Max: hi} }

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool { return !r.TooSmall(n) && !r.TooLarge(n) }

// TooSmall reports whether n is below the range.
func (r Range) TooSmall(n int) bool { return n < r.Min }

// TooLarge reports whether n is above the range.
func (r Range) TooLarge(n int) bool { return r.Max >= 0 && n > r.Max }

func (r Range) String() string {
	if r.Max < 0 {
		return fmt.Sprintf("[%d,...]", r.Min)
	}
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Schema describes the expected content of a YAML file.
type Schema struct {
	// Name is used in messages about the file as a whole.
	Name string
	// TopLevelType is the type of every document in the file.
	TopLevelType YType
	// Documents is the expected number of documents.
	Documents Range
	// Interpreter interprets the types. When nil the reconciler uses a
	// default Interpreter.
	Interpreter TypeInterpreter
}

// NewSchema creates a schema expecting exactly one document.
func NewSchema(name string, top YType) *Schema {
	return &Schema{Name: name, TopLevelType: top, Documents: Exactly(1)}
}
