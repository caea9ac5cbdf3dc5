package yschema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/speakeasy-api/yschema/problem"
)

// ValueParser validates the text of a scalar.
type ValueParser interface {
	Parse(text string) (any, error)
}

// ValueParserFunc adapts a function to a ValueParser.
type ValueParserFunc func(text string) (any, error)

func (f ValueParserFunc) Parse(text string) (any, error) { return f(text) }

// ParserProvider resolves the parser to use for a node. A nil parser means
// the value is not checked.
type ParserProvider interface {
	ParserFor(dc DynamicContext) (ValueParser, error)
}

// ParserProviderFunc adapts a function to a ParserProvider.
type ParserProviderFunc func(dc DynamicContext) (ValueParser, error)

func (f ParserProviderFunc) ParserFor(dc DynamicContext) (ValueParser, error) { return f(dc) }

type staticParser struct{ p ValueParser }

func (s staticParser) ParserFor(DynamicContext) (ValueParser, error) { return s.p, nil }

// StaticParser returns a provider that always yields p.
func StaticParser(p ValueParser) ParserProvider {
	return staticParser{p: p}
}

// LongRunner is implemented by parsers and providers whose checks are slow.
// Their results are reported after the fast diagnostics.
type LongRunner interface {
	IsLongRunning() bool
}

type longRunning struct{ ParserProvider }

func (longRunning) IsLongRunning() bool { return true }

// LongRunning marks provider as slow.
func LongRunning(provider ParserProvider) ParserProvider {
	return longRunning{ParserProvider: provider}
}

// IsLongRunning reports whether v declares itself slow.
func IsLongRunning(v any) bool {
	lr, ok := v.(LongRunner)
	return ok && lr.IsLongRunning()
}

// Replacement is a suggested value to fix a parse error.
type Replacement struct {
	Title string
	Text  string
}

// ParseError is returned by value parsers that want control over the
// diagnostic they cause.
type ParseError struct {
	Message string
	// Type overrides the problem type. Zero means problem.ValueParse.
	Type problem.Type
	// Start and End delimit the offending part of the scalar, relative to
	// the start of the node. -1 means unset.
	Start, End  int
	Replacement *Replacement
	Err         error
}

// NewParseError creates a parse error covering the whole node.
func NewParseError(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Start: -1, End: -1}
}

func (e *ParseError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// WithRange narrows the error to [start,end) relative to the node.
func (e *ParseError) WithRange(start, end int) *ParseError {
	c := *e
	c.Start, c.End = start, end
	return &c
}

// WithType overrides the problem type.
func (e *ParseError) WithType(t problem.Type) *ParseError {
	c := *e
	c.Type = t
	return &c
}

// WithReplacement attaches a replacement fix.
func (e *ParseError) WithReplacement(title, text string) *ParseError {
	c := *e
	c.Replacement = &Replacement{Title: title, Text: text}
	return &c
}

// Wrap records err as the cause.
func (e *ParseError) Wrap(err error) *ParseError {
	c := *e
	c.Err = err
	return &c
}

// ParseFailure is the interpretation of an error returned by a value parser.
type ParseFailure struct {
	Message     string
	Type        problem.Type
	Start, End  int
	Replacement *Replacement
}

// ExplainParseError extracts diagnostic details from err. The deepest
// ParseError in the chain wins; without one the message of the deepest cause
// is used.
func ExplainParseError(err error) ParseFailure {
	f := ParseFailure{Type: problem.ValueParse, Start: -1, End: -1}
	var pe *ParseError
	cause := err
	for e := err; e != nil; e = errors.Unwrap(e) {
		if p, ok := e.(*ParseError); ok {
			pe = p
		}
		cause = e
	}
	if pe != nil {
		f.Message = strings.TrimSpace(pe.Message)
		if pe.Type.Code != "" {
			f.Type = pe.Type
		}
		f.Start, f.End = pe.Start, pe.End
		f.Replacement = pe.Replacement
		if f.Message == "" {
			f.Message = "An error occurred: " + simpleError(cause)
		}
		return f
	}
	if cause != nil {
		f.Message = cause.Error()
	}
	return f
}

func simpleError(err error) string {
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if msg := err.Error(); msg != "" {
		return name + ": " + msg
	}
	return name
}

// safeCall runs fn, turning a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "panic")
			} else {
				err = errors.Errorf("panic: %v", r)
			}
		}
	}()
	return fn()
}

// SafeCall runs fn, turning a panic into an error. Extension points such as
// parsers and constraints are invoked through it.
func SafeCall(fn func() error) error {
	return safeCall(fn)
}
