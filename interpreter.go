package yschema

import (
	"maps"

	"github.com/speakeasy-api/yschema/internal/log"
)

// TypeInterpreter answers questions about types.
type TypeInterpreter interface {
	IsAtomic(t YType) bool
	IsMap(t YType) bool
	IsBean(t YType) bool
	IsSequenceable(t YType) bool

	// Properties returns the properties of a bean in declaration order.
	Properties(t YType) []TypedProperty
	PropertiesMap(t YType) map[string]TypedProperty
	// DomainType is the value type of a map or the element type of a
	// sequence.
	DomainType(t YType) YType
	KeyType(t YType) YType

	// Narrow returns the most specific type t resolves to in dc.
	Narrow(t YType, dc DynamicContext) YType
	// HintValues returns suggested values. A non-nil error wrapping
	// ErrPartialHints comes with a usable but incomplete result.
	HintValues(t YType, dc DynamicContext) ([]Hint, error)
	ValueParser(t YType) ParserProvider
	Constraints(t YType) []Constraint

	// Describe renders the shapes t accepts, for messages.
	Describe(t YType) string
}

// Object accepts anything. It is the domain of types whose shape is not yet
// known.
var Object = Any("Object")

// InterpreterOptions configure an Interpreter.
type InterpreterOptions struct {
	// MaxNarrowSteps bounds narrowing so that a cycle of context sensitive
	// types cannot loop forever.
	MaxNarrowSteps int
	Logger         log.Logger
}

// DefaultInterpreterOptions returns the options used when none are given.
func DefaultInterpreterOptions() InterpreterOptions {
	return InterpreterOptions{
		MaxNarrowSteps: 64,
		Logger:         log.Noop(),
	}
}

// Interpreter is the TypeInterpreter for the types of this package. It is
// stateless and safe for concurrent use.
type Interpreter struct {
	maxSteps int
	logger   log.Logger
}

var _ TypeInterpreter = (*Interpreter)(nil)

// NewInterpreter creates an interpreter.
func NewInterpreter(opts InterpreterOptions) *Interpreter {
	if opts.MaxNarrowSteps <= 0 {
		opts.MaxNarrowSteps = DefaultInterpreterOptions().MaxNarrowSteps
	}
	return &Interpreter{
		maxSteps: opts.MaxNarrowSteps,
		logger:   log.OrNoop(opts.Logger),
	}
}

func (in *Interpreter) IsAtomic(t YType) bool       { return t != nil && t.isAtomic() }
func (in *Interpreter) IsMap(t YType) bool          { return t != nil && t.isMap() }
func (in *Interpreter) IsBean(t YType) bool         { return t != nil && t.isBean() }
func (in *Interpreter) IsSequenceable(t YType) bool { return t != nil && t.isSequenceable() }

func (in *Interpreter) Properties(t YType) []TypedProperty {
	switch v := t.(type) {
	case *beanType:
		return append([]TypedProperty(nil), v.props...)
	case *unionType:
		switch v.kind {
		case unionBeans:
			return append([]TypedProperty(nil), v.props...)
		case unionBeanSeq:
			return in.Properties(v.first)
		}
	}
	return nil
}

func (in *Interpreter) PropertiesMap(t YType) map[string]TypedProperty {
	switch v := t.(type) {
	case *beanType:
		return maps.Clone(v.propsMap)
	case *unionType:
		switch v.kind {
		case unionBeans:
			return maps.Clone(v.propsMap)
		case unionBeanSeq:
			return in.PropertiesMap(v.first)
		}
	}
	return nil
}

func (in *Interpreter) DomainType(t YType) YType {
	switch v := t.(type) {
	case *mapType:
		return v.value
	case *seqType:
		return v.el
	case *unionType:
		if v.kind == unionAtomicMap || v.kind == unionBeanSeq {
			return in.DomainType(v.second)
		}
	case *anyType, *contextSensitiveType:
		return Object
	}
	return nil
}

func (in *Interpreter) KeyType(t YType) YType {
	switch v := t.(type) {
	case *mapType:
		return v.key
	case *unionType:
		if v.kind == unionAtomicMap {
			return in.KeyType(v.second)
		}
	case *anyType, *contextSensitiveType:
		return String
	}
	return nil
}

// Narrow applies narrowing steps until the type stops changing. Failures of
// context sensitive narrowing functions are logged and leave the type as it
// was.
func (in *Interpreter) Narrow(t YType, dc DynamicContext) YType {
	if t == nil {
		return nil
	}
	report := func(err error) {
		in.logger.Warnf("narrowing failed at %s: %v", dc.Path().ToPropString(), err)
	}
	cur := t
	for i := 0; i < in.maxSteps; i++ {
		next := cur.narrow(dc, report)
		if next == nil || next == cur {
			return cur
		}
		cur = next
	}
	in.logger.Warnf("narrowing %s did not settle after %d steps, using %s", t, in.maxSteps, cur)
	return cur
}

func (in *Interpreter) HintValues(t YType, dc DynamicContext) ([]Hint, error) {
	switch v := in.Narrow(t, dc).(type) {
	case *atomicType:
		return collectHints(v.hints, v.hintProvider, dc)
	case *unionType:
		if v.kind == unionAtomicMap {
			return in.HintValues(v.first, dc)
		}
	case *contextSensitiveType:
		return collectHints(nil, v.hints, dc)
	}
	return nil, nil
}

func (in *Interpreter) ValueParser(t YType) ParserProvider {
	switch v := t.(type) {
	case *atomicType:
		return v.parser
	case *unionType:
		if v.kind == unionAtomicMap {
			return in.ValueParser(v.first)
		}
	}
	return nil
}

func (in *Interpreter) Constraints(t YType) []Constraint {
	if t == nil {
		return nil
	}
	return t.constraints()
}

func (in *Interpreter) Describe(t YType) string {
	if t == nil {
		return "<nil>"
	}
	return describe(t)
}
