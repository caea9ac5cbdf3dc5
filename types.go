// Package yschema is a schema-driven type model for YAML documents.
//
// A schema is a tree of YType values built with the constructors in this
// package: atomic scalars, homogeneous maps and sequences, beans with named
// properties, unions disambiguated by document content and context sensitive
// types whose shape is computed while a document is being checked. Types are
// immutable once built and are interpreted through a TypeInterpreter.
package yschema

import (
	"fmt"
	"strings"
)

// YType is an opaque schema type. Use a TypeInterpreter to ask questions
// about it.
type YType interface {
	fmt.Stringer

	isAtomic() bool
	isMap() bool
	isBean() bool
	isSequenceable() bool
	constraints() []Constraint
	// narrow performs one narrowing step. Types with nothing to narrow
	// return themselves.
	narrow(dc DynamicContext, report func(error)) YType
}

// base holds the parts shared by every type.
type base struct {
	cs []Constraint
}

func (b base) constraints() []Constraint { return b.cs }

// TypedProperty is a named, typed property of a bean.
type TypedProperty struct {
	Name        string
	Type        YType
	Required    bool
	Description string

	Deprecated         bool
	DeprecationMessage string

	// Primary properties identify the bean within a bean union.
	Primary bool
}

// PropOption configures a TypedProperty.
type PropOption func(*TypedProperty)

// Required marks a property as required.
func Required() PropOption {
	return func(p *TypedProperty) { p.Required = true }
}

// Deprecated marks a property as deprecated. An empty msg uses the default
// deprecation message.
func Deprecated(msg string) PropOption {
	return func(p *TypedProperty) {
		p.Deprecated = true
		p.DeprecationMessage = msg
	}
}

// Primary marks a property as the one that identifies its bean in a union.
func Primary() PropOption {
	return func(p *TypedProperty) { p.Primary = true }
}

// Description attaches documentation to a property.
func Description(text string) PropOption {
	return func(p *TypedProperty) { p.Description = text }
}

// Prop creates a property.
func Prop(name string, t YType, opts ...PropOption) TypedProperty {
	p := TypedProperty{Name: name, Type: t}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ----------------------------------------------------------------------------
// Atomic
// ----------------------------------------------------------------------------

type atomicType struct {
	base
	name         string
	parser       ParserProvider
	hints        []Hint
	hintProvider HintProvider
}

func (t *atomicType) String() string                          { return t.name }
func (t *atomicType) isAtomic() bool                          { return true }
func (t *atomicType) isMap() bool                             { return false }
func (t *atomicType) isBean() bool                            { return false }
func (t *atomicType) isSequenceable() bool                    { return false }
func (t *atomicType) narrow(DynamicContext, func(error)) YType { return t }

// AtomicBuilder assembles an atomic type.
type AtomicBuilder struct {
	t atomicType
}

// Atomic starts building a scalar type with the given name.
func Atomic(name string) *AtomicBuilder {
	return &AtomicBuilder{t: atomicType{name: name}}
}

// ParseWith validates values with p regardless of context.
func (b *AtomicBuilder) ParseWith(p ValueParser) *AtomicBuilder {
	b.t.parser = StaticParser(p)
	return b
}

// ParseWithProvider validates values with the parser provider returns for
// the context of each node.
func (b *AtomicBuilder) ParseWithProvider(provider ParserProvider) *AtomicBuilder {
	b.t.parser = provider
	return b
}

// Hints adds static value hints.
func (b *AtomicBuilder) Hints(values ...string) *AtomicBuilder {
	for _, v := range values {
		b.t.hints = append(b.t.hints, Hint{Value: v})
	}
	return b
}

// HintDetails adds fully described hints.
func (b *AtomicBuilder) HintDetails(hints ...Hint) *AtomicBuilder {
	b.t.hints = append(b.t.hints, hints...)
	return b
}

// HintProvider computes additional hints from context.
func (b *AtomicBuilder) HintProvider(p HintProvider) *AtomicBuilder {
	b.t.hintProvider = p
	return b
}

// Require attaches constraints.
func (b *AtomicBuilder) Require(cs ...Constraint) *AtomicBuilder {
	b.t.cs = append(b.t.cs, cs...)
	return b
}

// Build returns the immutable type. The builder may be reused.
func (b *AtomicBuilder) Build() YType {
	t := b.t
	t.hints = append([]Hint(nil), b.t.hints...)
	t.cs = append([]Constraint(nil), b.t.cs...)
	return &t
}

// ----------------------------------------------------------------------------
// Map and Sequence
// ----------------------------------------------------------------------------

type mapType struct {
	base
	key, value YType
}

// Map creates a homogeneous mapping type.
func Map(key, value YType) YType {
	return &mapType{key: key, value: value}
}

func (t *mapType) String() string {
	return fmt.Sprintf("Map<%s, %s>", t.key, t.value)
}
func (t *mapType) isAtomic() bool                          { return false }
func (t *mapType) isMap() bool                             { return true }
func (t *mapType) isBean() bool                            { return false }
func (t *mapType) isSequenceable() bool                    { return false }
func (t *mapType) narrow(DynamicContext, func(error)) YType { return t }

type seqType struct {
	base
	el YType
}

// Seq creates a sequence of el.
func Seq(el YType) YType {
	return &seqType{el: el}
}

func (t *seqType) String() string                          { return t.el.String() + "[]" }
func (t *seqType) isAtomic() bool                          { return false }
func (t *seqType) isMap() bool                             { return false }
func (t *seqType) isBean() bool                            { return false }
func (t *seqType) isSequenceable() bool                    { return true }
func (t *seqType) narrow(DynamicContext, func(error)) YType { return t }

// ----------------------------------------------------------------------------
// Bean
// ----------------------------------------------------------------------------

type beanType struct {
	base
	name     string
	props    []TypedProperty
	propsMap map[string]TypedProperty
}

func (t *beanType) String() string                          { return t.name }
func (t *beanType) isAtomic() bool                          { return false }
func (t *beanType) isMap() bool                             { return false }
func (t *beanType) isBean() bool                            { return true }
func (t *beanType) isSequenceable() bool                    { return false }
func (t *beanType) narrow(DynamicContext, func(error)) YType { return t }

// BeanBuilder assembles a bean type.
type BeanBuilder struct {
	name  string
	props []TypedProperty
	cs    []Constraint
}

// Bean starts building an object type with named properties.
func Bean(name string) *BeanBuilder {
	return &BeanBuilder{name: name}
}

// Prop adds a property.
func (b *BeanBuilder) Prop(name string, t YType, opts ...PropOption) *BeanBuilder {
	return b.Add(Prop(name, t, opts...))
}

// Add adds properties. When a name repeats, the first declaration wins.
func (b *BeanBuilder) Add(props ...TypedProperty) *BeanBuilder {
	b.props = append(b.props, props...)
	return b
}

// Require attaches constraints.
func (b *BeanBuilder) Require(cs ...Constraint) *BeanBuilder {
	b.cs = append(b.cs, cs...)
	return b
}

// Build returns the immutable type.
func (b *BeanBuilder) Build() YType {
	t := &beanType{
		name:     b.name,
		propsMap: make(map[string]TypedProperty, len(b.props)),
	}
	t.cs = append([]Constraint(nil), b.cs...)
	for _, p := range b.props {
		if _, dup := t.propsMap[p.Name]; dup {
			continue
		}
		t.props = append(t.props, p)
		t.propsMap[p.Name] = p
	}
	return t
}

// ----------------------------------------------------------------------------
// Any and ContextSensitive
// ----------------------------------------------------------------------------

type anyType struct {
	base
	name string
}

// Any creates a type that accepts any scalar, mapping or sequence.
func Any(name string) YType {
	return &anyType{name: name}
}

func (t *anyType) String() string                          { return t.name }
func (t *anyType) isAtomic() bool                          { return true }
func (t *anyType) isMap() bool                             { return true }
func (t *anyType) isBean() bool                            { return false }
func (t *anyType) isSequenceable() bool                    { return true }
func (t *anyType) narrow(DynamicContext, func(error)) YType { return t }

// NarrowFunc computes the concrete type of a node from its context.
type NarrowFunc func(dc DynamicContext) (YType, error)

type contextSensitiveType struct {
	base
	name                           string
	fn                             NarrowFunc
	atomic, mapLike, bean, seqLike bool
	hints                          HintProvider
}

// ContextSensitiveOption configures a context sensitive type.
type ContextSensitiveOption func(*contextSensitiveType)

// TreatAsAtomic makes the unresolved type answer only to IsAtomic.
func TreatAsAtomic() ContextSensitiveOption {
	return func(t *contextSensitiveType) {
		t.atomic, t.mapLike, t.bean, t.seqLike = true, false, false, false
	}
}

// TreatAsBean makes the unresolved type answer only to IsBean.
func TreatAsBean() ContextSensitiveOption {
	return func(t *contextSensitiveType) {
		t.atomic, t.mapLike, t.bean, t.seqLike = false, false, true, false
	}
}

// ContextHints supplies hints for the unresolved type.
func ContextHints(p HintProvider) ContextSensitiveOption {
	return func(t *contextSensitiveType) { t.hints = p }
}

// ContextSensitive creates a type resolved by fn for each node. Until fn
// succeeds the type answers every structural question with true, unless an
// option says otherwise. fn must not produce a chain of types that narrows
// back to itself.
func ContextSensitive(name string, fn NarrowFunc, opts ...ContextSensitiveOption) YType {
	t := &contextSensitiveType{
		name:    name,
		fn:      fn,
		atomic:  true,
		mapLike: true,
		bean:    true,
		seqLike: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *contextSensitiveType) String() string       { return t.name }
func (t *contextSensitiveType) isAtomic() bool       { return t.atomic }
func (t *contextSensitiveType) isMap() bool          { return t.mapLike }
func (t *contextSensitiveType) isBean() bool         { return t.bean }
func (t *contextSensitiveType) isSequenceable() bool { return t.seqLike }

func (t *contextSensitiveType) narrow(dc DynamicContext, report func(error)) YType {
	var resolved YType
	err := safeCall(func() error {
		var err error
		resolved, err = t.fn(dc)
		return err
	})
	if err != nil {
		report(fmt.Errorf("narrowing %s: %w", t.name, err))
		return t
	}
	if resolved == nil {
		return t
	}
	return resolved
}

// ----------------------------------------------------------------------------
// Constraints on existing types
// ----------------------------------------------------------------------------

// WithConstraints returns a copy of t with cs attached in addition to the
// constraints it already has.
func WithConstraints(t YType, cs ...Constraint) YType {
	if len(cs) == 0 {
		return t
	}
	join := func(b base) base {
		all := make([]Constraint, 0, len(b.cs)+len(cs))
		all = append(all, b.cs...)
		all = append(all, cs...)
		return base{cs: all}
	}
	switch v := t.(type) {
	case *atomicType:
		c := *v
		c.base = join(v.base)
		return &c
	case *mapType:
		c := *v
		c.base = join(v.base)
		return &c
	case *seqType:
		c := *v
		c.base = join(v.base)
		return &c
	case *beanType:
		c := *v
		c.base = join(v.base)
		return &c
	case *anyType:
		c := *v
		c.base = join(v.base)
		return &c
	case *contextSensitiveType:
		c := *v
		c.base = join(v.base)
		return &c
	case *unionType:
		c := *v
		c.base = join(v.base)
		return &c
	default:
		return t
	}
}

// describe renders the shapes a type accepts for error messages.
func describe(t YType) string {
	if t.isAtomic() {
		return t.String()
	}
	var shapes []string
	if t.isMap() || t.isBean() {
		shapes = append(shapes, "Map")
	}
	if t.isSequenceable() {
		shapes = append(shapes, "Sequence")
	}
	if len(shapes) == 0 {
		return t.String()
	}
	return strings.Join(shapes, " or ")
}
