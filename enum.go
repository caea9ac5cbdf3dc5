package yschema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/speakeasy-api/yschema/problem"
)

type enumDeprecation struct {
	message     string
	replacement string
}

// EnumBuilder assembles an atomic type restricted to a fixed set of values.
type EnumBuilder struct {
	name       string
	values     []string
	deprecated map[string]enumDeprecation
	cs         []Constraint
}

// Enum starts building an enumeration.
func Enum(name string, values ...string) *EnumBuilder {
	return &EnumBuilder{
		name:       name,
		values:     append([]string(nil), values...),
		deprecated: make(map[string]enumDeprecation),
	}
}

// Deprecate marks value as deprecated. An empty msg uses a default message.
func (b *EnumBuilder) Deprecate(value, msg string) *EnumBuilder {
	b.ensure(value)
	b.deprecated[value] = enumDeprecation{message: msg}
	return b
}

// DeprecateWithReplacement marks value as deprecated in favour of
// replacement. The resulting diagnostic offers the replacement as a fix.
func (b *EnumBuilder) DeprecateWithReplacement(value, replacement string) *EnumBuilder {
	b.ensure(value)
	b.deprecated[value] = enumDeprecation{
		message:     fmt.Sprintf("The value '%s' is deprecated in favour of '%s'", value, replacement),
		replacement: replacement,
	}
	return b
}

// Require attaches constraints.
func (b *EnumBuilder) Require(cs ...Constraint) *EnumBuilder {
	b.cs = append(b.cs, cs...)
	return b
}

func (b *EnumBuilder) ensure(value string) {
	if !slices.Contains(b.values, value) {
		b.values = append(b.values, value)
	}
}

// Build returns the immutable type.
func (b *EnumBuilder) Build() YType {
	name := b.name
	values := append([]string(nil), b.values...)
	deprecated := make(map[string]enumDeprecation, len(b.deprecated))
	for k, v := range b.deprecated {
		deprecated[k] = v
	}

	var hints []Hint
	for _, v := range values {
		if _, ok := deprecated[v]; !ok {
			hints = append(hints, Hint{Value: v})
		}
	}

	parser := ValueParserFunc(func(text string) (any, error) {
		if !slices.Contains(values, text) {
			return nil, NewParseError("%s", unknownEnumMessage(name, text, validValues(values, deprecated)))
		}
		if d, ok := deprecated[text]; ok {
			msg := d.message
			if msg == "" {
				msg = fmt.Sprintf("The value '%s' is deprecated", text)
			}
			err := NewParseError("%s", msg).WithType(problem.DeprecatedValue)
			if d.replacement != "" {
				err = err.WithReplacement(fmt.Sprintf("Replace with '%s'", d.replacement), d.replacement)
			}
			return nil, err
		}
		return text, nil
	})

	t := &atomicType{
		name:   name,
		parser: StaticParser(parser),
		hints:  hints,
	}
	t.cs = append([]Constraint(nil), b.cs...)
	return t
}

func validValues(values []string, deprecated map[string]enumDeprecation) []string {
	var out []string
	for _, v := range values {
		if _, ok := deprecated[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func unknownEnumMessage(name, value string, valid []string) string {
	return fmt.Sprintf("'%s' is an unknown '%s'. Valid values are: [%s]", value, name, strings.Join(valid, ", "))
}

// EnumMessageFunc formats the message for a value outside an enumeration.
type EnumMessageFunc func(name, value string, valid []string) string

// EnumFromValues creates an enumeration whose values are computed from
// context, for example from names defined elsewhere in the document. When
// values fails the node is not checked. A nil message uses the default
// "unknown value" message.
func EnumFromValues(name string, values func(dc DynamicContext) ([]string, error), message EnumMessageFunc) YType {
	if message == nil {
		message = unknownEnumMessage
	}
	provider := ParserProviderFunc(func(dc DynamicContext) (ValueParser, error) {
		valid, err := values(dc)
		if err != nil {
			return nil, fmt.Errorf("computing values of %s: %w", name, err)
		}
		return ValueParserFunc(func(text string) (any, error) {
			if !slices.Contains(valid, text) {
				return nil, NewParseError("%s", message(name, text, valid))
			}
			return text, nil
		}), nil
	})
	hints := HintProviderFunc(func(dc DynamicContext) ([]Hint, error) {
		valid, err := values(dc)
		if err != nil {
			return nil, err
		}
		hs := make([]Hint, len(valid))
		for i, v := range valid {
			hs[i] = Hint{Value: v}
		}
		return hs, nil
	})
	return &atomicType{name: name, parser: provider, hintProvider: hints}
}
