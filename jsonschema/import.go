// Package jsonschema builds yschema types from JSON Schema definitions,
// typically the component schemas of an OpenAPI document.
package jsonschema

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/openapi"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/internal/log"
)

const (
	// ExtDeprecated marks a property as deprecated. The value is either a
	// boolean or the deprecation message.
	ExtDeprecated = "x-deprecated"
	// ExtPrimary marks the property that identifies a member of a oneOf or
	// anyOf of objects.
	ExtPrimary = "x-primary"
	// ExtDocuments sets the number of YAML documents a file may hold, as
	// "n", "n+" or "n-m".
	ExtDocuments = "x-documents"

	componentPrefix = "#/components/schemas/"
)

// ErrComponentNotFound is returned when a requested component schema does
// not exist.
var ErrComponentNotFound = errors.New("component schema not found")

// Options configure an import.
type Options struct {
	Logger log.Logger
	// Strict fails the import on constructs that have no yschema
	// equivalent. Otherwise they are imported as Object and logged.
	Strict bool
}

// DefaultOptions returns lenient options.
func DefaultOptions() Options {
	return Options{Logger: log.Noop()}
}

// importer converts one schema graph. Components are converted once and
// shared.
type importer struct {
	opts       Options
	logger     log.Logger
	components map[string]*oas3.JSONSchema[oas3.Referenceable]
	done       map[string]yschema.YType
	building   map[string]bool
	lazy       map[string]yschema.YType
}

func newImporter(opts Options, components map[string]*oas3.JSONSchema[oas3.Referenceable]) *importer {
	return &importer{
		opts:       opts,
		logger:     log.OrNoop(opts.Logger),
		components: components,
		done:       make(map[string]yschema.YType),
		building:   make(map[string]bool),
		lazy:       make(map[string]yschema.YType),
	}
}

// FromSchema converts a standalone schema. References to components cannot
// be resolved and are imported as Object.
func FromSchema(name string, s *oas3.Schema, opts Options) (yschema.YType, error) {
	return newImporter(opts, nil).schema(name, s)
}

// FromOpenAPI reads an OpenAPI document and builds a schema whose top level
// type is the named component.
func FromOpenAPI(ctx context.Context, r io.Reader, component string, opts Options) (*yschema.Schema, error) {
	doc, validationErrs, err := openapi.Unmarshal(ctx, r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing OpenAPI document")
	}
	logger := log.OrNoop(opts.Logger)
	for _, verr := range validationErrs {
		logger.Debugf("openapi validation: %v", verr)
	}

	components := make(map[string]*oas3.JSONSchema[oas3.Referenceable])
	if doc.Components != nil && doc.Components.Schemas != nil {
		for name, js := range doc.Components.Schemas.All() {
			components[name] = js
		}
	}
	js, ok := components[component]
	if !ok {
		return nil, errors.Wrapf(ErrComponentNotFound, "%q", component)
	}

	imp := newImporter(opts, components)
	top, err := imp.component(component)
	if err != nil {
		return nil, err
	}
	schema := yschema.NewSchema(component, top)
	if s := js.Left; s != nil {
		if v, ok := extension(s, ExtDocuments); ok {
			rng, err := ParseRange(v.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "%s of %s", ExtDocuments, component)
			}
			schema.Documents = rng
		}
	}
	logger.Infof("imported %s with %d components", component, len(imp.done))
	return schema, nil
}

// ParseRange parses "n", "n+" or "n-m".
func ParseRange(s string) (yschema.Range, error) {
	s = strings.TrimSpace(s)
	var lo, hi int
	switch {
	case strings.HasSuffix(s, "+"):
		if _, err := fmt.Sscanf(s, "%d+", &lo); err != nil {
			return yschema.Range{}, errors.Errorf("invalid range %q", s)
		}
		return yschema.AtLeast(lo), nil
	case strings.Contains(s, "-"):
		if _, err := fmt.Sscanf(s, "%d-%d", &lo, &hi); err != nil || hi < lo {
			return yschema.Range{}, errors.Errorf("invalid range %q", s)
		}
		return yschema.Between(lo, hi), nil
	default:
		if _, err := fmt.Sscanf(s, "%d", &lo); err != nil {
			return yschema.Range{}, errors.Errorf("invalid range %q", s)
		}
		return yschema.Exactly(lo), nil
	}
}

func (imp *importer) component(name string) (yschema.YType, error) {
	if t, ok := imp.done[name]; ok {
		return t, nil
	}
	if imp.building[name] {
		return imp.forward(name), nil
	}
	js, ok := imp.components[name]
	if !ok {
		return imp.unsupported(name, "reference to unknown component")
	}
	imp.building[name] = true
	defer delete(imp.building, name)

	t, err := imp.jsonSchema(name, js)
	if err != nil {
		return nil, errors.Wrapf(err, "component %s", name)
	}
	imp.done[name] = t
	return t, nil
}

// forward returns a stand-in for a component that refers to itself. It
// narrows to the finished type once the import completes.
func (imp *importer) forward(name string) yschema.YType {
	if t, ok := imp.lazy[name]; ok {
		return t
	}
	var shape []yschema.ContextSensitiveOption
	if js := imp.components[name]; js != nil && js.Left != nil && isObject(js.Left) {
		shape = append(shape, yschema.TreatAsBean())
	}
	t := yschema.ContextSensitive(name, func(yschema.DynamicContext) (yschema.YType, error) {
		done, ok := imp.done[name]
		if !ok {
			return nil, errors.Errorf("component %s was not imported", name)
		}
		return done, nil
	}, shape...)
	imp.lazy[name] = t
	return t
}

func (imp *importer) unsupported(name, what string) (yschema.YType, error) {
	if imp.opts.Strict {
		return nil, errors.Errorf("%s: %s", name, what)
	}
	imp.logger.Warnf("%s: %s, accepting anything", name, what)
	return yschema.Object, nil
}

func (imp *importer) jsonSchema(name string, js *oas3.JSONSchema[oas3.Referenceable]) (yschema.YType, error) {
	switch {
	case js == nil:
		return yschema.Object, nil
	case js.Left != nil:
		return imp.schema(name, js.Left)
	case js.Right != nil && *js.Right:
		return yschema.Object, nil
	default:
		return imp.unsupported(name, "schema `false`")
	}
}

func (imp *importer) schema(name string, s *oas3.Schema) (yschema.YType, error) {
	if s == nil {
		return yschema.Object, nil
	}
	if s.Ref != nil {
		ref := string(*s.Ref)
		if !strings.HasPrefix(ref, componentPrefix) {
			return imp.unsupported(name, "unsupported reference "+ref)
		}
		return imp.component(strings.TrimPrefix(ref, componentPrefix))
	}

	switch {
	case len(s.AllOf) > 0:
		return imp.allOf(name, s)
	case len(s.OneOf) > 0:
		return imp.union(name, s.OneOf)
	case len(s.AnyOf) > 0:
		return imp.union(name, s.AnyOf)
	}

	types := s.GetType()
	if len(types) > 1 {
		return imp.unsupported(name, fmt.Sprintf("multiple types %v", types))
	}
	if len(types) == 0 {
		if s.Properties != nil && s.Properties.Len() > 0 {
			return imp.object(name, s)
		}
		if len(s.Enum) > 0 {
			return imp.scalar(name, s)
		}
		return yschema.Object, nil
	}
	switch types[0] {
	case oas3.SchemaTypeObject:
		return imp.object(name, s)
	case oas3.SchemaTypeArray:
		el, err := imp.jsonSchema(name+"[]", s.Items)
		if err != nil {
			return nil, err
		}
		return yschema.Seq(el), nil
	case oas3.SchemaTypeNull:
		return imp.unsupported(name, "null type")
	default:
		return imp.scalar(name, s)
	}
}

// scalar converts string, number, integer and boolean schemas.
func (imp *importer) scalar(name string, s *oas3.Schema) (yschema.YType, error) {
	if len(s.Enum) > 0 {
		values := make([]string, 0, len(s.Enum))
		for _, n := range s.Enum {
			if n == nil || n.Kind != yaml.ScalarNode {
				continue
			}
			values = append(values, n.Value)
		}
		return yschema.Enum(name, values...).Build(), nil
	}

	types := s.GetType()
	typ := oas3.SchemaTypeString
	if len(types) == 1 {
		typ = types[0]
	}
	switch typ {
	case oas3.SchemaTypeInteger:
		return yschema.Integer, nil
	case oas3.SchemaTypeNumber:
		return yschema.Number, nil
	case oas3.SchemaTypeBoolean:
		return yschema.Boolean, nil
	}

	if s.Pattern != nil && *s.Pattern != "" {
		return yschema.Atomic(name).ParseWith(yschema.RegexParser(*s.Pattern)).Build(), nil
	}
	if s.Format != nil {
		switch *s.Format {
		case "date-time":
			return yschema.DateTime, nil
		case "date":
			return yschema.Atomic("Date").ParseWith(yschema.TimeParser("%Y-%m-%d")).Build(), nil
		case "time":
			return yschema.Atomic("Time").ParseWith(yschema.TimeParser("%H:%M:%S")).Build(), nil
		case "duration":
			return yschema.Duration, nil
		}
	}
	return yschema.String, nil
}

// object converts an object schema to a bean when it declares properties,
// and to a map otherwise. additionalProperties only matter for the map form.
func (imp *importer) object(name string, s *oas3.Schema) (yschema.YType, error) {
	if s.Properties == nil || s.Properties.Len() == 0 {
		value, err := imp.additional(name, s)
		if err != nil {
			return nil, err
		}
		return yschema.Map(yschema.String, value), nil
	}

	props, err := imp.properties(name, s)
	if err != nil {
		return nil, err
	}
	return yschema.Bean(name).Add(props...).Build(), nil
}

func (imp *importer) additional(name string, s *oas3.Schema) (yschema.YType, error) {
	if s.AdditionalProperties == nil {
		return yschema.Object, nil
	}
	return imp.jsonSchema(name+".*", s.AdditionalProperties)
}

func (imp *importer) properties(name string, s *oas3.Schema) ([]yschema.TypedProperty, error) {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	var props []yschema.TypedProperty
	for key, js := range s.Properties.All() {
		t, err := imp.jsonSchema(name+"."+key, js)
		if err != nil {
			return nil, err
		}
		var opts []yschema.PropOption
		if required[key] {
			opts = append(opts, yschema.Required())
		}
		if ps := js.Left; ps != nil {
			if ps.Description != nil && *ps.Description != "" {
				opts = append(opts, yschema.Description(*ps.Description))
			}
			if msg, ok := deprecation(ps); ok {
				opts = append(opts, yschema.Deprecated(msg))
			}
			if v, ok := extension(ps, ExtPrimary); ok && v.Value == "true" {
				opts = append(opts, yschema.Primary())
			}
		}
		props = append(props, yschema.Prop(key, t, opts...))
	}
	return props, nil
}

// allOf merges the properties of object members into one bean. Earlier
// members win when a property is declared twice.
func (imp *importer) allOf(name string, s *oas3.Schema) (yschema.YType, error) {
	b := yschema.Bean(name)
	for i, member := range s.AllOf {
		t, err := imp.jsonSchema(fmt.Sprintf("%s.allOf[%d]", name, i), member)
		if err != nil {
			return nil, err
		}
		props, ok := beanProperties(t)
		if !ok {
			return imp.unsupported(name, "allOf with a member that is not an object")
		}
		b.Add(props...)
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		props, err := imp.properties(name, s)
		if err != nil {
			return nil, err
		}
		b.Add(props...)
	}
	return b.Build(), nil
}

func (imp *importer) union(name string, members []*oas3.JSONSchema[oas3.Referenceable]) (yschema.YType, error) {
	var ts []yschema.YType
	for i, m := range members {
		t, err := imp.jsonSchema(fmt.Sprintf("%s[%d]", name, i), m)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if len(ts) == 1 {
		return ts[0], nil
	}
	u, err := yschema.Union(name, ts...)
	if err != nil {
		return imp.unsupported(name, err.Error())
	}
	return u, nil
}

var interp = yschema.NewInterpreter(yschema.DefaultInterpreterOptions())

func beanProperties(t yschema.YType) ([]yschema.TypedProperty, bool) {
	if !interp.IsBean(t) || interp.IsSequenceable(t) {
		return nil, false
	}
	return interp.Properties(t), true
}

func isObject(s *oas3.Schema) bool {
	types := s.GetType()
	if len(types) == 1 {
		return types[0] == oas3.SchemaTypeObject
	}
	return s.Properties != nil && s.Properties.Len() > 0
}

func extension(s *oas3.Schema, key string) (*yaml.Node, bool) {
	if s.Extensions == nil {
		return nil, false
	}
	v, ok := s.Extensions.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func deprecation(s *oas3.Schema) (string, bool) {
	v, ok := extension(s, ExtDeprecated)
	if !ok || v.Kind != yaml.ScalarNode {
		return "", false
	}
	switch v.Value {
	case "false":
		return "", false
	case "true":
		return "", true
	default:
		return v.Value, true
	}
}
