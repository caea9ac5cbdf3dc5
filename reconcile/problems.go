package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtgo/set"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/problem"
	"github.com/speakeasy-api/yschema/schemactx"
)

func (w *walk) checkDocumentCount() {
	name := w.r.schema.Name
	roots := w.file.Roots
	expected := w.r.documents()
	n := len(roots)
	switch {
	case expected.Contains(n):
		return
	case n == 0:
		w.accept(problem.New(problem.SchemaProblem,
			fmt.Sprintf("'%s' must have at least some Yaml content", name), w.doc.Whole()))
	case expected.TooLarge(n):
		extra := roots[expected.Max]
		w.accept(problem.New(problem.SchemaProblem,
			fmt.Sprintf("'%s' should not have more than %d Yaml Documents", name, expected.Max),
			w.dashesBefore(extra)))
	case expected.TooSmall(n):
		w.accept(problem.New(problem.SchemaProblem,
			fmt.Sprintf("'%s' should have at least %d Yaml Documents", name, expected.Min),
			w.doc.EndRegion()))
	}
}

// dashesBefore finds the `---` separator that starts the document of node.
// Without one the node itself is used.
func (w *walk) dashesBefore(node *ast.Node) document.Region {
	before := w.doc.TrimEnd(document.Region{Start: 0, End: node.Start})
	if before.Len() >= 3 {
		dashes := document.Region{Start: before.End - 3, End: before.End}
		if w.doc.Slice(dashes.Start, dashes.End) == "---" {
			return dashes
		}
	}
	return node.Region()
}

func (w *walk) expectedButFound(t yschema.YType, node *ast.Node, found string) {
	msg := fmt.Sprintf("Expecting a '%s' but found a '%s'", w.r.interp.Describe(t), found)
	w.accept(problem.New(problem.SchemaProblem, msg, node.Region()))
}

func (w *walk) expectScalarKey(key *ast.Node) {
	msg := fmt.Sprintf("Expecting a 'Scalar' node but got a '%s' node", key.Resolve().Kind)
	w.accept(problem.New(problem.SchemaProblem, msg, key.Region()))
}

func (w *walk) unknownProperty(key *ast.Node, t yschema.YType, name string) {
	msg := fmt.Sprintf("Unknown property '%s' for type '%s'", name, t)
	w.accept(problem.New(problem.UnknownProperty, msg, key.Region()))
}

func (w *walk) deprecatedProperty(key *ast.Node, t yschema.YType, prop yschema.TypedProperty) {
	msg := prop.DeprecationMessage
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf("Property '%s' of '%s' is deprecated", prop.Name, t)
	}
	w.accept(problem.New(problem.DeprecatedProperty, msg, key.Region()))
}

func duplicateKey(key string, node *ast.Node) problem.Problem {
	return problem.New(problem.DuplicateKey, fmt.Sprintf("Duplicate key '%s'", key), node.Region())
}

// valueParseProblem turns a parser error into a problem. A sub-range
// reported by the parser is clamped to the node.
func (w *walk) valueParseProblem(node *ast.Node, t yschema.YType, err error) problem.Problem {
	f := yschema.ExplainParseError(err)
	region := node.Region()
	if node.Kind != ast.KindAlias {
		if f.Start >= 0 {
			region.Start = min(node.Start+f.Start, node.End)
		}
		if f.End >= 0 {
			region.End = min(node.Start+f.End, node.End)
		}
		region = document.RegionOf(region.Start, region.End)
	}
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf("Couldn't parse as '%s'", w.r.interp.Describe(t))
	}
	p := problem.New(f.Type, msg, region)
	if f.Replacement != nil {
		title := f.Replacement.Title
		if title == "" {
			title = fmt.Sprintf("Replace with '%s'", f.Replacement.Text)
		}
		p = p.WithFix(problem.ReplaceStringFix(title, problem.ReplaceStringData{
			URI:         w.doc.URI(),
			Region:      node.Region(),
			Replacement: f.Replacement.Text,
		}))
	}
	return p
}

// checkRequiredProperties reports required properties missing from mapping.
// The check is skipped when mapping has keys the bean does not know, since
// a misspelled key would otherwise also show up as a missing one.
func (w *walk) checkRequiredProperties(dc *schemactx.Context, parent, node, mapping *ast.Node, t yschema.YType, props map[string]yschema.TypedProperty) {
	found := mapping.ScalarKeys()
	for k := range found {
		if _, known := props[k]; !known {
			return
		}
	}

	var required sort.StringSlice
	for name, p := range props {
		if p.Required {
			required = append(required, name)
		}
	}
	if len(required) == 0 {
		return
	}
	present := make(sort.StringSlice, 0, len(found))
	for k := range found {
		present = append(present, k)
	}
	required.Sort()
	present.Sort()

	data := append(required, present...)
	missing := data[:set.Diff(data, len(required))]
	if len(missing) == 0 {
		return
	}
	missing = append([]string(nil), missing...)

	var msg string
	if len(missing) == 1 {
		msg = fmt.Sprintf("Property '%s' is required for '%s'", missing[0], t)
	} else {
		msg = fmt.Sprintf("Properties [%s] are required for '%s'", strings.Join(missing, ", "), t)
	}
	snippet, cursor := w.missingPropertiesSnippet(mapping, missing, props)
	fix := problem.MissingPropertiesFix(problem.MissingPropertiesData{
		URI:          w.doc.URI(),
		Path:         dc.Path().Encode(),
		Props:        missing,
		Snippet:      snippet,
		CursorOffset: cursor,
	})
	region := yschema.AnchorRegion(w.doc, parent, node)
	w.accept(problem.New(problem.MissingProperty, msg, region).WithFix(fix))
}

// missingPropertiesSnippet renders the text inserting props into mapping,
// one property per line at the mapping's indentation. The cursor lands after
// the first inserted property.
func (w *walk) missingPropertiesSnippet(mapping *ast.Node, missing []string, props map[string]yschema.TypedProperty) (string, int) {
	_, column := w.doc.Position(mapping.Start)
	indent := strings.Repeat(" ", column)
	in := w.r.interp

	var b strings.Builder
	cursor := -1
	for i, name := range missing {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteString(name)
		b.WriteByte(':')
		t := props[name].Type
		switch {
		case t != nil && (in.IsBean(t) || in.IsMap(t)) && !in.IsAtomic(t):
			b.WriteString("\n" + indent + "  ")
		case t != nil && in.IsSequenceable(t) && !in.IsAtomic(t):
			b.WriteString("\n" + indent + "- ")
		default:
			b.WriteByte(' ')
		}
		if cursor < 0 {
			cursor = b.Len()
		}
	}
	return b.String(), cursor
}
