// Package reconcile checks a parsed YAML document against a schema. A single
// recursive walk narrows the type of every node, validates its structure,
// queues value parsers and constraints, and records node types for a type
// collector. Queued work runs after the walk in two batches: ordinary work
// first, then long-running parsers, separated by a sink checkpoint.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/collector"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/internal/log"
	"github.com/speakeasy-api/yschema/problem"
	"github.com/speakeasy-api/yschema/schemactx"
	"github.com/speakeasy-api/yschema/yamlpath"
)

// Options configure a Reconciler.
type Options struct {
	Logger log.Logger

	// MaxNarrowSteps bounds narrowing when the schema does not bring its own
	// interpreter.
	MaxNarrowSteps int

	// SkipTemplatePlaceholders leaves `((var))` and `{{var}}` values
	// unchecked.
	SkipTemplatePlaceholders bool

	// Documents overrides the schema's expected number of documents.
	Documents *yschema.Range

	// Interpreter overrides the schema's interpreter.
	Interpreter yschema.TypeInterpreter
}

// DefaultOptions returns the options used by New when none are customized.
func DefaultOptions() Options {
	return Options{
		Logger:                   log.Noop(),
		MaxNarrowSteps:           yschema.DefaultInterpreterOptions().MaxNarrowSteps,
		SkipTemplatePlaceholders: true,
	}
}

// Reconciler checks documents against one schema. It keeps no state between
// calls, so one Reconciler may serve many documents, including concurrently
// as long as each call has its own sink and collector.
type Reconciler struct {
	schema *yschema.Schema
	opts   Options
	interp yschema.TypeInterpreter
	logger log.Logger
}

// New creates a reconciler for schema.
func New(schema *yschema.Schema, opts Options) *Reconciler {
	logger := log.OrNoop(opts.Logger)
	interp := opts.Interpreter
	if interp == nil {
		interp = schema.Interpreter
	}
	if interp == nil {
		interp = yschema.NewInterpreter(yschema.InterpreterOptions{
			MaxNarrowSteps: opts.MaxNarrowSteps,
			Logger:         logger,
		})
	}
	return &Reconciler{
		schema: schema,
		opts:   opts,
		interp: interp,
		logger: logger,
	}
}

// Schema returns the schema documents are checked against.
func (r *Reconciler) Schema() *yschema.Schema { return r.schema }

func (r *Reconciler) documents() yschema.Range {
	if r.opts.Documents != nil {
		return *r.opts.Documents
	}
	return r.schema.Documents
}

// CheckDocument parses doc and reconciles it. Malformed input is reported to
// sink as a single syntax problem; the returned file is nil in that case.
func (r *Reconciler) CheckDocument(ctx context.Context, doc *document.Document, sink problem.Sink, types collector.TypeCollector) (*ast.File, error) {
	file, err := ast.Parse(doc)
	if err != nil {
		var se *ast.SyntaxError
		if !errors.As(err, &se) {
			return nil, fmt.Errorf("parsing %s: %w", doc.URI(), err)
		}
		r.logger.Debugf("syntax error in %s: %v", doc.URI(), se)
		sink = visibleSink{Sink: sink, doc: doc}
		sink.BeginCollecting()
		sink.Accept(problem.New(problem.Syntax, se.Msg, se.Region))
		sink.Checkpoint()
		sink.EndCollecting()
		return nil, nil
	}
	return file, r.Reconcile(ctx, file, sink, types)
}

// Reconcile walks file and reports problems to sink. types may be nil. The
// context is checked between documents; on cancellation the problems found
// so far are delivered and ctx.Err() is returned.
func (r *Reconciler) Reconcile(ctx context.Context, file *ast.File, sink problem.Sink, types collector.TypeCollector) error {
	sink = visibleSink{Sink: sink, doc: file.Doc}
	w := &walk{
		r:      r,
		file:   file,
		doc:    file.Doc,
		sink:   sink,
		types:  types,
		logger: r.logger.With(map[string]any{"uri": file.Doc.URI()}),
		active: make(map[*ast.Node]bool),
	}

	sink.BeginCollecting()
	defer sink.EndCollecting()

	err := w.walkFile(ctx)

	w.logger.Debugf("running deferred work: %d ordinary, %d long-running", len(w.fast), len(w.slow))
	for _, job := range w.fast {
		job()
	}
	sink.Checkpoint()
	for _, job := range w.slow {
		job()
	}
	return err
}

// visibleSink widens empty regions so that every problem covers at least
// one character of the document.
type visibleSink struct {
	problem.Sink
	doc *document.Document
}

func (s visibleSink) Accept(p problem.Problem) {
	p.Region = s.doc.Visible(p.Region)
	s.Sink.Accept(p)
}

// walk holds the state of one Reconcile call.
type walk struct {
	r      *Reconciler
	file   *ast.File
	doc    *document.Document
	sink   problem.Sink
	types  collector.TypeCollector
	logger log.Logger

	fast []func()
	slow []func()

	// active holds alias targets currently being walked, to stop on
	// recursive aliases.
	active map[*ast.Node]bool
}

func (w *walk) walkFile(ctx context.Context) error {
	if w.types != nil {
		w.types.BeginCollecting(w.file)
		defer w.types.EndCollecting(w.file)
	}
	w.logger.Debugf("reconcile start: %d documents against %q", len(w.file.Roots), w.r.schema.Name)

	w.checkDocumentCount()
	for i, root := range w.file.Roots {
		if err := ctx.Err(); err != nil {
			w.logger.Infof("reconcile cancelled after %d documents", i)
			return err
		}
		w.visit(yamlpath.New(yamlpath.ValueAt(i)), nil, root, w.r.schema.TopLevelType)
	}
	return nil
}

func (w *walk) accept(p problem.Problem) {
	w.sink.Accept(p)
}

// visit checks node against declared type t.
func (w *walk) visit(path yamlpath.Path, parent, node *ast.Node, t yschema.YType) {
	if t == nil || node == nil {
		return
	}
	if w.r.opts.SkipTemplatePlaceholders && ast.IsTemplatePlaceholder(node.Resolve()) {
		return
	}

	in := w.r.interp
	dc := schemactx.New(w.file, path, node)
	t = in.Narrow(t, dc)
	if w.types != nil && w.types.Wants(t) {
		w.types.Accept(node, t, path)
	}
	w.queueConstraints(dc, parent, node, t)

	target := node.Resolve()
	if target == nil {
		return
	}
	if target != node {
		if w.active[target] {
			return
		}
		w.active[target] = true
		defer delete(w.active, target)
	}

	switch kindOf(target) {
	case ast.KindMapping:
		w.checkDuplicateKeys(target)
		switch {
		case in.IsMap(t):
			keyType, valueType := in.KeyType(t), in.DomainType(t)
			for _, e := range target.FlatEntries() {
				key, _ := ast.ScalarText(e.Key)
				w.visit(path.Append(yamlpath.KeyAt(key)), target, e.Key, keyType)
				w.visit(path.Append(yamlpath.ValueAtKey(key)), target, e.Value, valueType)
			}
		case in.IsBean(t):
			w.visitBean(dc, path, parent, node, target, t)
		default:
			w.expectedButFound(t, node, "Map")
		}
	case ast.KindSequence:
		if in.IsSequenceable(t) {
			el := in.DomainType(t)
			for i, item := range target.Items {
				w.visit(path.Append(yamlpath.ValueAt(i)), target, item, el)
			}
		} else {
			w.expectedButFound(t, node, "Sequence")
		}
	case ast.KindScalar:
		if in.IsAtomic(t) {
			w.queueValueParse(dc, node, t)
		} else {
			w.expectedButFound(t, node, "Scalar")
		}
	default:
		// other node kinds are not checked
	}
}

// kindOf classifies a resolved node. A `{{var}}` placeholder stands for a
// scalar.
func kindOf(n *ast.Node) ast.Kind {
	if n.Kind == ast.KindMapping && ast.IsTemplatePlaceholder(n) {
		return ast.KindScalar
	}
	return n.Kind
}

// visitBean checks the entries of mapping, the resolved form of node,
// against the properties of bean type t.
func (w *walk) visitBean(dc *schemactx.Context, path yamlpath.Path, parent, node, mapping *ast.Node, t yschema.YType) {
	props := w.r.interp.PropertiesMap(t)
	w.checkRequiredProperties(dc, parent, node, mapping, t, props)

	for _, e := range mapping.FlatEntries() {
		key, ok := ast.ScalarText(e.Key)
		if !ok {
			w.expectScalarKey(e.Key)
			continue
		}
		prop, ok := props[key]
		if !ok {
			if !e.Aliased {
				w.unknownProperty(e.Key, t, key)
			}
			continue
		}
		if prop.Deprecated {
			w.deprecatedProperty(e.Key, t, prop)
		}
		w.visit(path.Append(yamlpath.ValueAtKey(key)), mapping, e.Value, prop.Type)
	}
}

func (w *walk) checkDuplicateKeys(node *ast.Node) {
	seen := make(map[string][]*ast.Node)
	var order []string
	for _, e := range node.Entries {
		if ast.IsMergeKey(e.Key) {
			continue
		}
		key, ok := ast.ScalarText(e.Key)
		if !ok {
			continue
		}
		if _, dup := seen[key]; !dup {
			order = append(order, key)
		}
		seen[key] = append(seen[key], e.Key)
	}
	for _, key := range order {
		nodes := seen[key]
		if len(nodes) < 2 {
			continue
		}
		for _, k := range nodes {
			w.accept(duplicateKey(key, k))
		}
	}
}

func (w *walk) queueConstraints(dc *schemactx.Context, parent, node *ast.Node, t yschema.YType) {
	for _, c := range w.r.interp.Constraints(t) {
		if c == nil {
			continue
		}
		w.fast = append(w.fast, func() {
			err := yschema.SafeCall(func() error {
				c.Verify(dc, parent, node, t, w.sink)
				return nil
			})
			if err != nil {
				w.logger.Warnf("constraint on %s at %s failed: %v", t, dc.Path().ToPropString(), err)
			}
		})
	}
}

func (w *walk) queueValueParse(dc *schemactx.Context, node *ast.Node, t yschema.YType) {
	provider := w.r.interp.ValueParser(t)
	if provider == nil {
		return
	}
	job := func() { w.parseValue(dc, node, t, provider) }
	if yschema.IsLongRunning(provider) {
		w.slow = append(w.slow, job)
	} else {
		w.fast = append(w.fast, job)
	}
}

func (w *walk) parseValue(dc *schemactx.Context, node *ast.Node, t yschema.YType, provider yschema.ParserProvider) {
	where := dc.Path().ToPropString()

	var parser yschema.ValueParser
	if err := yschema.SafeCall(func() error {
		var err error
		parser, err = provider.ParserFor(dc)
		return err
	}); err != nil {
		w.logger.Warnf("no parser for %s at %s: %v", t, where, err)
		return
	}
	if parser == nil {
		return
	}
	text, ok := ast.ScalarText(node)
	if !ok {
		return
	}

	var parseErr error
	if err := yschema.SafeCall(func() error {
		_, parseErr = parser.Parse(text)
		return nil
	}); err != nil {
		w.logger.Warnf("parser for %s at %s failed: %v", t, where, err)
		return
	}
	if parseErr != nil {
		w.accept(w.valueParseProblem(node, t, parseErr))
	}
}
