package yschema

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/problem"
	"github.com/speakeasy-api/yschema/yamlpath"
)

type shape int

const (
	shapeScalar shape = iota
	shapeMap
	shapeSeq
	shapeOther
)

type fakeContext struct {
	shape shape
	keys  []string
}

func (c fakeContext) Path() yamlpath.Path { return yamlpath.New(yamlpath.ValueAt(0)) }
func (c fakeContext) DefinedProperties() map[string]struct{} {
	set := make(map[string]struct{}, len(c.keys))
	for _, k := range c.keys {
		set[k] = struct{}{}
	}
	return set
}
func (c fakeContext) IsAtomic() bool               { return c.shape == shapeScalar }
func (c fakeContext) IsMap() bool                  { return c.shape == shapeMap }
func (c fakeContext) IsSequence() bool             { return c.shape == shapeSeq }
func (c fakeContext) Document() *document.Document { return nil }
func (c fakeContext) Node() *ast.Node              { return nil }

func mapContext(keys ...string) fakeContext { return fakeContext{shape: shapeMap, keys: keys} }

var interp = NewInterpreter(DefaultInterpreterOptions())

func TestPredicates(t *testing.T) {
	bean := Bean("Job").Prop("name", String).Build()
	tests := []struct {
		t                 YType
		atomic, m, b, seq bool
		name              string
	}{
		{String, true, false, false, false, "String"},
		{Map(String, Integer), false, true, false, false, "Map<String, Integer>"},
		{Seq(String), false, false, false, true, "String[]"},
		{bean, false, false, true, false, "Job"},
		{Any("Whatever"), true, true, false, true, "Whatever"},
		{MustUnion("JobOrJobs", bean, Seq(bean)), false, false, true, true, "JobOrJobs"},
		{MustUnion("StringOrMap", String, Map(String, String)), true, true, false, false, "StringOrMap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.atomic, interp.IsAtomic(tt.t), "IsAtomic")
			assert.Equal(t, tt.m, interp.IsMap(tt.t), "IsMap")
			assert.Equal(t, tt.b, interp.IsBean(tt.t), "IsBean")
			assert.Equal(t, tt.seq, interp.IsSequenceable(tt.t), "IsSequenceable")
			assert.Equal(t, tt.name, tt.t.String())
		})
	}
}

func TestDescribe(t *testing.T) {
	bean := Bean("Job").Build()
	assert.Equal(t, "Integer", interp.Describe(Integer))
	assert.Equal(t, "Map", interp.Describe(bean))
	assert.Equal(t, "Map or Sequence", interp.Describe(MustUnion("U", bean, Seq(bean))))
	assert.Equal(t, "Sequence", interp.Describe(Seq(Integer)))
}

func TestUnionNarrowing(t *testing.T) {
	atom := Atomic("Name").Build()
	m := Map(String, String)
	u := MustUnion("NameOrMap", atom, m)

	assert.Same(t, atom, interp.Narrow(u, fakeContext{shape: shapeScalar}))
	assert.Same(t, m, interp.Narrow(u, mapContext()))
	assert.Same(t, u, interp.Narrow(u, fakeContext{shape: shapeSeq}))

	bean := Bean("Job").Prop("name", String).Build()
	seq := Seq(bean)
	bs := MustUnion("Jobs", seq, bean)
	assert.Same(t, bean, interp.Narrow(bs, mapContext("name")))
	assert.Same(t, seq, interp.Narrow(bs, fakeContext{shape: shapeSeq}))
	assert.Same(t, bs, interp.Narrow(bs, fakeContext{shape: shapeScalar}))
}

func TestUnsupportedUnion(t *testing.T) {
	_, err := Union("Bad", String, Integer)
	assert.ErrorIs(t, err, ErrUnsupportedUnion)
}

func TestBeanUnionRequiresUniquePrimary(t *testing.T) {
	git := Bean("Git").Prop("uri", String).Prop("branch", String).Build()
	s3 := Bean("S3").Prop("uri", String).Prop("branch", String).Build()

	_, err := BeanUnion("Source", git, s3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUniquePrimary)

	assert.Panics(t, func() { MustBeanUnion("Source", git, s3) })
}

func TestBeanUnionNarrowsByPrimary(t *testing.T) {
	git := Bean("Git").
		Prop("uri", String, Required()).
		Prop("branch", String).
		Build()
	s3 := Bean("S3").
		Prop("uri", String, Required()).
		Prop("bucket", String, Required(), Primary()).
		Prop("region", String).
		Build()
	u := MustBeanUnion("Source", git, s3)

	assert.Same(t, git, interp.Narrow(u, mapContext("uri", "branch")))
	assert.Same(t, s3, interp.Narrow(u, mapContext("bucket")))
	assert.Same(t, u, interp.Narrow(u, mapContext("uri")))

	props := interp.PropertiesMap(u)
	assert.Len(t, props, 4)
	for name, p := range props {
		assert.False(t, p.Required, "unresolved union must not require %s", name)
	}
}

func TestNarrowReachesFixedPoint(t *testing.T) {
	bean := Bean("Job").Prop("name", String).Build()
	inner := MustUnion("Jobs", bean, Seq(bean))
	outer := ContextSensitive("Dynamic", func(DynamicContext) (YType, error) { return inner, nil })

	types := []YType{String, bean, inner, outer, Map(String, outer), Any("A")}
	contexts := []DynamicContext{fakeContext{shape: shapeScalar}, mapContext("name"), fakeContext{shape: shapeSeq}}
	for _, ty := range types {
		for _, dc := range contexts {
			once := interp.Narrow(ty, dc)
			assert.Same(t, once, interp.Narrow(once, dc), "narrowing %s twice should not change it", ty)
		}
	}
	assert.Same(t, bean, interp.Narrow(outer, mapContext("name")))
}

func TestContextSensitiveFailureKeepsType(t *testing.T) {
	failing := ContextSensitive("Failing", func(DynamicContext) (YType, error) {
		return nil, errors.New("boom")
	})
	panicking := ContextSensitive("Panicking", func(DynamicContext) (YType, error) {
		panic("kaboom")
	})
	assert.Same(t, failing, interp.Narrow(failing, mapContext()))
	assert.Same(t, panicking, interp.Narrow(panicking, mapContext()))
	assert.True(t, interp.IsMap(failing))
	assert.Same(t, Object, interp.DomainType(failing))

	atomicOnly := ContextSensitive("Scalar", func(DynamicContext) (YType, error) { return nil, nil }, TreatAsAtomic())
	assert.True(t, interp.IsAtomic(atomicOnly))
	assert.False(t, interp.IsMap(atomicOnly))
}

func TestNarrowCycleIsBounded(t *testing.T) {
	var a, b YType
	a = ContextSensitive("A", func(DynamicContext) (YType, error) { return b, nil })
	b = ContextSensitive("B", func(DynamicContext) (YType, error) { return a, nil })

	in := NewInterpreter(InterpreterOptions{MaxNarrowSteps: 5})
	got := in.Narrow(a, mapContext())
	assert.True(t, got == a || got == b, "got %s", got)
}

func TestHintValues(t *testing.T) {
	ty := Atomic("Stack").
		Hints("cflinuxfs3", "windows").
		HintProvider(HintProviderFunc(func(DynamicContext) ([]Hint, error) {
			return []Hint{{Value: "windows"}, {Value: "cflinuxfs4"}}, nil
		})).
		Build()
	hints, err := interp.HintValues(ty, fakeContext{})
	require.NoError(t, err)
	assert.Equal(t, []Hint{{Value: "cflinuxfs3"}, {Value: "windows"}, {Value: "cflinuxfs4"}}, hints)

	partial := Atomic("Stack").
		Hints("cflinuxfs3").
		HintProvider(HintProviderFunc(func(DynamicContext) ([]Hint, error) {
			return nil, errors.New("cloud unreachable")
		})).
		Build()
	hints, err = interp.HintValues(partial, fakeContext{})
	assert.ErrorIs(t, err, ErrPartialHints)
	assert.Equal(t, []Hint{{Value: "cflinuxfs3"}}, hints)
}

func TestEnum(t *testing.T) {
	ty := Enum("Protocol", "http", "tcp", "http1").
		DeprecateWithReplacement("http1", "http").
		Build()

	hints, err := interp.HintValues(ty, fakeContext{})
	require.NoError(t, err)
	assert.Equal(t, []Hint{{Value: "http"}, {Value: "tcp"}}, hints)

	parser, err := interp.ValueParser(ty).ParserFor(fakeContext{})
	require.NoError(t, err)

	_, err = parser.Parse("tcp")
	assert.NoError(t, err)

	_, err = parser.Parse("udp")
	f := ExplainParseError(err)
	assert.Equal(t, problem.ValueParse, f.Type)
	assert.Equal(t, "'udp' is an unknown 'Protocol'. Valid values are: [http, tcp]", f.Message)

	_, err = parser.Parse("http1")
	f = ExplainParseError(err)
	assert.Equal(t, problem.DeprecatedValue, f.Type)
	require.NotNil(t, f.Replacement)
	assert.Equal(t, "http", f.Replacement.Text)
}

func TestEnumFromValues(t *testing.T) {
	ty := EnumFromValues("JobName", func(dc DynamicContext) ([]string, error) {
		return []string{"build", "test"}, nil
	}, nil)
	parser, err := interp.ValueParser(ty).ParserFor(fakeContext{})
	require.NoError(t, err)
	_, err = parser.Parse("deploy")
	assert.EqualError(t, err, "'deploy' is an unknown 'JobName'. Valid values are: [build, test]")
}

func TestExplainParseErrorDeepest(t *testing.T) {
	inner := NewParseError("inner").WithRange(1, 3).WithType(problem.EmptyOptionalValue)
	outer := NewParseError("outer").Wrap(fmt.Errorf("context: %w", inner))
	f := ExplainParseError(fmt.Errorf("parsing: %w", outer))
	assert.Equal(t, "inner", f.Message)
	assert.Equal(t, problem.EmptyOptionalValue, f.Type)
	assert.Equal(t, 1, f.Start)
	assert.Equal(t, 3, f.End)

	plain := ExplainParseError(fmt.Errorf("wrapped: %w", errors.New("root cause")))
	assert.Equal(t, "root cause", plain.Message)
	assert.Equal(t, -1, plain.Start)

	empty := ExplainParseError(&ParseError{Start: -1, End: -1})
	assert.Equal(t, "An error occurred: ParseError", empty.Message)
}

func TestBuiltinParsers(t *testing.T) {
	tests := []struct {
		parser ValueParser
		ok     []string
		bad    []string
	}{
		{IntegerParser, []string{"1", "-42", "0x1F"}, []string{"1.5", "abc"}},
		{NumberParser, []string{"1.5", "-3", ".inf"}, []string{"one"}},
		{BooleanParser, []string{"true", "False"}, []string{"yes"}},
		{IntegerRange(1, 10), []string{"1", "10"}, []string{"0", "11"}},
		{RegexParser(`^[a-z]+$`), []string{"abc"}, []string{"ABC"}},
		{TimeParser("%Y-%m-%d"), []string{"2024-02-29"}, []string{"29/02/2024"}},
		{DateTimeParser, []string{"2024-02-29T10:00:00Z"}, []string{"2024-02-29"}},
		{DurationParser, []string{"1h30m"}, []string{"90 minutes"}},
	}
	for _, tt := range tests {
		for _, s := range tt.ok {
			_, err := tt.parser.Parse(s)
			assert.NoError(t, err, "parsing %q", s)
		}
		for _, s := range tt.bad {
			_, err := tt.parser.Parse(s)
			assert.Error(t, err, "parsing %q", s)
		}
	}
}

func TestWarnEmpty(t *testing.T) {
	p := WarnEmpty(IntegerParser)
	_, err := p.Parse("  ")
	assert.Equal(t, problem.EmptyOptionalValue, ExplainParseError(err).Type)
	_, err = p.Parse("12")
	assert.NoError(t, err)
}

func TestLongRunning(t *testing.T) {
	slow := LongRunning(StaticParser(IntegerParser))
	assert.True(t, IsLongRunning(slow))
	assert.False(t, IsLongRunning(StaticParser(IntegerParser)))
}

func TestWithConstraintsCopies(t *testing.T) {
	c := RequireOneOf("a", "b")
	bean := Bean("B").Prop("a", String).Prop("b", String).Build()
	constrained := WithConstraints(bean, c)

	assert.Empty(t, interp.Constraints(bean))
	assert.Len(t, interp.Constraints(constrained), 1)
	assert.Equal(t, bean.String(), constrained.String())
}

func TestDocumentRange(t *testing.T) {
	assert.True(t, Exactly(1).Contains(1))
	assert.True(t, Exactly(1).TooLarge(2))
	assert.True(t, AtLeast(2).TooSmall(1))
	assert.False(t, AtLeast(2).TooLarge(100))
	assert.True(t, Between(1, 3).Contains(3))
}
