package evaluator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/compiler"
	"github.com/shibukawa/ionmacro/evaluator"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	"github.com/shibukawa/ionmacro/textreader"
)

func loadTable(t *testing.T, definitions string) *macro.Table {
	t.Helper()
	table := macro.NewTable()
	cursor, err := textreader.NewTextCursor(definitions)
	assert.NoError(t, err)
	_, err = compiler.LoadDefinitions(cursor, table)
	assert.NoError(t, err)
	return table
}

// expand decodes input against definitions and drains the whole stream.
func expand(t *testing.T, definitions, input string, opts ...evaluator.Option) ([]string, error) {
	t.Helper()
	table := loadTable(t, definitions)
	exprs, err := textreader.DecodeEExpressions(input, table)
	assert.NoError(t, err)

	ev := evaluator.New(append([]evaluator.Option{evaluator.WithMacroNames(table.NameOf)}, opts...)...)
	assert.NoError(t, ev.InitExpansion(exprs))
	return drain(ev)
}

func drain(ev *evaluator.Evaluator) ([]string, error) {
	var result []string
	for {
		v, ok, err := ev.ExpandNext()
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		text, err := dump(ev, v)
		if err != nil {
			return result, err
		}
		result = append(result, text)
	}
}

// dump renders v, stepping into containers.
func dump(ev *evaluator.Evaluator, v macro.Expression) (string, error) {
	if !v.Kind.IsContainer() {
		return v.String(), nil
	}

	open, closing, separator := "[", "]", ", "
	switch v.Kind {
	case macro.SExp:
		open, closing, separator = "(", ")", " "
	case macro.Struct:
		open, closing = "{", "}"
	}

	if err := ev.StepIn(); err != nil {
		return "", err
	}
	var (
		children []string
		field    string
	)
	for {
		child, ok, err := ev.ExpandNext()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		if child.Kind == macro.FieldName {
			field = child.String()
			continue
		}
		text, err := dump(ev, child)
		if err != nil {
			return "", err
		}
		children = append(children, field+text)
	}
	if err := ev.StepOut(); err != nil {
		return "", err
	}
	return ion.FormatAnnotations(v.Annotations) + open + strings.Join(children, separator) + closing, nil
}

func TestExpansion(t *testing.T) {
	tests := []struct {
		name        string
		definitions string
		input       string
		expected    []string
	}{
		{
			name:     "plain data passes through",
			input:    `1 a::"two" [3, (4 five)] {six: 6}`,
			expected: []string{"1", `a::"two"`, "[3, (4 five)]", "{six:6}"},
		},
		{
			name:        "identity keeps annotations and type",
			definitions: "(macro id (x) (.values (%x)))",
			input:       "(:id a::b::1.5) (:id null.int) (:id 2024-01-16T)",
			expected:    []string{"a::b::1.5", "null.int", "2024-01-16T"},
		},
		{
			name:        "invoke by address",
			definitions: "(macro one () 1) (macro two () 2)",
			input:       "(:1) (:0)",
			expected:    []string{"2", "1"},
		},
		{
			name:        "elided optional argument produces nothing",
			definitions: "(macro opt (x?) [(%x)]) (macro star (x*) [1, (%x), 2])",
			input:       "(:opt) (:star) (:opt null)",
			expected:    []string{"[]", "[1, 2]", "[null]"},
		},
		{
			name:        "empty group produces nothing",
			definitions: "(macro star (x*) [1, (%x), 2])",
			input:       "(:star (::))",
			expected:    []string{"[1, 2]"},
		},
		{
			name:        "expression group is flattened",
			definitions: "(macro star (x*) [(%x)])",
			input:       "(:star (:: 1 (:values (:: 2 3)) [4]))",
			expected:    []string{"[1, 2, 3, [4]]"},
		},
		{
			name: "variables resolve at the call site",
			definitions: `
				(macro b (y) (%y))
				(macro a (x) (.b (%x)))`,
			input:    "(:a 5)",
			expected: []string{"5"},
		},
		{
			name: "shadowed parameter names",
			definitions: `
				(macro inner (x) [inner, (%x)])
				(macro outer (x) [outer, (%x), (.inner (.values (%x)))])`,
			input:    "(:outer 1)",
			expected: []string{"[outer, 1, [inner, 1]]"},
		},
		{
			name:        "invocations inside containers",
			definitions: "(macro pair (a b) [(%a), (%b)])",
			input:       "(:pair 1 (:values (:: 2 3)))",
			expected:    []string{"[1, 2, 3]"},
		},
		{
			name:        "multi-valued field repeats its name",
			definitions: "(macro s (x*) {a: (%x), b: 1})",
			input:       "(:s (:: 1 2)) (:s)",
			expected:    []string{"{a:1, a:2, b:1}", "{b:1}"},
		},
		{
			name:        "literal sexp in body is data",
			definitions: "(macro lit (x) (values (%x)))",
			input:       "(:lit 1)",
			expected:    []string{"(values 1)"},
		},
		{
			name:     "none",
			input:    "1 (:none) 2",
			expected: []string{"1", "2"},
		},
		{
			name:     "make_string concatenates",
			input:    `(:make_string (:: "foo" "bar")) (:make_string (::)) (:make_string (:: "a" null bar))`,
			expected: []string{`"foobar"`, `""`, `"abar"`},
		},
		{
			name:        "make_string in a template",
			definitions: `(macro greet (name) (.$ion::make_string (.. "hello " (%name))))`,
			input:       `(:greet "world") [(:greet (:make_string (:: "a" "b")))]`,
			expected:    []string{`"hello world"`, `["hello ab"]`},
		},
		{
			name:     "make_symbol",
			input:    `(:make_symbol (:: "a" b)) (:make_symbol (:: "has space"))`,
			expected: []string{"ab", "'has space'"},
		},
		{
			name:     "make_blob",
			input:    `(:make_blob (:: {{aGVsbG8=}} {{" world"}}))`,
			expected: []string{"{{aGVsbG8gd29ybGQ=}}"},
		},
		{
			name:     "make_decimal",
			input:    "(:make_decimal 314 -2) (:make_decimal 7 0)",
			expected: []string{"3.14", "7."},
		},
		{
			name:     "annotate",
			input:    `(:annotate (:: a "b") c::1) (:annotate (:: x) [1, (:values 2)]) (:annotate (::) 3)`,
			expected: []string{"a::b::c::1", "x::[1, 2]", "3"},
		},
		{
			name:     "make_field",
			input:    `(:make_field foo 1) (:make_field "bar" {x: [1]})`,
			expected: []string{"{foo:1}", "{bar:{x:[1]}}"},
		},
		{
			name:     "repeat",
			input:    "(:repeat 3 a) (:repeat 0 b) (:repeat 2 (:: 1 2))",
			expected: []string{"a", "a", "a", "1", "2", "1", "2"},
		},
		{
			name: "make_timestamp",
			input: `(:make_timestamp 2024) (:make_timestamp 2024 2) (:make_timestamp 2024 2 29)
				(:make_timestamp 2024 2 29 13 5) (:make_timestamp 2024 2 29 13 5 7 60)
				(:make_timestamp 2024 2 29 13 5 7.250 0) (:make_timestamp 2024 1 1 0 0 (::) -330)`,
			expected: []string{
				"2024T", "2024-02T", "2024-02-29T",
				"2024-02-29T13:05-00:00", "2024-02-29T13:05:07+01:00",
				"2024-02-29T13:05:07.250Z", "2024-01-01T00:00-05:30",
			},
		},
		{
			name:     "sum",
			input:    "(:sum 1 2) (:sum -5 2) (:sum 9223372036854775807 1)",
			expected: []string{"3", "-3", "9223372036854775808"},
		},
		{
			name:     "delta",
			input:    "(:delta (:: 1 2 -1)) (:delta) (:delta 10)",
			expected: []string{"1", "3", "2", "10"},
		},
		{
			name:        "flatten",
			definitions: "(macro join (xs*) (.flatten (%xs)))",
			input:       "(:flatten (:: [a, b] (c [d]) [])) (:join (:: [1] a::[2, {x: 3}]))",
			expected:    []string{"a", "b", "c", "[d]", "1", "2", "{x:3}"},
		},
		{
			name: "special forms",
			definitions: `
				(macro or_default (x*) (.$ion::if_none (%x) default (%x)))
				(macro classify (x*) (.$ion::if_single (%x) single (.$ion::if_multi (%x) multi nothing)))
				(macro some (x*) (.$ion::if_some (%x) yes no))`,
			input: "(:or_default) (:or_default 1) (:classify) (:classify 1) (:classify (:: 1 2 3)) (:some) (:some (:: [] []))",
			expected: []string{
				"default", "1",
				"nothing", "single", "multi",
				"no", "yes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := expand(t, tt.definitions, tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestExpansionErrors(t *testing.T) {
	tests := []struct {
		name        string
		definitions string
		input       string
		expected    error
	}{
		{
			name:     "make_string rejects non-text",
			input:    "(:make_string 1)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_blob rejects non-lobs",
			input:    `(:make_blob "text")`,
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_decimal needs ints",
			input:    "(:make_decimal 1.5 1)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_decimal needs exactly one coefficient",
			input:    "(:make_decimal (:: 1 2) 1)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "repeat count must not be negative",
			input:    "(:repeat -1 a)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "annotate needs one value",
			input:    "(:annotate (:: a) (::))",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "annotations must be text",
			input:    "(:annotate (:: 1) a)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_field name must be text",
			input:    "(:make_field null 1)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp day without month",
			input:    "(:make_timestamp 2024 (::) 5)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp hour without minute",
			input:    "(:make_timestamp 2024 1 1 10)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp offset without minute",
			input:    "(:make_timestamp 2024 1 (::) (::) (::) (::) 0)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp day out of range",
			input:    "(:make_timestamp 2023 2 29)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp year must be an int",
			input:    `(:make_timestamp "2024")`,
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp second must be a number",
			input:    "(:make_timestamp 2024 1 1 1 1 1e0)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "make_timestamp month takes one value",
			input:    "(:make_timestamp 2024 (:: 1 2))",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "sum needs ints",
			input:    "(:sum 1 2.0)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "sum needs a value",
			input:    "(:sum 1 (::))",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "delta needs ints",
			input:    "(:delta (:: 1 a))",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "flatten needs sequences",
			input:    "(:flatten (:: [a] b))",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:     "flatten rejects null lists",
			input:    "(:flatten null.list)",
			expected: ionmacro.ErrArgumentType,
		},
		{
			name:        "exactly one variable bound to a group of two",
			definitions: `(macro d (x) (.$ion::make_decimal (%x) 0))`,
			input:       "(:d (:: 1 2))",
			expected:    ionmacro.ErrArgumentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expand(t, tt.definitions, tt.input)
			assert.IsError(t, err, tt.expected)
		})
	}
}

func TestArityAtEvaluation(t *testing.T) {
	single := mustTemplate(t, []macro.Parameter{macro.NewParameter("x", macro.ExactlyOne)}, macro.NewVariableRef(0))

	tests := []struct {
		name     string
		input    []macro.Expression
		expected error
	}{
		{
			name:     "missing argument",
			input:    []macro.Expression{macro.NewEExpression(single, 0, 1)},
			expected: ionmacro.ErrMissingArgument,
		},
		{
			name:     "too many arguments",
			input:    []macro.Expression{macro.NewEExpression(single, 0, 3), macro.NewInt(1), macro.NewInt(2)},
			expected: ionmacro.ErrTooManyArguments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := evaluator.New()
			assert.NoError(t, ev.InitExpansion(tt.input))
			_, _, err := ev.ExpandNext()
			assert.IsError(t, err, tt.expected)
			assert.IsError(t, err, ionmacro.ErrArity)
		})
	}
}

func TestContainerSkip(t *testing.T) {
	ev := evaluator.New()
	assert.NoError(t, ev.InitExpansion([]macro.Expression{
		macro.NewList(0, 3),
		macro.NewInt(1),
		macro.NewInt(2),
		macro.NewString("sibling"),
	}))

	v, ok, err := ev.ExpandNext()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, macro.List, v.Kind)
	assert.Equal(t, ion.List, ev.Type())

	v, ok, err = ev.ExpandNext()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"sibling"`, v.String())

	_, ok, err = ev.ExpandNext()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStepping(t *testing.T) {
	t.Run("container end does not pop", func(t *testing.T) {
		actual := []string{}
		ev := evaluator.New()
		exprs, err := textreader.DecodeEExpressions("[1] 2", nil)
		assert.NoError(t, err)
		assert.NoError(t, ev.InitExpansion(exprs))

		_, _, err = ev.ExpandNext()
		assert.NoError(t, err)
		assert.NoError(t, ev.StepIn())
		assert.Equal(t, 1, ev.Depth())
		for range 3 {
			v, ok, err := ev.ExpandNext()
			assert.NoError(t, err)
			if ok {
				actual = append(actual, v.String())
			}
		}
		assert.Equal(t, []string{"1"}, actual)
		assert.NoError(t, ev.StepOut())
		assert.Equal(t, 0, ev.Depth())

		v, ok, err := ev.ExpandNext()
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "2", v.String())
	})

	t.Run("step out early discards open invocations", func(t *testing.T) {
		table := loadTable(t, "(macro many () [(.values (.. 1 2 3))])")
		exprs, err := textreader.DecodeEExpressions("(:many) after", table)
		assert.NoError(t, err)
		ev := evaluator.New()
		assert.NoError(t, ev.InitExpansion(exprs))

		_, _, err = ev.ExpandNext()
		assert.NoError(t, err)
		assert.NoError(t, ev.StepIn())
		v, _, err := ev.ExpandNext()
		assert.NoError(t, err)
		assert.Equal(t, "1", v.String())
		assert.NoError(t, ev.StepOut())

		v, ok, err := ev.ExpandNext()
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "after", v.String())
	})

	t.Run("protocol errors", func(t *testing.T) {
		exprs, err := textreader.DecodeEExpressions("1 null.list", nil)
		assert.NoError(t, err)
		ev := evaluator.New()
		assert.NoError(t, ev.InitExpansion(exprs))

		err = ev.StepIn()
		assert.IsError(t, err, ionmacro.ErrNotOnContainer)
		assert.IsError(t, err, ionmacro.ErrProtocol)

		_, _, err = ev.ExpandNext()
		assert.NoError(t, err)
		assert.IsError(t, ev.StepIn(), ionmacro.ErrNotOnContainer)

		_, _, err = ev.ExpandNext()
		assert.NoError(t, err)
		assert.Equal(t, ion.List, ev.Type())
		assert.IsError(t, ev.StepIn(), ionmacro.ErrNotOnContainer)

		err = ev.StepOut()
		assert.IsError(t, err, ionmacro.ErrNothingToStepOutOf)
		assert.IsError(t, err, ionmacro.ErrProtocol)
	})
}

// recursive is a macro whose body may invoke itself, which the compiler
// never produces.
type recursive struct {
	body []macro.Expression
}

func (r *recursive) Signature() []macro.Parameter { return nil }
func (r *recursive) Body() []macro.Expression     { return r.body }
func (r *recursive) Dependencies() []macro.Macro  { return []macro.Macro{r} }

func TestExpansionLimit(t *testing.T) {
	silent := &recursive{}
	silent.body = []macro.Expression{macro.NewMacroInvocation(silent, 0, 1)}

	chatty := &recursive{}
	chatty.body = []macro.Expression{macro.NewInt(1), macro.NewMacroInvocation(chatty, 1, 2)}

	nested := &recursive{}
	nested.body = []macro.Expression{
		macro.NewMacroInvocation(macro.MakeString, 0, 2),
		macro.NewMacroInvocation(nested, 1, 2),
	}

	tests := []struct {
		name string
		m    macro.Macro
	}{
		{name: "self invocation without output", m: silent},
		{name: "self invocation with output", m: chatty},
		{name: "self invocation inside make_string", m: nested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := evaluator.New(evaluator.WithExpansionLimit(100))
			assert.NoError(t, ev.InitExpansion([]macro.Expression{macro.NewEExpression(tt.m, 0, 1)}))

			started := time.Now()
			_, err := drain(ev)
			assert.IsError(t, err, ionmacro.ErrExpansionLimit)
			assert.True(t, time.Since(started) < 5*time.Second)
			assert.True(t, ev.Steps() <= 101)
		})
	}

	t.Run("limit is per session", func(t *testing.T) {
		ev := evaluator.New(evaluator.WithExpansionLimit(3))
		exprs := []macro.Expression{macro.NewInt(1), macro.NewInt(2), macro.NewInt(3)}
		for range 2 {
			assert.NoError(t, ev.InitExpansion(exprs))
			actual, err := drain(ev)
			assert.NoError(t, err)
			assert.Equal(t, []string{"1", "2", "3"}, actual)
		}
	})

	t.Run("repeat of nothing is bounded", func(t *testing.T) {
		_, err := expand(t, "", "(:repeat 1000000000 (::))", evaluator.WithExpansionLimit(100))
		assert.IsError(t, err, ionmacro.ErrExpansionLimit)
	})
}

func TestInitExpansionValidates(t *testing.T) {
	ev := evaluator.New()
	err := ev.InitExpansion([]macro.Expression{macro.NewList(0, 5)})
	assert.IsError(t, err, ionmacro.ErrInvalidExpression)

	assert.NoError(t, ev.InitExpansion([]macro.Expression{macro.NewVariableRef(0)}))
	_, _, err = ev.ExpandNext()
	assert.IsError(t, err, ionmacro.ErrInvalidExpression)
}

func TestTrace(t *testing.T) {
	var events []evaluator.TraceEvent
	actual, err := expand(t, "(macro two () (.values (.. 1 2)))", "(:two)", evaluator.WithTrace(func(e evaluator.TraceEvent) {
		events = append(events, e)
	}))
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, actual)

	var invoked []string
	for _, e := range events {
		if e.Kind == evaluator.TraceInvoke {
			invoked = append(invoked, e.Macro)
		}
	}
	assert.Equal(t, []string{"two", "$ion::values"}, invoked)
	assert.Equal(t, evaluator.TracePush, events[0].Kind)
	assert.Equal(t, "Values", events[0].Frame)
	assert.Equal(t, evaluator.TracePop, events[len(events)-1].Kind)
	assert.Equal(t, 0, events[len(events)-1].Depth)
}

func mustTemplate(t *testing.T, signature []macro.Parameter, body ...macro.Expression) *macro.TemplateMacro {
	t.Helper()
	m, err := macro.NewTemplateMacro(signature, body)
	assert.NoError(t, err)
	return m
}
