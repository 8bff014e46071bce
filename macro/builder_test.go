package macro

import (
	"math/big"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shopspring/decimal"
)

func TestBuilderBackPatching(t *testing.T) {
	b := NewBuilder()
	start := b.Reserve()
	b.Add(NewInt(1))
	inner := b.Reserve()
	b.Add(NewString("a"))
	assert.NoError(t, b.Patch(inner, NewSExp(inner, b.Len())))
	assert.NoError(t, b.Patch(start, NewList(start, b.Len())))
	b.Add(NewBool(true))

	exprs, err := b.Build()
	assert.NoError(t, err)
	assert.Equal(t, 5, len(exprs))
	assert.Equal(t, List, exprs[0].Kind)
	assert.Equal(t, 4, exprs[0].EndExclusive)
	assert.Equal(t, SExp, exprs[2].Kind)
	assert.Equal(t, 4, exprs[2].EndExclusive)
}

func TestBuilderRejectsUnpatchedPlaceholder(t *testing.T) {
	b := NewBuilder()
	b.Reserve()
	b.Add(NewInt(1))

	_, err := b.Build()
	assert.IsError(t, err, ionmacro.ErrInvalidExpression)
}

func TestBuilderPatchRequiresPlaceholder(t *testing.T) {
	b := NewBuilder()
	b.Add(NewInt(1))
	assert.IsError(t, b.Patch(0, NewList(0, 1)), ionmacro.ErrInvalidExpression)
	assert.IsError(t, b.Patch(3, NewList(3, 4)), ionmacro.ErrInvalidExpression)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		exprs []Expression
		valid bool
	}{
		{
			name:  "empty",
			exprs: nil,
			valid: true,
		},
		{
			name:  "child escapes parent",
			exprs: []Expression{NewList(0, 3), NewStruct(1, 4), NewFieldName("a"), NewInt(1)},
			valid: false,
		},
		{
			name:  "proper nesting",
			exprs: []Expression{NewList(0, 4), NewStruct(1, 4), NewFieldName("a"), NewInt(1)},
			valid: true,
		},
		{
			name:  "wrong self index",
			exprs: []Expression{NewInt(1), NewList(0, 2)},
			valid: false,
		},
		{
			name:  "end out of bounds",
			exprs: []Expression{NewList(0, 5), NewInt(1)},
			valid: false,
		},
		{
			name:  "overlapping ranges",
			exprs: []Expression{NewList(0, 3), NewList(1, 4), NewInt(1), NewInt(2)},
			valid: false,
		},
		{
			name:  "placeholder",
			exprs: []Expression{NewPlaceholder()},
			valid: false,
		},
		{
			name:  "invocation without macro",
			exprs: []Expression{NewMacroInvocation(nil, 0, 1)},
			valid: false,
		},
		{
			name:  "empty container",
			exprs: []Expression{NewSExp(0, 1), NewExpressionGroup(1, 2)},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.exprs)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.IsError(t, err, ionmacro.ErrInvalidExpression)
			}
		})
	}
}

func TestExpressionString(t *testing.T) {
	ts, err := ion.ParseTimestamp("2024-01-16T")
	assert.NoError(t, err)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name     string
		expr     Expression
		expected string
	}{
		{name: "null", expr: NewNull(ion.Null), expected: "null"},
		{name: "typed null", expr: NewNull(ion.String), expected: "null.string"},
		{name: "bool", expr: NewBool(false), expected: "false"},
		{name: "int", expr: NewInt(-42), expected: "-42"},
		{name: "big int", expr: NewBigInt(huge), expected: "123456789012345678901234567890"},
		{name: "float", expr: NewFloat(1.5), expected: "1.5e0"},
		{name: "decimal", expr: NewDecimal(decimal.New(150, -2)), expected: "1.50"},
		{name: "integral decimal", expr: NewDecimal(decimal.New(7, 0)), expected: "7."},
		{name: "timestamp", expr: NewTimestamp(ts), expected: "2024-01-16T"},
		{name: "symbol", expr: NewSymbol("abc"), expected: "abc"},
		{name: "quoted symbol", expr: NewSymbol("a b"), expected: "'a b'"},
		{name: "keyword symbol", expr: NewSymbol("true"), expected: "'true'"},
		{name: "string", expr: NewString("a\"b"), expected: `"a\"b"`},
		{name: "blob", expr: NewBlob([]byte("hello")), expected: "{{aGVsbG8=}}"},
		{name: "clob", expr: NewClob([]byte("hi")), expected: `{{"hi"}}`},
		{name: "annotated", expr: NewInt(1).WithAnnotations(ion.Symbols("a", "b c")...), expected: "a::'b c'::1"},
		{name: "field name", expr: NewFieldName("foo"), expected: "foo:"},
		{name: "variable", expr: NewVariableRef(2), expected: "VariableRef(2)"},
		{name: "list", expr: NewList(3, 7), expected: "List[3,7)"},
		{name: "invocation", expr: NewMacroInvocation(MakeString, 0, 3), expected: "MacroInvocation(make_string)[0,3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.expr.String())
		})
	}
}

func TestNewBigIntNormalizesSmallValues(t *testing.T) {
	e := NewBigInt(big.NewInt(12))
	assert.Equal(t, Int, e.Kind)
	assert.Equal(t, int64(12), e.IntValue)

	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	e = NewBigInt(huge)
	assert.Equal(t, BigInt, e.Kind)
	assert.Equal(t, huge.String(), e.BigInt().String())
}

func TestTextValue(t *testing.T) {
	text, ok := NewString("s").TextValue()
	assert.True(t, ok)
	assert.Equal(t, "s", text)

	text, ok = NewSymbol("y").TextValue()
	assert.True(t, ok)
	assert.Equal(t, "y", text)

	_, ok = NewSymbolToken(ion.SymbolToken{SID: 10}).TextValue()
	assert.False(t, ok)

	_, ok = NewInt(1).TextValue()
	assert.False(t, ok)
}
