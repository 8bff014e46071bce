package macro

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shopspring/decimal"
)

// Expression is one node of a flat expression list. Container-like kinds
// (see Kind.HasStartAndEnd) own the children at [SelfIndex+1, EndExclusive)
// of the list that holds them; every other kind is a leaf.
//
// Only the payload fields that match Kind are meaningful.
type Expression struct {
	Kind        Kind
	Annotations []ion.SymbolToken

	NullType       ion.Type
	BoolValue      bool
	IntValue       int64
	BigIntValue    *big.Int
	FloatValue     float64
	DecimalValue   decimal.Decimal
	TimestampValue ion.Timestamp
	// SymbolValue holds Symbol values and FieldName names.
	SymbolValue ion.SymbolToken
	StringValue string
	LobValue    []byte

	SelfIndex    int
	EndExclusive int
	// Macro is the invoked macro of EExpression and MacroInvocation nodes.
	Macro Macro
	// SignatureIndex is the parameter position of a VariableRef.
	SignatureIndex int
}

func NewPlaceholder() Expression {
	return Expression{Kind: Placeholder}
}

// NewNull creates a typed null. ion.Null gives the untyped null.
func NewNull(t ion.Type) Expression {
	return Expression{Kind: Null, NullType: t}
}

func NewBool(v bool) Expression {
	return Expression{Kind: Bool, BoolValue: v}
}

func NewInt(v int64) Expression {
	return Expression{Kind: Int, IntValue: v}
}

// NewBigInt creates an integer, normalized to Int when it fits in an int64.
func NewBigInt(v *big.Int) Expression {
	if v.IsInt64() {
		return NewInt(v.Int64())
	}
	return Expression{Kind: BigInt, BigIntValue: new(big.Int).Set(v)}
}

func NewFloat(v float64) Expression {
	return Expression{Kind: Float, FloatValue: v}
}

func NewDecimal(v decimal.Decimal) Expression {
	return Expression{Kind: Decimal, DecimalValue: v}
}

func NewTimestamp(v ion.Timestamp) Expression {
	return Expression{Kind: Timestamp, TimestampValue: v}
}

func NewString(v string) Expression {
	return Expression{Kind: String, StringValue: v}
}

// NewSymbol creates a symbol with known text.
func NewSymbol(text string) Expression {
	return NewSymbolToken(ion.NewSymbolToken(text))
}

func NewSymbolToken(token ion.SymbolToken) Expression {
	return Expression{Kind: Symbol, SymbolValue: token}
}

func NewBlob(v []byte) Expression {
	return Expression{Kind: Blob, LobValue: v}
}

func NewClob(v []byte) Expression {
	return Expression{Kind: Clob, LobValue: v}
}

func NewList(selfIndex, endExclusive int) Expression {
	return ranged(List, selfIndex, endExclusive)
}

func NewSExp(selfIndex, endExclusive int) Expression {
	return ranged(SExp, selfIndex, endExclusive)
}

func NewStruct(selfIndex, endExclusive int) Expression {
	return ranged(Struct, selfIndex, endExclusive)
}

// NewFieldName creates the field name of the struct field that follows it.
func NewFieldName(name string) Expression {
	return NewFieldNameToken(ion.NewSymbolToken(name))
}

func NewFieldNameToken(token ion.SymbolToken) Expression {
	return Expression{Kind: FieldName, SymbolValue: token}
}

func NewVariableRef(signatureIndex int) Expression {
	return Expression{Kind: VariableRef, SignatureIndex: signatureIndex}
}

func NewExpressionGroup(selfIndex, endExclusive int) Expression {
	return ranged(ExpressionGroup, selfIndex, endExclusive)
}

// NewMacroInvocation creates an invocation appearing inside a template body.
func NewMacroInvocation(m Macro, selfIndex, endExclusive int) Expression {
	e := ranged(MacroInvocation, selfIndex, endExclusive)
	e.Macro = m
	return e
}

// NewEExpression creates an invocation appearing directly in a data stream.
func NewEExpression(m Macro, selfIndex, endExclusive int) Expression {
	e := ranged(EExpression, selfIndex, endExclusive)
	e.Macro = m
	return e
}

func ranged(kind Kind, selfIndex, endExclusive int) Expression {
	return Expression{Kind: kind, SelfIndex: selfIndex, EndExclusive: endExclusive}
}

// WithAnnotations returns a copy of e carrying the given annotations.
func (e Expression) WithAnnotations(annotations ...ion.SymbolToken) Expression {
	if len(annotations) == 0 {
		e.Annotations = nil
		return e
	}
	e.Annotations = append([]ion.SymbolToken(nil), annotations...)
	return e
}

// Type is the Ion type of a data-model value, including the type of typed nulls.
func (e Expression) Type() ion.Type {
	if e.Kind == Null {
		return e.NullType
	}
	return e.Kind.Type()
}

// TextValue returns the text of a String or Symbol.
func (e Expression) TextValue() (string, bool) {
	switch e.Kind {
	case String:
		return e.StringValue, true
	case Symbol:
		if !e.SymbolValue.HasText() {
			return "", false
		}
		return e.SymbolValue.Text, true
	}
	return "", false
}

// BigInt returns the value of an Int or BigInt as a big.Int.
func (e Expression) BigInt() *big.Int {
	if e.Kind == BigInt {
		return new(big.Int).Set(e.BigIntValue)
	}
	return big.NewInt(e.IntValue)
}

// String renders scalars as Ion text and everything else as a debugging form.
func (e Expression) String() string {
	return ion.FormatAnnotations(e.Annotations) + e.payloadString()
}

func (e Expression) payloadString() string {
	switch e.Kind {
	case Null:
		if e.NullType == ion.Null {
			return "null"
		}
		return "null." + e.NullType.String()
	case Bool:
		return strconv.FormatBool(e.BoolValue)
	case Int:
		return strconv.FormatInt(e.IntValue, 10)
	case BigInt:
		return e.BigIntValue.String()
	case Float:
		return ion.FormatFloat(e.FloatValue)
	case Decimal:
		return ion.FormatDecimal(e.DecimalValue)
	case Timestamp:
		return e.TimestampValue.String()
	case Symbol:
		return ion.FormatSymbol(e.SymbolValue)
	case String:
		return ion.QuoteString(e.StringValue)
	case Blob:
		return ion.FormatBlob(e.LobValue)
	case Clob:
		return ion.FormatClob(e.LobValue)
	case FieldName:
		return ion.FormatSymbol(e.SymbolValue) + ":"
	case VariableRef:
		return fmt.Sprintf("VariableRef(%d)", e.SignatureIndex)
	case EExpression, MacroInvocation:
		return fmt.Sprintf("%s(%s)[%d,%d)", e.Kind, macroLabel(e.Macro), e.SelfIndex, e.EndExclusive)
	case List, SExp, Struct, ExpressionGroup:
		return fmt.Sprintf("%s[%d,%d)", e.Kind, e.SelfIndex, e.EndExclusive)
	}
	return e.Kind.String()
}
