// Package textreader reads Ion text. It provides the positioned cursor the
// macro compiler reads definitions from, and decodes e-expressions written as
// (:name args...) into flat expression lists for the evaluator.
package textreader

import (
	"math/big"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	"github.com/shibukawa/ionmacro/tokenizer"
	"github.com/shopspring/decimal"
)

// Form tells plain values apart from the e-expression syntax.
type Form int

const (
	FormValue Form = iota
	// FormEExpression is (:name args...) or (:12 args...)
	FormEExpression
	// FormGroup is (:: args...)
	FormGroup
)

// Value is one parsed Ion value.
type Value struct {
	Form        Form
	Type        ion.Type
	Null        bool
	Annotations []ion.SymbolToken
	// FieldName is set for values inside a struct.
	FieldName    ion.SymbolToken
	HasFieldName bool
	Position     tokenizer.Position

	Bool      bool
	Int       *big.Int
	Float     float64
	Decimal   decimal.Decimal
	Timestamp ion.Timestamp
	Symbol    ion.SymbolToken
	String    string
	Lob       []byte

	Children []*Value
	// MacroRef is the invoked macro of FormEExpression values.
	MacroRef macro.MacroRef
}
