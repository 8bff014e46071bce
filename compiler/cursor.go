// Package compiler turns macro definitions, read through a Cursor, into
// template macros with flat expression bodies.
package compiler

import (
	"math/big"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shopspring/decimal"
)

// Cursor is a positioned reader over a tree of Ion values. Next moves to the
// next value at the current depth; StepIn and StepOut change depth. The typed
// getters read the current value and fail when the type does not match.
type Cursor interface {
	Next() bool
	// Err reports the error that stopped Next, if any.
	Err() error
	Type() ion.Type
	IsNull() bool
	Annotations() []ion.SymbolToken
	// FieldName is the field name of the current value inside a struct.
	FieldName() (ion.SymbolToken, bool)
	// Position describes the current value for error messages.
	Position() string

	BoolValue() (bool, error)
	IntValue() (*big.Int, error)
	FloatValue() (float64, error)
	DecimalValue() (decimal.Decimal, error)
	TimestampValue() (ion.Timestamp, error)
	SymbolValue() (ion.SymbolToken, error)
	StringValue() (string, error)
	LobValue() ([]byte, error)

	StepIn() error
	StepOut() error
}
