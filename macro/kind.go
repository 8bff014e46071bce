package macro

import "github.com/shibukawa/ionmacro/ion"

// Kind is the tag of an Expression.
type Kind int

const (
	// Placeholder occupies a container's slot while its children are compiled.
	Placeholder Kind = iota
	FieldName

	// Data-model scalars
	Null
	Bool
	Int
	BigInt
	Float
	Decimal
	Timestamp
	Symbol
	String
	Blob
	Clob

	// Data-model containers
	List
	SExp
	Struct

	// Expansion-only kinds
	EExpression
	MacroInvocation
	ExpressionGroup
	VariableRef
)

var kindNames = map[Kind]string{
	Placeholder:     "Placeholder",
	FieldName:       "FieldName",
	Null:            "Null",
	Bool:            "Bool",
	Int:             "Int",
	BigInt:          "BigInt",
	Float:           "Float",
	Decimal:         "Decimal",
	Timestamp:       "Timestamp",
	Symbol:          "Symbol",
	String:          "String",
	Blob:            "Blob",
	Clob:            "Clob",
	List:            "List",
	SExp:            "SExp",
	Struct:          "Struct",
	EExpression:     "EExpression",
	MacroInvocation: "MacroInvocation",
	ExpressionGroup: "ExpressionGroup",
	VariableRef:     "VariableRef",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// HasStartAndEnd reports whether expressions of this kind own the range
// [SelfIndex+1, EndExclusive) of the sequence they live in.
func (k Kind) HasStartAndEnd() bool {
	switch k {
	case List, SExp, Struct, EExpression, MacroInvocation, ExpressionGroup:
		return true
	}
	return false
}

// IsDataModelValue reports whether the kind is a value a reader can observe.
func (k Kind) IsDataModelValue() bool {
	return k >= Null && k <= Struct
}

func (k Kind) IsContainer() bool {
	return k == List || k == SExp || k == Struct
}

func (k Kind) IsInvocation() bool {
	return k == EExpression || k == MacroInvocation
}

func (k Kind) IsText() bool {
	return k == String || k == Symbol
}

func (k Kind) IsLob() bool {
	return k == Blob || k == Clob
}

func (k Kind) IsInt() bool {
	return k == Int || k == BigInt
}

// Type maps a data-model kind to its Ion type. Non data-model kinds map to ion.Null.
func (k Kind) Type() ion.Type {
	switch k {
	case Bool:
		return ion.Bool
	case Int, BigInt:
		return ion.Int
	case Float:
		return ion.Float
	case Decimal:
		return ion.Decimal
	case Timestamp:
		return ion.TimestampType
	case Symbol:
		return ion.Symbol
	case String:
		return ion.String
	case Blob:
		return ion.Blob
	case Clob:
		return ion.Clob
	case List:
		return ion.List
	case SExp:
		return ion.SExp
	case Struct:
		return ion.Struct
	}
	return ion.Null
}
