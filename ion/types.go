// Package ion holds the data-model primitives shared by the macro compiler,
// the evaluator and the text reader.
package ion

// Type is an Ion data-model type.
type Type uint8

const (
	Null Type = iota
	Bool
	Int
	Float
	Decimal
	TimestampType
	Symbol
	String
	Clob
	Blob
	List
	SExp
	Struct
)

var typeNames = [...]string{
	Null:          "null",
	Bool:          "bool",
	Int:           "int",
	Float:         "float",
	Decimal:       "decimal",
	TimestampType: "timestamp",
	Symbol:        "symbol",
	String:        "string",
	Clob:          "clob",
	Blob:          "blob",
	List:          "list",
	SExp:          "sexp",
	Struct:        "struct",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// TypeByName looks up a type by its Ion text name (as used in typed nulls).
func TypeByName(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return Null, false
}

// IsContainer reports whether values of this type have children.
func (t Type) IsContainer() bool {
	return t == List || t == SExp || t == Struct
}

// IsText reports whether t is string or symbol.
func (t Type) IsText() bool {
	return t == String || t == Symbol
}

// IsLob reports whether t is blob or clob.
func (t Type) IsLob() bool {
	return t == Blob || t == Clob
}
