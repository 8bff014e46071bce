package macro

import "github.com/shibukawa/ionmacro/ion"

// Cardinality is how many values a parameter may bind to.
type Cardinality int

const (
	ZeroOrOne Cardinality = iota
	ExactlyOne
	OneOrMore
	ZeroOrMore
)

var cardinalityInfo = [...]struct {
	name       string
	sigil      string
	canBeVoid  bool
	canBeMulti bool
}{
	ZeroOrOne:  {"ZeroOrOne", "?", true, false},
	ExactlyOne: {"ExactlyOne", "!", false, false},
	OneOrMore:  {"OneOrMore", "+", false, true},
	ZeroOrMore: {"ZeroOrMore", "*", true, true},
}

func (c Cardinality) String() string   { return cardinalityInfo[c].name }
func (c Cardinality) Sigil() string    { return cardinalityInfo[c].sigil }
func (c Cardinality) CanBeVoid() bool  { return cardinalityInfo[c].canBeVoid }
func (c Cardinality) CanBeMulti() bool { return cardinalityInfo[c].canBeMulti }

// CardinalityBySigil parses one of "?", "!", "+", "*".
func CardinalityBySigil(sigil string) (Cardinality, bool) {
	for i, info := range cardinalityInfo {
		if info.sigil == sigil {
			return Cardinality(i), true
		}
	}
	return ExactlyOne, false
}

// Encoding is how an argument is written on the wire. Tagged arguments carry
// their own type; the others are tagless primitives.
type Encoding int

const (
	Tagged Encoding = iota
	Uint8
	Uint16
	Uint32
	Uint64
	FlexUint
	Int8
	Int16
	Int32
	Int64
	FlexInt
	Float16
	Float32
	Float64
	FlexSym
)

var encodingNames = [...]string{
	Tagged:   "any",
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	FlexUint: "flex_uint",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	FlexInt:  "flex_int",
	Float16:  "float16",
	Float32:  "float32",
	Float64:  "float64",
	FlexSym:  "flex_sym",
}

func (e Encoding) String() string {
	return encodingNames[e]
}

// EncodingByName looks up an encoding by its text name ("any", "uint8", ...).
func EncodingByName(name string) (Encoding, bool) {
	for i, n := range encodingNames {
		if n == name {
			return Encoding(i), true
		}
	}
	return Tagged, false
}

// Parameter is one entry of a macro signature.
type Parameter struct {
	Name        string
	Encoding    Encoding
	Cardinality Cardinality
}

// NewParameter creates a tagged parameter.
func NewParameter(name string, cardinality Cardinality) Parameter {
	return Parameter{Name: name, Encoding: Tagged, Cardinality: cardinality}
}

func (p Parameter) String() string {
	return p.Encoding.String() + "::" + ion.FormatSymbol(ion.NewSymbolToken(p.Name)) + p.Cardinality.Sigil()
}
