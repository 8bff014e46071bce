package macro

// SystemMacro is a built-in macro. Its expansion is native to the evaluator.
type SystemMacro struct {
	id        int
	name      string
	signature []Parameter
}

// SpecialFormID is the address of special forms, which are only reachable by name in templates.
const SpecialFormID = -1

// System macros
var (
	None        = newSystemMacro(0, "none")
	Values      = newSystemMacro(1, "values", zeroOrMore("values"))
	Annotate    = newSystemMacro(2, "annotate", zeroOrMore("ann"), exactlyOne("value"))
	MakeString  = newSystemMacro(3, "make_string", zeroOrMore("text"))
	MakeSymbol  = newSystemMacro(4, "make_symbol", zeroOrMore("text"))
	MakeBlob    = newSystemMacro(5, "make_blob", zeroOrMore("bytes"))
	MakeDecimal = newSystemMacro(6, "make_decimal",
		Parameter{Name: "coefficient", Encoding: FlexInt, Cardinality: ExactlyOne},
		Parameter{Name: "exponent", Encoding: FlexInt, Cardinality: ExactlyOne})
	MakeTimestamp = newSystemMacro(7, "make_timestamp", exactlyOne("year"),
		zeroOrOne("month"), zeroOrOne("day"), zeroOrOne("hour"), zeroOrOne("minute"),
		zeroOrOne("second"), zeroOrOne("offset_minutes"))
	Sum       = newSystemMacro(12, "sum", exactlyOne("a"), exactlyOne("b"))
	Delta     = newSystemMacro(13, "delta", zeroOrMore("deltas"))
	Repeat    = newSystemMacro(17, "repeat", exactlyOne("n"), Parameter{Name: "value", Cardinality: OneOrMore})
	Flatten   = newSystemMacro(19, "flatten", zeroOrMore("sequences"))
	MakeField = newSystemMacro(22, "make_field",
		Parameter{Name: "field_name", Encoding: FlexSym, Cardinality: ExactlyOne},
		exactlyOne("value"))

	IfNone   = newSystemMacro(SpecialFormID, "if_none", branchSignature()...)
	IfSome   = newSystemMacro(SpecialFormID, "if_some", branchSignature()...)
	IfSingle = newSystemMacro(SpecialFormID, "if_single", branchSignature()...)
	IfMulti  = newSystemMacro(SpecialFormID, "if_multi", branchSignature()...)
)

var systemMacros = []*SystemMacro{
	None, Values, Annotate, MakeString, MakeSymbol, MakeBlob, MakeDecimal, MakeTimestamp,
	Sum, Delta, Repeat, Flatten, MakeField,
	IfNone, IfSome, IfSingle, IfMulti,
}

func newSystemMacro(id int, name string, signature ...Parameter) *SystemMacro {
	return &SystemMacro{id: id, name: name, signature: signature}
}

func zeroOrMore(name string) Parameter { return NewParameter(name, ZeroOrMore) }
func exactlyOne(name string) Parameter { return NewParameter(name, ExactlyOne) }
func zeroOrOne(name string) Parameter  { return NewParameter(name, ZeroOrOne) }

func branchSignature() []Parameter {
	return []Parameter{zeroOrMore("stream"), zeroOrMore("true_branch"), zeroOrMore("false_branch")}
}

func (m *SystemMacro) ID() int                 { return m.id }
func (m *SystemMacro) Name() string            { return m.name }
func (m *SystemMacro) Signature() []Parameter  { return m.signature }
func (m *SystemMacro) Body() []Expression      { return nil }
func (m *SystemMacro) Dependencies() []Macro   { return nil }
func (m *SystemMacro) String() string          { return m.name }
func (m *SystemMacro) IsSpecialForm() bool     { return m.id == SpecialFormID }
func (m *SystemMacro) SignatureString() string { return signatureString(m.signature) }

// SystemMacros returns the whole catalog, special forms last.
func SystemMacros() []*SystemMacro {
	return append([]*SystemMacro(nil), systemMacros...)
}

// SystemMacroByID finds a system macro by its address in the system table.
func SystemMacroByID(id int) (*SystemMacro, bool) {
	if id < 0 {
		return nil, false
	}
	for _, m := range systemMacros {
		if m.id == id {
			return m, true
		}
	}
	return nil, false
}

// SystemMacroByName finds an addressable system macro. Special forms are not returned.
func SystemMacroByName(name string) (*SystemMacro, bool) {
	m, ok := SystemMacroOrSpecialForm(name)
	if !ok || m.IsSpecialForm() {
		return nil, false
	}
	return m, true
}

// SystemMacroOrSpecialForm finds a system macro or special form by name.
func SystemMacroOrSpecialForm(name string) (*SystemMacro, bool) {
	for _, m := range systemMacros {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}
