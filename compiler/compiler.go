package compiler

import (
	"fmt"
	"slices"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
)

// Template definition language keywords and sigils
const (
	macroKeyword    = "macro"
	variableSigil   = "%"
	groupSigil      = ".."
	invocationSigil = "."
)

// Compiler reads one macro definition at a time:
//
//	(macro name (param sigil? ...) body)
//
// Inside the body, (%x) expands a variable, (.. a b) is an expression group,
// (.name args...) or (.12 args...) invokes a macro, and any other value is
// literal data.
type Compiler struct {
	resolver  macro.Resolver
	macroName string
	signature []macro.Parameter
	builder   *macro.Builder
}

// New creates a compiler that resolves invoked macros with resolver. A nil
// resolver only knows the system macros.
func New(resolver macro.Resolver) *Compiler {
	return &Compiler{resolver: resolver}
}

// CompileMacro is a shortcut for New(resolver).CompileMacro(cursor).
func CompileMacro(cursor Cursor, resolver macro.Resolver) (*macro.TemplateMacro, error) {
	return New(resolver).CompileMacro(cursor)
}

// MacroName is the name read by the last CompileMacro, or "" for an anonymous macro.
func (c *Compiler) MacroName() string {
	return c.macroName
}

// CompileMacro compiles the definition the cursor is positioned on (but not
// stepped into). On success the cursor is left on the definition at the same
// depth. On failure nothing is returned and the cursor position is undefined.
func (c *Compiler) CompileMacro(cursor Cursor) (*macro.TemplateMacro, error) {
	c.macroName = ""
	c.signature = nil
	c.builder = macro.NewBuilder()

	if cursor.Type() != ion.SExp || cursor.IsNull() {
		return nil, c.errorf(cursor, "macro compilation expects a sexp starting with the keyword '%s'", macroKeyword)
	}
	if err := c.confirmNoAnnotations(cursor, "a macro definition sexp"); err != nil {
		return nil, err
	}

	if err := cursor.StepIn(); err != nil {
		return nil, err
	}
	if err := c.compileDefinition(cursor); err != nil {
		c.macroName = ""
		return nil, err
	}
	if err := cursor.StepOut(); err != nil {
		return nil, err
	}

	body, err := c.builder.Build()
	if err != nil {
		return nil, err
	}
	return macro.NewTemplateMacro(c.signature, body)
}

func (c *Compiler) compileDefinition(cursor Cursor) error {
	ok, err := c.next(cursor)
	if err != nil {
		return err
	}
	if !ok || !isSymbol(cursor, macroKeyword) {
		return c.errorf(cursor, "macro compilation expects a sexp starting with the keyword '%s'", macroKeyword)
	}

	// name
	if ok, err = c.next(cursor); err != nil {
		return err
	}
	if !ok {
		return c.errorf(cursor, "macro name must be a symbol or null; found nothing")
	}
	if err := c.confirmNoAnnotations(cursor, "macro name"); err != nil {
		return err
	}
	switch {
	case cursor.IsNull() && cursor.Type() == ion.Null:
	case cursor.Type() == ion.Symbol && !cursor.IsNull():
		name, err := cursor.SymbolValue()
		if err != nil {
			return err
		}
		if !ion.IsIdentifier(name.Text) {
			return c.errorf(cursor, "invalid macro name: '%s'", name)
		}
		c.macroName = name.Text
	default:
		return c.errorf(cursor, "macro name must be a symbol or null; found %s", describe(cursor))
	}

	// signature
	if ok, err = c.next(cursor); err != nil {
		return err
	}
	if !ok || cursor.Type() != ion.SExp || cursor.IsNull() {
		return c.errorf(cursor, "macro signature must be a sexp; found %s", describeIf(ok, cursor))
	}
	if err := c.confirmNoAnnotations(cursor, "macro signature"); err != nil {
		return err
	}
	if err := c.readSignature(cursor); err != nil {
		return err
	}

	// body
	if ok, err = c.next(cursor); err != nil {
		return err
	}
	if !ok {
		return c.errorf(cursor, "macro definition is missing a template body expression")
	}
	if err := c.compileBodyExpression(cursor); err != nil {
		return err
	}
	if ok, err = c.next(cursor); err != nil {
		return err
	}
	if ok {
		return c.errorf(cursor, "unexpected %s after template body expression", describe(cursor))
	}
	return nil
}

func (c *Compiler) readSignature(cursor Cursor) error {
	if err := cursor.StepIn(); err != nil {
		return err
	}

	var elements []signatureElement
	for cursor.Next() {
		e := signatureElement{
			ionType:     cursor.Type(),
			annotations: cursor.Annotations(),
			position:    cursor.Position(),
		}
		if cursor.Type() == ion.Symbol && !cursor.IsNull() {
			symbol, err := cursor.SymbolValue()
			if err != nil {
				return err
			}
			e.text = symbol.Text
			e.symbol = true
		}
		elements = append(elements, e)
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if err := cursor.StepOut(); err != nil {
		return err
	}

	signature, err := parseSignature(elements)
	if err != nil {
		return err
	}
	c.signature = signature
	return nil
}

// compileBodyExpression compiles the value under the cursor.
func (c *Compiler) compileBodyExpression(cursor Cursor) error {
	annotations := cursor.Annotations()

	if cursor.IsNull() {
		c.add(macro.NewNull(cursor.Type()), annotations)
		return nil
	}

	switch cursor.Type() {
	case ion.Bool:
		v, err := cursor.BoolValue()
		if err != nil {
			return err
		}
		c.add(macro.NewBool(v), annotations)
	case ion.Int:
		v, err := cursor.IntValue()
		if err != nil {
			return err
		}
		c.add(macro.NewBigInt(v), annotations)
	case ion.Float:
		v, err := cursor.FloatValue()
		if err != nil {
			return err
		}
		c.add(macro.NewFloat(v), annotations)
	case ion.Decimal:
		v, err := cursor.DecimalValue()
		if err != nil {
			return err
		}
		c.add(macro.NewDecimal(v), annotations)
	case ion.TimestampType:
		v, err := cursor.TimestampValue()
		if err != nil {
			return err
		}
		c.add(macro.NewTimestamp(v), annotations)
	case ion.String:
		v, err := cursor.StringValue()
		if err != nil {
			return err
		}
		c.add(macro.NewString(v), annotations)
	case ion.Symbol:
		v, err := cursor.SymbolValue()
		if err != nil {
			return err
		}
		c.add(macro.NewSymbolToken(v), annotations)
	case ion.Blob, ion.Clob:
		v, err := cursor.LobValue()
		if err != nil {
			return err
		}
		if cursor.Type() == ion.Blob {
			c.add(macro.NewBlob(v), annotations)
		} else {
			c.add(macro.NewClob(v), annotations)
		}
	case ion.List:
		return c.compileList(cursor, annotations)
	case ion.SExp:
		return c.compileSExp(cursor, annotations)
	case ion.Struct:
		return c.compileStruct(cursor, annotations)
	default:
		return c.errorf(cursor, "unexpected value of type %s", cursor.Type())
	}
	return nil
}

func (c *Compiler) add(e macro.Expression, annotations []ion.SymbolToken) {
	c.builder.Add(e.WithAnnotations(annotations...))
}

func (c *Compiler) compileList(cursor Cursor, annotations []ion.SymbolToken) error {
	start := c.builder.Reserve()
	if err := cursor.StepIn(); err != nil {
		return err
	}
	if err := c.compileTail(cursor); err != nil {
		return err
	}
	return c.builder.Patch(start, macro.NewList(start, c.builder.Len()).WithAnnotations(annotations...))
}

func (c *Compiler) compileStruct(cursor Cursor, annotations []ion.SymbolToken) error {
	start := c.builder.Reserve()
	if err := cursor.StepIn(); err != nil {
		return err
	}
	for cursor.Next() {
		name, ok := cursor.FieldName()
		if !ok {
			return c.errorf(cursor, "struct field without a field name")
		}
		c.builder.Add(macro.NewFieldNameToken(name))
		if err := c.compileBodyExpression(cursor); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if err := cursor.StepOut(); err != nil {
		return err
	}
	return c.builder.Patch(start, macro.NewStruct(start, c.builder.Len()).WithAnnotations(annotations...))
}

// compileSExp compiles a sexp that may be a variable expansion, an expression
// group, a macro invocation, or plain data.
func (c *Compiler) compileSExp(cursor Cursor, annotations []ion.SymbolToken) error {
	start := c.builder.Reserve()
	if err := cursor.StepIn(); err != nil {
		return err
	}

	ok, err := c.next(cursor)
	if err != nil {
		return err
	}

	if ok && cursor.Type() == ion.Symbol && !cursor.IsNull() {
		operator, err := cursor.SymbolValue()
		if err != nil {
			return err
		}
		switch operator.Text {
		case variableSigil:
			if err := c.confirmNotAnnotated(cursor, annotations, "variable expansion"); err != nil {
				return err
			}
			return c.compileVariableExpansion(cursor, start)
		case groupSigil:
			if err := c.confirmNotAnnotated(cursor, annotations, "expression group"); err != nil {
				return err
			}
			if err := c.compileTail(cursor); err != nil {
				return err
			}
			return c.builder.Patch(start, macro.NewExpressionGroup(start, c.builder.Len()))
		case invocationSigil:
			if err := c.confirmNotAnnotated(cursor, annotations, "macro invocation"); err != nil {
				return err
			}
			return c.compileInvocation(cursor, start)
		}
	}

	if ok {
		if err := c.compileBodyExpression(cursor); err != nil {
			return err
		}
	}
	if err := c.compileTail(cursor); err != nil {
		return err
	}
	return c.builder.Patch(start, macro.NewSExp(start, c.builder.Len()).WithAnnotations(annotations...))
}

func (c *Compiler) compileVariableExpansion(cursor Cursor, start int) error {
	ok, err := c.next(cursor)
	if err != nil {
		return err
	}
	if !ok || cursor.Type() != ion.Symbol || cursor.IsNull() {
		return c.errorf(cursor, "variable names must be symbols; found %s", describeIf(ok, cursor))
	}
	name, err := cursor.SymbolValue()
	if err != nil {
		return err
	}
	if err := c.confirmNoAnnotations(cursor, fmt.Sprintf("variable reference '%s'", name)); err != nil {
		return err
	}

	index := slices.IndexFunc(c.signature, func(p macro.Parameter) bool { return p.Name == name.Text })
	if index < 0 {
		return c.errorf(cursor, "variable '%s' is not recognized", name)
	}

	if ok, err = c.next(cursor); err != nil {
		return err
	}
	if ok {
		return c.errorf(cursor, "variable expansion should contain only the variable name")
	}
	if err := cursor.StepOut(); err != nil {
		return err
	}
	return c.builder.Patch(start, macro.NewVariableRef(index))
}

func (c *Compiler) compileInvocation(cursor Cursor, start int) error {
	ok, err := c.next(cursor)
	if err != nil {
		return err
	}
	if !ok {
		return c.errorf(cursor, "macro invocation must start with an id (int) or identifier (symbol); found nothing")
	}
	position := cursor.Position()
	m, ref, err := c.readMacroReference(cursor)
	if err != nil {
		return err
	}

	if err := c.compileTail(cursor); err != nil {
		return err
	}
	if _, err := macro.CalculateArgumentIndices(m.Signature(), c.builder.Expressions(), start+1, c.builder.Len()); err != nil {
		return fmt.Errorf("%w: invocation of %s at %s: %w", ionmacro.ErrCompile, ref, position, err)
	}
	return c.builder.Patch(start, macro.NewMacroInvocation(m, start, c.builder.Len()))
}

// readMacroReference resolves the macro id or name under the cursor. A
// $ion:: annotation selects the system macros, including special forms.
func (c *Compiler) readMacroReference(cursor Cursor) (macro.Macro, macro.MacroRef, error) {
	annotations := cursor.Annotations()
	qualified := false
	switch {
	case len(annotations) == 0:
	case len(annotations) == 1 && annotations[0].Text == macro.SystemModule:
		qualified = true
	default:
		return nil, macro.MacroRef{}, c.errorf(cursor, "macro reference may only be qualified with %s; found %s", macro.SystemModule, ion.FormatAnnotations(annotations))
	}

	var ref macro.MacroRef
	switch {
	case cursor.Type() == ion.Symbol && !cursor.IsNull():
		name, err := cursor.SymbolValue()
		if err != nil {
			return nil, ref, err
		}
		ref = macro.ByName(name.Text)
	case cursor.Type() == ion.Int && !cursor.IsNull():
		id, err := cursor.IntValue()
		if err != nil {
			return nil, ref, err
		}
		if id.Sign() < 0 || !id.IsInt64() {
			return nil, ref, c.errorf(cursor, "macro id must be a non-negative int; found %s", id)
		}
		ref = macro.ByID(int(id.Int64()))
	default:
		return nil, ref, c.errorf(cursor, "macro invocation must start with an id (int) or identifier (symbol); found %s", describe(cursor))
	}

	if qualified {
		ref = ref.InModule(macro.SystemModule)
	}
	m, err := c.resolve(ref)
	if err != nil {
		return nil, ref, fmt.Errorf("%w: unrecognized macro %s at %s: %w", ionmacro.ErrCompile, ref, cursor.Position(), err)
	}
	return m, ref, nil
}

func (c *Compiler) resolve(ref macro.MacroRef) (macro.Macro, error) {
	if ref.Module == "" && c.resolver != nil {
		return c.resolver(ref)
	}

	var (
		m  *macro.SystemMacro
		ok bool
	)
	if ref.IsByID() {
		m, ok = macro.SystemMacroByID(ref.ID)
	} else {
		m, ok = macro.SystemMacroOrSpecialForm(ref.Name)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ionmacro.ErrUnknownMacro, ref)
	}
	return m, nil
}

// compileTail compiles the remaining values of the current container and steps out.
func (c *Compiler) compileTail(cursor Cursor) error {
	for cursor.Next() {
		if err := c.compileBodyExpression(cursor); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	return cursor.StepOut()
}

func (c *Compiler) next(cursor Cursor) (bool, error) {
	if cursor.Next() {
		return true, nil
	}
	return false, cursor.Err()
}

func (c *Compiler) confirmNoAnnotations(cursor Cursor, location string) error {
	if len(cursor.Annotations()) > 0 {
		return c.errorf(cursor, "found annotations on %s", location)
	}
	return nil
}

// confirmNotAnnotated checks both the enclosing sexp and its operator.
func (c *Compiler) confirmNotAnnotated(cursor Cursor, sexpAnnotations []ion.SymbolToken, what string) error {
	if len(sexpAnnotations) > 0 {
		return c.errorf(cursor, "%s may not be annotated", what)
	}
	return c.confirmNoAnnotations(cursor, what+" operator")
}

func (c *Compiler) errorf(cursor Cursor, format string, args ...any) error {
	return fmt.Errorf("%w: %s at %s", ionmacro.ErrCompile, fmt.Sprintf(format, args...), cursor.Position())
}

func isSymbol(cursor Cursor, text string) bool {
	if cursor.Type() != ion.Symbol || cursor.IsNull() {
		return false
	}
	symbol, err := cursor.SymbolValue()
	return err == nil && symbol.Text == text
}

func describe(cursor Cursor) string {
	if cursor.IsNull() && cursor.Type() != ion.Null {
		return "null." + cursor.Type().String()
	}
	return cursor.Type().String()
}

func describeIf(ok bool, cursor Cursor) string {
	if !ok {
		return "nothing"
	}
	return describe(cursor)
}
