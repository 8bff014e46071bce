package textreader

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
)

// DecodeEExpressions parses Ion text that may contain e-expressions and
// returns it as one flat expression list. Macros are resolved against table
// and every invocation's argument count is checked.
//
//	(:name args...)   invoke by name
//	(:12 args...)     invoke by address
//	(:$ion::name ...) invoke a system macro
//	(:: a b c)        expression group, only as an argument
func DecodeEExpressions(src string, table *macro.Table) ([]macro.Expression, error) {
	values, err := parse(src, true)
	if err != nil {
		return nil, err
	}
	return flatten(values, table)
}

// flatten converts parsed values into a flat expression list.
func flatten(values []*Value, table *macro.Table) ([]macro.Expression, error) {
	d := &decoder{table: table, builder: macro.NewBuilder()}
	for _, v := range values {
		if err := d.emit(v, false); err != nil {
			return nil, err
		}
	}
	return d.builder.Build()
}

type decoder struct {
	table   *macro.Table
	builder *macro.Builder
}

func (d *decoder) emit(v *Value, inArguments bool) error {
	switch v.Form {
	case FormEExpression:
		return d.emitEExpression(v)
	case FormGroup:
		if !inArguments {
			return fmt.Errorf("%w at %s", ErrGroupOutsideInvoke, v.Position)
		}
		start := d.builder.Reserve()
		for _, child := range v.Children {
			if err := d.emit(child, false); err != nil {
				return err
			}
		}
		return d.builder.Patch(start, macro.NewExpressionGroup(start, d.builder.Len()))
	}

	if v.Null || !v.Type.IsContainer() {
		d.builder.Add(scalarExpression(v))
		return nil
	}

	start := d.builder.Reserve()
	for _, child := range v.Children {
		if v.Type == ion.Struct {
			d.builder.Add(macro.NewFieldNameToken(child.FieldName))
		}
		if err := d.emit(child, false); err != nil {
			return err
		}
	}
	end := d.builder.Len()

	var e macro.Expression
	switch v.Type {
	case ion.List:
		e = macro.NewList(start, end)
	case ion.SExp:
		e = macro.NewSExp(start, end)
	default:
		e = macro.NewStruct(start, end)
	}
	return d.builder.Patch(start, e.WithAnnotations(v.Annotations...))
}

func (d *decoder) emitEExpression(v *Value) error {
	m, err := d.table.Resolve(v.MacroRef)
	if err != nil {
		return fmt.Errorf("%w at %s", err, v.Position)
	}
	if sm, ok := m.(*macro.SystemMacro); ok && sm.IsSpecialForm() {
		return fmt.Errorf("%w: special form '%s' cannot be invoked from data at %s", ionmacro.ErrUnknownMacro, sm.Name(), v.Position)
	}

	start := d.builder.Reserve()
	for _, child := range v.Children {
		if err := d.emit(child, true); err != nil {
			return err
		}
	}
	if _, err := macro.CalculateArgumentIndices(m.Signature(), d.builder.Expressions(), start+1, d.builder.Len()); err != nil {
		return fmt.Errorf("invocation of %s at %s: %w", v.MacroRef, v.Position, err)
	}
	return d.builder.Patch(start, macro.NewEExpression(m, start, d.builder.Len()))
}

// scalarExpression converts a scalar or null value to an expression.
func scalarExpression(v *Value) macro.Expression {
	var e macro.Expression
	switch {
	case v.Null:
		e = macro.NewNull(v.Type)
	case v.Type == ion.Bool:
		e = macro.NewBool(v.Bool)
	case v.Type == ion.Int:
		e = macro.NewBigInt(v.Int)
	case v.Type == ion.Float:
		e = macro.NewFloat(v.Float)
	case v.Type == ion.Decimal:
		e = macro.NewDecimal(v.Decimal)
	case v.Type == ion.TimestampType:
		e = macro.NewTimestamp(v.Timestamp)
	case v.Type == ion.Symbol:
		e = macro.NewSymbolToken(v.Symbol)
	case v.Type == ion.String:
		e = macro.NewString(v.String)
	case v.Type == ion.Blob:
		e = macro.NewBlob(v.Lob)
	case v.Type == ion.Clob:
		e = macro.NewClob(v.Lob)
	}
	return e.WithAnnotations(v.Annotations...)
}
