package evaluator

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	"github.com/shopspring/decimal"
)

// expandSystemMacro starts the native expansion of a system macro whose
// arguments are bound in env.
func (e *Evaluator) expandSystemMacro(m *macro.SystemMacro, env *Environment) error {
	switch m {
	case macro.None:
		return nil
	case macro.Values:
		return e.pushArgument(env, 0)
	case macro.Repeat:
		return e.expandRepeat(env)
	case macro.IfNone, macro.IfSome, macro.IfSingle, macro.IfMulti:
		return e.expandBranch(m, env)
	}

	var (
		synthesized []macro.Expression
		err         error
	)
	switch m {
	case macro.MakeString:
		synthesized, err = e.makeText(env, macro.NewString)
	case macro.MakeSymbol:
		synthesized, err = e.makeText(env, macro.NewSymbol)
	case macro.MakeBlob:
		synthesized, err = e.makeBlob(env)
	case macro.MakeDecimal:
		synthesized, err = e.makeDecimal(env)
	case macro.MakeTimestamp:
		synthesized, err = e.makeTimestamp(env)
	case macro.Sum:
		synthesized, err = e.sum(env)
	case macro.Delta:
		synthesized, err = e.delta(env)
	case macro.Flatten:
		synthesized, err = e.flatten(env)
	case macro.Annotate:
		synthesized, err = e.annotate(env)
	case macro.MakeField:
		synthesized, err = e.makeField(env)
	default:
		return fmt.Errorf("%w: no expansion for system macro %s", ionmacro.ErrUnknownMacro, m.Name())
	}
	if err != nil {
		return err
	}
	e.push(&frame{kind: values, expressions: synthesized, end: len(synthesized)})
	return nil
}

// argumentStream returns an evaluator draining the argument bound to the
// parameter at index. It shares the step counter of e.
func (e *Evaluator) argumentStream(env *Environment, index int) (*Evaluator, error) {
	if e.nesting >= maxNesting {
		return nil, fmt.Errorf("%w: native macros nested deeper than %d", ionmacro.ErrExpansionLimit, maxNesting)
	}
	stream := &Evaluator{session: e.session, nesting: e.nesting + 1}
	if err := stream.pushArgument(env, index); err != nil {
		return nil, err
	}
	return stream, nil
}

// singleValue drains an argument that must expand to exactly one value and
// returns it along with the stream positioned on it.
func (e *Evaluator) singleValue(env *Environment, index int) (macro.Expression, *Evaluator, error) {
	stream, err := e.argumentStream(env, index)
	if err != nil {
		return macro.Expression{}, nil, err
	}
	v, ok, err := stream.ExpandNext()
	if err != nil {
		return macro.Expression{}, nil, err
	}
	if !ok {
		return macro.Expression{}, nil, fmt.Errorf("%w: '%s' expects exactly one value, found none", ionmacro.ErrArgumentType, parameterName(env, index))
	}
	return v, stream, nil
}

// expectEnd fails if stream still has values at its current depth.
func expectEnd(env *Environment, index int, stream *Evaluator) error {
	_, ok, err := stream.ExpandNext()
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: '%s' expects exactly one value, found more", ionmacro.ErrArgumentType, parameterName(env, index))
	}
	return nil
}

func (e *Evaluator) makeText(env *Environment, construct func(string) macro.Expression) ([]macro.Expression, error) {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for {
		v, ok, err := stream.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if v.Kind == macro.Null {
			continue
		}
		text, ok := v.TextValue()
		if !ok {
			return nil, fmt.Errorf("%w: expected text, found %s", ionmacro.ErrArgumentType, describe(v))
		}
		b.WriteString(text)
	}
	return []macro.Expression{construct(b.String())}, nil
}

func (e *Evaluator) makeBlob(env *Environment) ([]macro.Expression, error) {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return nil, err
	}
	blob := []byte{}
	for {
		v, ok, err := stream.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if v.Kind == macro.Null {
			continue
		}
		if !v.Kind.IsLob() {
			return nil, fmt.Errorf("%w: expected a blob or clob, found %s", ionmacro.ErrArgumentType, describe(v))
		}
		blob = append(blob, v.LobValue...)
	}
	return []macro.Expression{macro.NewBlob(blob)}, nil
}

func (e *Evaluator) makeDecimal(env *Environment) ([]macro.Expression, error) {
	coefficient, err := e.intArgument(env, 0)
	if err != nil {
		return nil, err
	}
	exponent, err := e.intArgument(env, 1)
	if err != nil {
		return nil, err
	}
	exp := exponent.BigInt()
	if !exp.IsInt64() || exp.Int64() < math.MinInt32 || exp.Int64() > math.MaxInt32 {
		return nil, fmt.Errorf("%w: exponent %s is out of range", ionmacro.ErrArgumentType, exp)
	}
	return []macro.Expression{macro.NewDecimal(decimal.NewFromBigInt(coefficient.BigInt(), int32(exp.Int64())))}, nil
}

func (e *Evaluator) makeTimestamp(env *Environment) ([]macro.Expression, error) {
	year, err := e.intArgument(env, 0)
	if err != nil {
		return nil, err
	}
	fields := ion.TimestampFields{}
	if fields.Year, err = smallInt(env, 0, year); err != nil {
		return nil, err
	}

	optional := []struct {
		index int
		field **int
	}{
		{1, &fields.Month},
		{2, &fields.Day},
		{3, &fields.Hour},
		{4, &fields.Minute},
		{6, &fields.OffsetMinutes},
	}
	for _, o := range optional {
		v, ok, err := e.optionalValue(env, o.index)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		n, err := smallInt(env, o.index, v)
		if err != nil {
			return nil, err
		}
		*o.field = &n
	}

	second, ok, err := e.optionalValue(env, 5)
	if err != nil {
		return nil, err
	}
	if ok {
		var d decimal.Decimal
		switch {
		case second.Kind.IsInt():
			d = decimal.NewFromBigInt(second.BigInt(), 0)
		case second.Kind == macro.Decimal:
			d = second.DecimalValue
		default:
			return nil, fmt.Errorf("%w: 'second' expects an int or decimal, found %s", ionmacro.ErrArgumentType, describe(second))
		}
		fields.Second = &d
	}

	ts, err := fields.Timestamp()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ionmacro.ErrArgumentType, err)
	}
	return []macro.Expression{macro.NewTimestamp(ts)}, nil
}

func (e *Evaluator) sum(env *Environment) ([]macro.Expression, error) {
	a, err := e.intArgument(env, 0)
	if err != nil {
		return nil, err
	}
	b, err := e.intArgument(env, 1)
	if err != nil {
		return nil, err
	}
	return []macro.Expression{macro.NewBigInt(new(big.Int).Add(a.BigInt(), b.BigInt()))}, nil
}

// delta produces the running total of its arguments.
func (e *Evaluator) delta(env *Environment) ([]macro.Expression, error) {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	var result []macro.Expression
	for {
		v, ok, err := stream.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		if !v.Kind.IsInt() {
			return nil, fmt.Errorf("%w: delta expects ints, found %s", ionmacro.ErrArgumentType, describe(v))
		}
		total.Add(total, v.BigInt())
		result = append(result, macro.NewBigInt(total))
	}
}

// flatten splices the children of every list or sexp argument value.
func (e *Evaluator) flatten(env *Environment) ([]macro.Expression, error) {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return nil, err
	}
	b := macro.NewBuilder()
	for {
		v, ok, err := stream.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if v.Kind != macro.List && v.Kind != macro.SExp {
			return nil, fmt.Errorf("%w: flatten expects lists or sexps, found %s", ionmacro.ErrArgumentType, describe(v))
		}
		if err := stream.StepIn(); err != nil {
			return nil, err
		}
		for {
			child, ok, err := stream.ExpandNext()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if err := materialize(b, stream, child); err != nil {
				return nil, err
			}
		}
		if err := stream.StepOut(); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func (e *Evaluator) annotate(env *Environment) ([]macro.Expression, error) {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return nil, err
	}
	var annotations []ion.SymbolToken
	for {
		v, ok, err := stream.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		token, err := symbolArgument(v)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, token)
	}

	v, valueStream, err := e.singleValue(env, 1)
	if err != nil {
		return nil, err
	}
	b := macro.NewBuilder()
	if err := materialize(b, valueStream, v); err != nil {
		return nil, err
	}
	if err := expectEnd(env, 1, valueStream); err != nil {
		return nil, err
	}
	result, err := b.Build()
	if err != nil {
		return nil, err
	}
	result[0] = result[0].WithAnnotations(append(annotations, result[0].Annotations...)...)
	return result, nil
}

func (e *Evaluator) makeField(env *Environment) ([]macro.Expression, error) {
	name, nameStream, err := e.singleValue(env, 0)
	if err != nil {
		return nil, err
	}
	token, err := symbolArgument(name)
	if err != nil {
		return nil, err
	}
	if err := expectEnd(env, 0, nameStream); err != nil {
		return nil, err
	}

	v, valueStream, err := e.singleValue(env, 1)
	if err != nil {
		return nil, err
	}
	b := macro.NewBuilder()
	start := b.Reserve()
	b.Add(macro.NewFieldNameToken(token))
	if err := materialize(b, valueStream, v); err != nil {
		return nil, err
	}
	if err := expectEnd(env, 1, valueStream); err != nil {
		return nil, err
	}
	if err := b.Patch(start, macro.NewStruct(start, b.Len())); err != nil {
		return nil, err
	}
	return b.Build()
}

func (e *Evaluator) expandRepeat(env *Environment) error {
	v, err := e.intArgument(env, 0)
	if err != nil {
		return err
	}
	n := v.BigInt()
	if n.Sign() < 0 || !n.IsUint64() {
		return fmt.Errorf("%w: repeat count must be a non-negative int, found %s", ionmacro.ErrArgumentType, n)
	}
	start, end, ok, err := env.Argument(1)
	if err != nil || !ok {
		return err
	}
	e.push(&frame{kind: repeat, expressions: env.Arguments, start: start, end: end, env: env.Parent, remaining: n.Uint64()})
	return nil
}

// expandBranch drains the first argument just far enough to classify it as
// none, single or multi, then expands the chosen branch.
func (e *Evaluator) expandBranch(m *macro.SystemMacro, env *Environment) error {
	stream, err := e.argumentStream(env, 0)
	if err != nil {
		return err
	}
	n := 0
	for n < 2 {
		_, ok, err := stream.ExpandNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
	}

	var take bool
	switch m {
	case macro.IfNone:
		take = n == 0
	case macro.IfSome:
		take = n > 0
	case macro.IfSingle:
		take = n == 1
	case macro.IfMulti:
		take = n > 1
	}
	if take {
		return e.pushArgument(env, 1)
	}
	return e.pushArgument(env, 2)
}

// intArgument reads an argument that must expand to one non-null int.
func (e *Evaluator) intArgument(env *Environment, index int) (macro.Expression, error) {
	v, stream, err := e.singleValue(env, index)
	if err != nil {
		return macro.Expression{}, err
	}
	if !v.Kind.IsInt() {
		return macro.Expression{}, fmt.Errorf("%w: '%s' expects an int, found %s", ionmacro.ErrArgumentType, parameterName(env, index), describe(v))
	}
	if err := expectEnd(env, index, stream); err != nil {
		return macro.Expression{}, err
	}
	return v, nil
}

// optionalValue reads an argument that may expand to at most one value.
func (e *Evaluator) optionalValue(env *Environment, index int) (macro.Expression, bool, error) {
	stream, err := e.argumentStream(env, index)
	if err != nil {
		return macro.Expression{}, false, err
	}
	v, ok, err := stream.ExpandNext()
	if err != nil || !ok {
		return macro.Expression{}, false, err
	}
	_, more, err := stream.ExpandNext()
	if err != nil {
		return macro.Expression{}, false, err
	}
	if more {
		return macro.Expression{}, false, fmt.Errorf("%w: '%s' expects at most one value, found more", ionmacro.ErrArgumentType, parameterName(env, index))
	}
	return v, true, nil
}

// smallInt converts an int argument value to an int within the int32 range.
func smallInt(env *Environment, index int, v macro.Expression) (int, error) {
	if !v.Kind.IsInt() {
		return 0, fmt.Errorf("%w: '%s' expects an int, found %s", ionmacro.ErrArgumentType, parameterName(env, index), describe(v))
	}
	n := v.BigInt()
	if !n.IsInt64() || n.Int64() < math.MinInt32 || n.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("%w: '%s' value %s is out of range", ionmacro.ErrArgumentType, parameterName(env, index), n)
	}
	return int(n.Int64()), nil
}

// materialize copies v, and everything below it when it is a container, from
// stream into b.
func materialize(b *macro.Builder, stream *Evaluator, v macro.Expression) error {
	if !v.Kind.IsContainer() {
		b.Add(v)
		return nil
	}

	start := b.Reserve()
	if err := stream.StepIn(); err != nil {
		return err
	}
	var (
		field    macro.Expression
		hasField bool
	)
	for {
		child, ok, err := stream.ExpandNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if child.Kind == macro.FieldName {
			field, hasField = child, true
			continue
		}
		if v.Kind == macro.Struct {
			if !hasField {
				return fmt.Errorf("%w: struct value without a field name", ionmacro.ErrInvalidExpression)
			}
			b.Add(field)
		}
		if err := materialize(b, stream, child); err != nil {
			return err
		}
	}
	if err := stream.StepOut(); err != nil {
		return err
	}

	var patched macro.Expression
	switch v.Kind {
	case macro.List:
		patched = macro.NewList(start, b.Len())
	case macro.SExp:
		patched = macro.NewSExp(start, b.Len())
	default:
		patched = macro.NewStruct(start, b.Len())
	}
	return b.Patch(start, patched.WithAnnotations(v.Annotations...))
}

func symbolArgument(v macro.Expression) (ion.SymbolToken, error) {
	switch v.Kind {
	case macro.Symbol:
		return v.SymbolValue, nil
	case macro.String:
		return ion.NewSymbolToken(v.StringValue), nil
	}
	return ion.SymbolToken{}, fmt.Errorf("%w: expected a non-null symbol or string, found %s", ionmacro.ErrArgumentType, describe(v))
}

func parameterName(env *Environment, index int) string {
	if env.Macro == nil || index >= len(env.Macro.Signature()) {
		return fmt.Sprintf("#%d", index)
	}
	return env.Macro.Signature()[index].Name
}

func describe(v macro.Expression) string {
	if v.Kind == macro.Null && v.NullType != ion.Null {
		return "null." + v.NullType.String()
	}
	return v.Type().String()
}
