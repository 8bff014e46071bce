package render

import (
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToJSON drains src and marshals the values as one JSON array. Annotations
// are dropped, sexps become arrays, lobs become base64 strings and
// timestamps become Ion text.
func ToJSON(src Source, opts ...Option) ([]byte, error) {
	values, err := ToValues(src)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	marshal := protojson.MarshalOptions{Multiline: o.pretty, Indent: o.indent}
	return marshal.Marshal(&structpb.ListValue{Values: values})
}

// ToValues drains src into protobuf struct values.
func ToValues(src Source) ([]*structpb.Value, error) {
	var result []*structpb.Value
	for {
		v, ok, err := src.ExpandNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		value, err := toValue(src, v)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
}

func toValue(src Source, v macro.Expression) (*structpb.Value, error) {
	switch v.Kind {
	case macro.Null:
		return structpb.NewNullValue(), nil
	case macro.Bool:
		return structpb.NewBoolValue(v.BoolValue), nil
	case macro.Int:
		return structpb.NewNumberValue(float64(v.IntValue)), nil
	case macro.BigInt:
		f, _ := new(big.Float).SetInt(v.BigIntValue).Float64()
		return structpb.NewNumberValue(f), nil
	case macro.Float:
		return structpb.NewNumberValue(v.FloatValue), nil
	case macro.Decimal:
		return structpb.NewNumberValue(v.DecimalValue.InexactFloat64()), nil
	case macro.Timestamp:
		return structpb.NewStringValue(v.TimestampValue.String()), nil
	case macro.String:
		return structpb.NewStringValue(v.StringValue), nil
	case macro.Symbol:
		if text, ok := v.TextValue(); ok {
			return structpb.NewStringValue(text), nil
		}
		return structpb.NewStringValue(ion.FormatSymbol(v.SymbolValue)), nil
	case macro.Blob:
		return structpb.NewStringValue(base64.StdEncoding.EncodeToString(v.LobValue)), nil
	case macro.Clob:
		return structpb.NewStringValue(string(v.LobValue)), nil
	case macro.List, macro.SExp:
		list := &structpb.ListValue{}
		err := container(src, func(_ *macro.Expression, child macro.Expression) error {
			value, err := toValue(src, child)
			if err != nil {
				return err
			}
			list.Values = append(list.Values, value)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewListValue(list), nil
	case macro.Struct:
		fields := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		err := container(src, func(field *macro.Expression, child macro.Expression) error {
			if field == nil {
				return fmt.Errorf("%w: struct value without a field name", ionmacro.ErrInvalidExpression)
			}
			value, err := toValue(src, child)
			if err != nil {
				return err
			}
			name := field.SymbolValue.Text
			if !field.SymbolValue.HasText() {
				name = ion.FormatSymbol(field.SymbolValue)
			}
			// JSON objects cannot repeat a key; the last value wins
			fields.Fields[name] = value
			return nil
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(fields), nil
	}
	return nil, fmt.Errorf("%w: cannot convert %s to JSON", ionmacro.ErrInvalidExpression, v.Kind)
}

func container(src Source, fn func(field *macro.Expression, v macro.Expression) error) error {
	if err := src.StepIn(); err != nil {
		return err
	}
	if err := children(src, fn); err != nil {
		return err
	}
	return src.StepOut()
}
