// Package render drains an expansion stream, stepping in and out of
// containers, into Ion text or JSON.
package render

import "github.com/shibukawa/ionmacro/macro"

// Source is a pull stream of data-model values. *evaluator.Evaluator
// implements it.
type Source interface {
	ExpandNext() (macro.Expression, bool, error)
	StepIn() error
	StepOut() error
}

// Option configures rendering.
type Option func(*options)

type options struct {
	pretty bool
	indent string
}

// Pretty puts every container child on its own indented line.
func Pretty() Option {
	return func(o *options) {
		o.pretty = true
	}
}

func newOptions(opts []Option) options {
	o := options{indent: "  "}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// children reads the values of the container src was just stepped into. A
// field that expands to several values names each of them.
func children(src Source, fn func(field *macro.Expression, v macro.Expression) error) error {
	var (
		field    macro.Expression
		hasField bool
	)
	for {
		v, ok, err := src.ExpandNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if v.Kind == macro.FieldName {
			field, hasField = v, true
			continue
		}
		var name *macro.Expression
		if hasField {
			name = &field
		}
		if err := fn(name, v); err != nil {
			return err
		}
	}
}
