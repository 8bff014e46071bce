package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
)

// WriteText drains src and writes every top-level value as Ion text on its
// own line.
func WriteText(w io.Writer, src Source, opts ...Option) error {
	tw := &textWriter{w: bufio.NewWriter(w), options: newOptions(opts)}
	for {
		v, ok, err := src.ExpandNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := tw.value(src, v, 0); err != nil {
			return err
		}
		tw.w.WriteByte('\n')
	}
	return tw.w.Flush()
}

// Text drains src into a string, one value per line.
func Text(src Source, opts ...Option) (string, error) {
	var b strings.Builder
	if err := WriteText(&b, src, opts...); err != nil {
		return "", err
	}
	return b.String(), nil
}

type textWriter struct {
	w *bufio.Writer
	options
}

func (tw *textWriter) value(src Source, v macro.Expression, depth int) error {
	if !v.Kind.IsContainer() {
		tw.w.WriteString(v.String())
		return nil
	}

	open, closing, separator := "[", "]", ","
	switch v.Kind {
	case macro.SExp:
		open, closing, separator = "(", ")", " "
	case macro.Struct:
		open, closing = "{", "}"
	}

	tw.w.WriteString(ion.FormatAnnotations(v.Annotations))
	tw.w.WriteString(open)
	if err := src.StepIn(); err != nil {
		return err
	}
	count := 0
	err := children(src, func(field *macro.Expression, child macro.Expression) error {
		if count > 0 {
			switch {
			case separator == ",":
				tw.w.WriteByte(',')
				if !tw.pretty {
					tw.w.WriteByte(' ')
				}
			case !tw.pretty:
				tw.w.WriteString(separator)
			}
		}
		tw.newline(depth + 1)
		if v.Kind == macro.Struct && field != nil {
			tw.w.WriteString(ion.FormatSymbol(field.SymbolValue))
			tw.w.WriteString(": ")
		}
		count++
		return tw.value(src, child, depth+1)
	})
	if err != nil {
		return err
	}
	if err := src.StepOut(); err != nil {
		return err
	}
	if count > 0 {
		tw.newline(depth)
	}
	tw.w.WriteString(closing)
	return nil
}

func (tw *textWriter) newline(depth int) {
	if !tw.pretty {
		return
	}
	tw.w.WriteByte('\n')
	tw.w.WriteString(strings.Repeat(tw.indent, depth))
}
