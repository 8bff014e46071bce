package evaluator

import "github.com/shibukawa/ionmacro/macro"

type expansionKind uint8

const (
	// templateBody walks the compiled body of a template macro.
	templateBody expansionKind = iota
	// values flattens an argument, an expression group or synthesized data.
	values
	// container walks the children of a value the caller stepped into. It
	// is never popped implicitly.
	container
	// repeat pushes a values frame over its argument once per remaining count.
	repeat
)

var expansionKindNames = [...]string{
	templateBody: "TemplateBody",
	values:       "Values",
	container:    "Container",
	repeat:       "Repeat",
}

func (k expansionKind) String() string {
	return expansionKindNames[k]
}

// frame is one entry of the expansion stack. It borrows expressions and
// walks the range [i, end) of it under env.
type frame struct {
	kind        expansionKind
	expressions []macro.Expression
	i           int
	end         int
	env         *Environment
	// macro is the invoked macro for templateBody and repeat frames.
	macro macro.Macro
	// remaining is the number of repetitions left for a repeat frame. The
	// repeated argument is [start, end) of expressions.
	remaining uint64
	start     int
}

func (f *frame) exhausted() bool {
	return f.i >= f.end
}
