package evaluator

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/macro"
)

// Environment binds the parameters of one macro invocation to the argument
// expressions at its call site. Environments are immutable and shared by
// every frame expanding inside the invocation.
type Environment struct {
	// Macro is the invoked macro.
	Macro macro.Macro
	// Arguments is the expression list holding the invocation; it is never copied.
	Arguments []macro.Expression
	// ArgumentIndices maps each parameter to a position in Arguments, or -1
	// when the argument was elided.
	ArgumentIndices []int
	// Parent is the environment the arguments are evaluated in.
	Parent *Environment
}

// NewEnvironment creates the environment of an invocation of m whose
// arguments live in arguments and are evaluated under parent.
func NewEnvironment(m macro.Macro, arguments []macro.Expression, indices []int, parent *Environment) *Environment {
	return &Environment{Macro: m, Arguments: arguments, ArgumentIndices: indices, Parent: parent}
}

// Argument returns the argument range bound to the parameter at
// signatureIndex. ok is false for an elided argument.
func (env *Environment) Argument(signatureIndex int) (start, end int, ok bool, err error) {
	if env == nil {
		return 0, 0, false, fmt.Errorf("%w: variable %d referenced outside of a macro body", ionmacro.ErrInvalidExpression, signatureIndex)
	}
	if signatureIndex < 0 || signatureIndex >= len(env.ArgumentIndices) {
		return 0, 0, false, fmt.Errorf("%w: variable %d is out of range for %d parameter(s)", ionmacro.ErrInvalidExpression, signatureIndex, len(env.ArgumentIndices))
	}
	start = env.ArgumentIndices[signatureIndex]
	if start < 0 {
		return 0, 0, false, nil
	}
	return start, macro.ArgumentEnd(env.Arguments, start), true, nil
}

// Depth is the number of environments in the chain.
func (env *Environment) Depth() int {
	depth := 0
	for e := env; e != nil; e = e.Parent {
		depth++
	}
	return depth
}
