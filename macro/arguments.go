package macro

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
)

// CalculateArgumentIndices maps each parameter of signature to the position of
// its argument in expressions[start:end]. Elided arguments get -1, which is
// only allowed for parameters that can be void. A ranged argument (container,
// group, invocation) is consumed whole.
func CalculateArgumentIndices(signature []Parameter, expressions []Expression, start, end int) ([]int, error) {
	indices := make([]int, len(signature))
	current := start

	for i, p := range signature {
		if current >= end {
			if !p.Cardinality.CanBeVoid() {
				return nil, fmt.Errorf("%w: no value provided for parameter '%s'", ionmacro.ErrMissingArgument, p.Name)
			}
			indices[i] = -1
			continue
		}
		indices[i] = current
		current = ArgumentEnd(expressions, current)
	}

	if current < end {
		found := len(signature)
		for current < end {
			current = ArgumentEnd(expressions, current)
			found++
		}
		return nil, fmt.Errorf("%w: expected %d, but found %d", ionmacro.ErrTooManyArguments, len(signature), found)
	}

	return indices, nil
}

// ArgumentEnd returns the end of the argument starting at index.
func ArgumentEnd(expressions []Expression, index int) int {
	e := expressions[index]
	if e.Kind.HasStartAndEnd() {
		return e.EndExclusive
	}
	return index + 1
}
