package macro

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
)

// Builder appends expressions to a flat list. Containers are written by
// reserving their slot, appending the children, then patching the slot:
//
//	start := b.Reserve()
//	b.Add(NewInt(1))
//	b.Patch(start, NewList(start, b.Len()))
type Builder struct {
	expressions  []Expression
	placeholders int
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Len is the index the next added expression will get.
func (b *Builder) Len() int {
	return len(b.expressions)
}

// Expressions returns the list built so far. Reserved slots still hold placeholders.
func (b *Builder) Expressions() []Expression {
	return b.expressions
}

// Add appends e and returns its index.
func (b *Builder) Add(e Expression) int {
	b.expressions = append(b.expressions, e)
	if e.Kind == Placeholder {
		b.placeholders++
	}
	return len(b.expressions) - 1
}

// Reserve appends a placeholder and returns its index.
func (b *Builder) Reserve() int {
	return b.Add(NewPlaceholder())
}

// Patch overwrites the placeholder at index.
func (b *Builder) Patch(index int, e Expression) error {
	if index < 0 || index >= len(b.expressions) || b.expressions[index].Kind != Placeholder {
		return fmt.Errorf("%w: no placeholder at index %d", ionmacro.ErrInvalidExpression, index)
	}
	if e.Kind == Placeholder {
		return fmt.Errorf("%w: cannot patch a placeholder with a placeholder", ionmacro.ErrInvalidExpression)
	}
	b.expressions[index] = e
	b.placeholders--
	return nil
}

// Build returns the finished list after checking it with Validate.
func (b *Builder) Build() ([]Expression, error) {
	if b.placeholders > 0 {
		return nil, fmt.Errorf("%w: %d placeholder(s) never patched", ionmacro.ErrInvalidExpression, b.placeholders)
	}
	if err := Validate(b.expressions); err != nil {
		return nil, err
	}
	return b.expressions, nil
}

// Validate checks that every ranged expression sits at its own index, that
// ranges nest properly and stay in bounds, and that no placeholder remains.
func Validate(expressions []Expression) error {
	// end indexes of the enclosing ranges
	var open []int

	for i, e := range expressions {
		for len(open) > 0 && open[len(open)-1] <= i {
			open = open[:len(open)-1]
		}

		switch {
		case e.Kind == Placeholder:
			return fmt.Errorf("%w: placeholder at index %d", ionmacro.ErrInvalidExpression, i)
		case e.Kind == VariableRef && e.SignatureIndex < 0:
			return fmt.Errorf("%w: negative variable index at %d", ionmacro.ErrInvalidExpression, i)
		case e.Kind.IsInvocation() && e.Macro == nil:
			return fmt.Errorf("%w: invocation without macro at %d", ionmacro.ErrInvalidExpression, i)
		}

		if !e.Kind.HasStartAndEnd() {
			continue
		}
		if e.SelfIndex != i {
			return fmt.Errorf("%w: %s at index %d claims self index %d", ionmacro.ErrInvalidExpression, e.Kind, i, e.SelfIndex)
		}
		if e.EndExclusive <= i || e.EndExclusive > len(expressions) {
			return fmt.Errorf("%w: %s at index %d ends out of bounds at %d", ionmacro.ErrInvalidExpression, e.Kind, i, e.EndExclusive)
		}
		if len(open) > 0 && e.EndExclusive > open[len(open)-1] {
			return fmt.Errorf("%w: %s at index %d overlaps its parent range", ionmacro.ErrInvalidExpression, e.Kind, i)
		}
		open = append(open, e.EndExclusive)
	}

	return nil
}
