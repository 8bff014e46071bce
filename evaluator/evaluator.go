// Package evaluator expands macro invocations into a flat pull stream of
// data-model values.
package evaluator

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
)

const (
	// DefaultExpansionLimit bounds the steps of one expansion session.
	DefaultExpansionLimit = 1_000_000

	// maxNesting bounds how deeply native macros may drain argument streams
	// of other native macros.
	maxNesting = 10_000
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithExpansionLimit sets the maximum number of steps of one session. Every
// produced value and every macro invocation is a step. Values below one
// select DefaultExpansionLimit.
func WithExpansionLimit(limit int) Option {
	return func(e *Evaluator) {
		if limit < 1 {
			limit = DefaultExpansionLimit
		}
		e.session.limit = limit
	}
}

// WithTrace installs a hook receiving every change of the expansion stack.
func WithTrace(fn func(TraceEvent)) Option {
	return func(e *Evaluator) {
		e.session.trace = fn
	}
}

// WithMacroNames sets how macros are named in traces and errors, typically
// (*macro.Table).NameOf.
func WithMacroNames(fn func(macro.Macro) string) Option {
	return func(e *Evaluator) {
		e.session.namer = fn
	}
}

// session is shared by an evaluator and the argument streams its native
// macros drain.
type session struct {
	limit int
	steps int
	trace func(TraceEvent)
	namer func(macro.Macro) string
}

func (s *session) count() error {
	s.steps++
	if s.steps > s.limit {
		return fmt.Errorf("%w: more than %d steps", ionmacro.ErrExpansionLimit, s.limit)
	}
	return nil
}

func (s *session) name(m macro.Macro) string {
	if s.namer != nil {
		return s.namer(m)
	}
	return fmt.Sprint(m)
}

// Evaluator is a resumable expansion state machine. It keeps an explicit
// stack of frames, so macro nesting never grows the Go call stack. An
// Evaluator is not safe for concurrent use.
type Evaluator struct {
	session *session
	stack   []*frame
	nesting int
	// depth counts the container frames on the stack.
	depth int

	current     macro.Expression
	hasCurrent  bool
	currentFrom []macro.Expression
	currentEnv  *Environment
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{session: &session{limit: DefaultExpansionLimit}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitExpansion starts a new session over a top-level expression list of
// e-expressions and literal values. The step counter is reset.
func (e *Evaluator) InitExpansion(expressions []macro.Expression) error {
	if err := macro.Validate(expressions); err != nil {
		return err
	}
	e.session.steps = 0
	e.stack = e.stack[:0]
	e.depth = 0
	e.clearCurrent()
	if len(expressions) > 0 {
		e.push(&frame{kind: values, expressions: expressions, end: len(expressions)})
	}
	return nil
}

// ExpandNext produces the next value at the current depth. It returns false
// at the end of the stream or of the container stepped into. Inside a struct
// every value is preceded by a FieldName; a field whose value expands to
// several values names each of them.
func (e *Evaluator) ExpandNext() (macro.Expression, bool, error) {
	e.clearCurrent()
	for len(e.stack) > 0 {
		f := e.top()

		if f.kind == repeat {
			if f.remaining == 0 {
				e.pop()
				continue
			}
			if err := e.session.count(); err != nil {
				return macro.Expression{}, false, err
			}
			f.remaining--
			e.push(&frame{kind: values, expressions: f.expressions, i: f.start, end: f.end, env: f.env})
			continue
		}

		if f.exhausted() {
			if f.kind == container {
				return macro.Expression{}, false, nil
			}
			e.pop()
			continue
		}

		expr := f.expressions[f.i]
		switch expr.Kind {
		case macro.Placeholder:
			return macro.Expression{}, false, fmt.Errorf("%w: placeholder at %d", ionmacro.ErrInvalidExpression, f.i)

		case macro.FieldName:
			f.i++
			return expr, true, nil

		case macro.MacroInvocation, macro.EExpression:
			f.i = expr.EndExclusive
			if err := e.invoke(f, expr); err != nil {
				return macro.Expression{}, false, err
			}

		case macro.VariableRef:
			f.i++
			start, end, ok, err := f.env.Argument(expr.SignatureIndex)
			if err != nil {
				return macro.Expression{}, false, err
			}
			if ok {
				// arguments are evaluated where the invocation was written
				e.push(&frame{kind: values, expressions: f.env.Arguments, i: start, end: end, env: f.env.Parent})
			}

		case macro.ExpressionGroup:
			f.i = expr.EndExclusive
			e.push(&frame{kind: values, expressions: f.expressions, i: expr.SelfIndex + 1, end: expr.EndExclusive, env: f.env})

		default:
			if expr.Kind.HasStartAndEnd() {
				f.i = expr.EndExclusive
			} else {
				f.i++
			}
			if err := e.session.count(); err != nil {
				return macro.Expression{}, false, err
			}
			e.current = expr
			e.hasCurrent = true
			e.currentFrom = f.expressions
			e.currentEnv = f.env
			return expr, true, nil
		}
	}
	return macro.Expression{}, false, nil
}

// StepIn descends into the container value last returned by ExpandNext.
func (e *Evaluator) StepIn() error {
	if !e.hasCurrent || !e.current.Kind.IsContainer() {
		return fmt.Errorf("%w: step in requires a non-null container value", ionmacro.ErrNotOnContainer)
	}
	e.push(&frame{
		kind:        container,
		expressions: e.currentFrom,
		i:           e.current.SelfIndex + 1,
		end:         e.current.EndExclusive,
		env:         e.currentEnv,
	})
	e.depth++
	e.clearCurrent()
	return nil
}

// StepOut leaves the innermost container, discarding whatever invocations
// were still open inside it.
func (e *Evaluator) StepOut() error {
	if e.depth == 0 {
		return fmt.Errorf("%w", ionmacro.ErrNothingToStepOutOf)
	}
	for {
		f := e.pop()
		if f.kind == container {
			break
		}
	}
	e.depth--
	e.clearCurrent()
	return nil
}

// Depth is the number of containers stepped into.
func (e *Evaluator) Depth() int {
	return e.depth
}

// Current returns the value last returned by ExpandNext, if any.
func (e *Evaluator) Current() (macro.Expression, bool) {
	return e.current, e.hasCurrent
}

// Type is the Ion type of the current value, or ion.Null when there is none.
func (e *Evaluator) Type() ion.Type {
	if !e.hasCurrent {
		return ion.Null
	}
	return e.current.Type()
}

// Steps reports the steps taken so far in this session.
func (e *Evaluator) Steps() int {
	return e.session.steps
}

// invoke binds the arguments of the invocation at expr and starts expanding
// the macro.
func (e *Evaluator) invoke(f *frame, expr macro.Expression) error {
	m := expr.Macro
	if m == nil {
		return fmt.Errorf("%w: invocation at %d has no macro", ionmacro.ErrInvalidExpression, expr.SelfIndex)
	}
	indices, err := macro.CalculateArgumentIndices(m.Signature(), f.expressions, expr.SelfIndex+1, expr.EndExclusive)
	if err != nil {
		return fmt.Errorf("invocation of %s: %w", e.session.name(m), err)
	}
	if err := e.session.count(); err != nil {
		return err
	}
	e.emit(TraceEvent{Kind: TraceInvoke, Macro: e.session.name(m)})

	env := NewEnvironment(m, f.expressions, indices, f.env)
	if sm, ok := m.(*macro.SystemMacro); ok {
		if err := e.expandSystemMacro(sm, env); err != nil {
			return fmt.Errorf("%s: %w", sm.Name(), err)
		}
		return nil
	}

	body := m.Body()
	e.push(&frame{kind: templateBody, expressions: body, end: len(body), env: env, macro: m})
	return nil
}

// pushArgument pushes a values frame over the argument bound to the
// parameter at index. Elided arguments push nothing.
func (e *Evaluator) pushArgument(env *Environment, index int) error {
	start, end, ok, err := env.Argument(index)
	if err != nil || !ok {
		return err
	}
	e.push(&frame{kind: values, expressions: env.Arguments, i: start, end: end, env: env.Parent})
	return nil
}

func (e *Evaluator) top() *frame {
	return e.stack[len(e.stack)-1]
}

func (e *Evaluator) push(f *frame) {
	e.stack = append(e.stack, f)
	e.emit(TraceEvent{Kind: TracePush, Frame: f.kind.String(), Macro: e.frameMacro(f)})
}

func (e *Evaluator) pop() *frame {
	f := e.top()
	e.stack[len(e.stack)-1] = nil
	e.stack = e.stack[:len(e.stack)-1]
	e.emit(TraceEvent{Kind: TracePop, Frame: f.kind.String(), Macro: e.frameMacro(f)})
	return f
}

func (e *Evaluator) frameMacro(f *frame) string {
	if f.macro == nil {
		return ""
	}
	return e.session.name(f.macro)
}

func (e *Evaluator) emit(event TraceEvent) {
	if e.session.trace == nil {
		return
	}
	event.Depth = len(e.stack)
	event.Nesting = e.nesting
	e.session.trace(event)
}

func (e *Evaluator) clearCurrent() {
	e.current = macro.Expression{}
	e.hasCurrent = false
	e.currentFrom = nil
	e.currentEnv = nil
}
