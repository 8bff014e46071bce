package macro

import (
	"fmt"
	"strings"

	"github.com/shibukawa/ionmacro"
)

// Macro is either a *TemplateMacro or a *SystemMacro. Macros are immutable
// once built; their bodies are shared by every expansion.
type Macro interface {
	Signature() []Parameter
	// Body is the compiled template body, or nil for system macros.
	Body() []Expression
	// Dependencies are the macros invoked by the body, in first-seen order.
	Dependencies() []Macro
}

// TemplateMacro is a macro defined by a flat expression body.
type TemplateMacro struct {
	signature    []Parameter
	body         []Expression
	dependencies []Macro
}

// NewTemplateMacro checks the body and signature and computes the dependencies.
func NewTemplateMacro(signature []Parameter, body []Expression) (*TemplateMacro, error) {
	seen := make(map[string]struct{}, len(signature))
	for _, p := range signature {
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate parameter '%s'", ionmacro.ErrCompile, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	if err := Validate(body); err != nil {
		return nil, err
	}

	var dependencies []Macro
	for i, e := range body {
		switch {
		case e.Kind == VariableRef && e.SignatureIndex >= len(signature):
			return nil, fmt.Errorf("%w: variable %d at index %d is outside the signature", ionmacro.ErrInvalidExpression, e.SignatureIndex, i)
		case e.Kind == EExpression:
			return nil, fmt.Errorf("%w: e-expression at index %d in a template body", ionmacro.ErrInvalidExpression, i)
		case e.Kind == MacroInvocation && !containsMacro(dependencies, e.Macro):
			dependencies = append(dependencies, e.Macro)
		}
	}

	return &TemplateMacro{
		signature:    signature,
		body:         body,
		dependencies: dependencies,
	}, nil
}

func containsMacro(macros []Macro, m Macro) bool {
	for _, existing := range macros {
		if existing == m {
			return true
		}
	}
	return false
}

func (m *TemplateMacro) Signature() []Parameter { return m.signature }
func (m *TemplateMacro) Body() []Expression     { return m.body }
func (m *TemplateMacro) Dependencies() []Macro  { return m.dependencies }

func (m *TemplateMacro) String() string {
	return "template" + signatureString(m.signature)
}

func signatureString(signature []Parameter) string {
	params := make([]string, len(signature))
	for i, p := range signature {
		params[i] = p.String()
	}
	return "(" + strings.Join(params, " ") + ")"
}

func macroLabel(m Macro) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return "?"
}
