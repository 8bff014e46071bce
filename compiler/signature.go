package compiler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	pc "github.com/shibukawa/parsercombinator"
)

// signatureElement is one value read from a signature sexp.
type signatureElement struct {
	text        string
	symbol      bool
	ionType     ion.Type
	annotations []ion.SymbolToken
	position    string

	// sigil is attached to the parameter name by the grammar
	sigil *signatureElement
}

func (e signatureElement) isSigil() bool {
	if !e.symbol {
		return false
	}
	_, ok := macro.CardinalityBySigil(e.text)
	return ok
}

func primitiveElement(match func(e signatureElement) bool) pc.Parser[signatureElement] {
	return func(pctx *pc.ParseContext[signatureElement], tokens []pc.Token[signatureElement]) (int, []pc.Token[signatureElement], error) {
		if len(tokens) > 0 && match(tokens[0].Val) {
			return 1, tokens[:1], nil
		}
		return 0, nil, pc.ErrNotMatch
	}
}

var (
	sigil         = primitiveElement(signatureElement.isSigil)
	parameterName = primitiveElement(func(e signatureElement) bool { return e.symbol && !e.isSigil() })

	// parameter = name sigil?
	parameter = pc.Trans(
		pc.Seq(parameterName, pc.Optional(sigil)),
		func(pctx *pc.ParseContext[signatureElement], tokens []pc.Token[signatureElement]) ([]pc.Token[signatureElement], error) {
			name := tokens[0]
			if len(tokens) > 1 {
				s := tokens[1].Val
				name.Val.sigil = &s
			}
			name.Type = "parameter"
			return []pc.Token[signatureElement]{name}, nil
		},
	)

	signatureGrammar = pc.ZeroOrMore("parameters", parameter)
)

func toSignatureTokens(elements []signatureElement) []pc.Token[signatureElement] {
	tokens := make([]pc.Token[signatureElement], len(elements))
	for i, e := range elements {
		tokens[i] = pc.Token[signatureElement]{
			Type: "raw",
			Pos:  &pc.Pos{Index: i},
			Val:  e,
		}
	}
	return tokens
}

// parseSignature turns the values of a signature sexp into parameters.
func parseSignature(elements []signatureElement) ([]macro.Parameter, error) {
	if len(elements) == 0 {
		return nil, nil
	}

	tokens := toSignatureTokens(elements)
	pctx := pc.NewParseContext[signatureElement]()
	consumed, parsed, err := signatureGrammar(pctx, tokens)
	if err != nil && !errors.Is(err, pc.ErrNotMatch) {
		return nil, err
	}

	if consumed < len(tokens) {
		orphan := tokens[consumed].Val
		if !orphan.symbol {
			return nil, fmt.Errorf("%w: parameter must be a symbol; found %s at %s", ionmacro.ErrCompile, orphan.ionType, orphan.position)
		}
		return nil, fmt.Errorf("%w: found an orphaned cardinality '%s' in macro signature at %s", ionmacro.ErrCompile, orphan.text, orphan.position)
	}

	signature := make([]macro.Parameter, 0, len(parsed))
	for _, token := range parsed {
		p, err := toParameter(token.Val)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(signature, func(existing macro.Parameter) bool { return existing.Name == p.Name }) {
			return nil, fmt.Errorf("%w: redeclaration of parameter '%s' at %s", ionmacro.ErrCompile, p.Name, token.Val.position)
		}
		signature = append(signature, p)
	}
	return signature, nil
}

func toParameter(e signatureElement) (macro.Parameter, error) {
	encoding := macro.Tagged
	switch len(e.annotations) {
	case 0:
	case 1:
		var ok bool
		encoding, ok = macro.EncodingByName(e.annotations[0].Text)
		if !ok {
			return macro.Parameter{}, fmt.Errorf("%w: unsupported parameter encoding %s at %s", ionmacro.ErrCompile, e.annotations[0], e.position)
		}
	default:
		return macro.Parameter{}, fmt.Errorf("%w: unsupported parameter encoding %v at %s", ionmacro.ErrCompile, e.annotations, e.position)
	}

	if !ion.IsIdentifier(e.text) {
		return macro.Parameter{}, fmt.Errorf("%w: invalid parameter name '%s' at %s", ionmacro.ErrCompile, e.text, e.position)
	}

	cardinality := macro.ExactlyOne
	if e.sigil != nil {
		if len(e.sigil.annotations) > 0 {
			return macro.Parameter{}, fmt.Errorf("%w: found annotations on cardinality sigil at %s", ionmacro.ErrCompile, e.sigil.position)
		}
		cardinality, _ = macro.CardinalityBySigil(e.sigil.text)
	}

	return macro.Parameter{Name: e.text, Encoding: encoding, Cardinality: cardinality}, nil
}
