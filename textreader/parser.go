package textreader

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shibukawa/ionmacro/macro"
	"github.com/shibukawa/ionmacro/tokenizer"
	"github.com/shopspring/decimal"
)

// Parse reads every top-level value of src. E-expression syntax is rejected.
func Parse(src string) ([]*Value, error) {
	return parse(src, false)
}

func parse(src string, eexpressions bool) ([]*Value, error) {
	tokens, err := tokenizer.NewIonTokenizer(src, tokenizer.TokenizerOptions{
		SkipWhitespace: true,
		SkipComments:   true,
	}).AllTokens()
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, eexpressions: eexpressions}

	var values []*Value
	for p.peek().Type != tokenizer.EOF {
		v, err := p.parseValue(false)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

type parser struct {
	// tokens always ends with EOF
	tokens       []tokenizer.Token
	pos          int
	eexpressions bool
}

func (p *parser) peek() tokenizer.Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) tokenizer.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() tokenizer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != tokenizer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tokenType tokenizer.TokenType) (tokenizer.Token, error) {
	tok := p.next()
	if tok.Type != tokenType {
		return tok, unexpected(tok, tokenType.String())
	}
	return tok, nil
}

func unexpected(tok tokenizer.Token, expected string) error {
	if tok.Type == tokenizer.EOF {
		return fmt.Errorf("%w: unexpected end of input, expected %s at %s", ErrSyntax, expected, tok.Position)
	}
	return fmt.Errorf("%w: unexpected %s '%s', expected %s at %s", ErrSyntax, tok.Type, tok.Value, expected, tok.Position)
}

// parseValue reads one value. Operator symbols are only values inside sexps.
func (p *parser) parseValue(inSExp bool) (*Value, error) {
	start := p.peek()
	annotations := p.parseAnnotations()

	tok := p.next()
	v := &Value{Position: start.Position, Annotations: annotations}

	switch tok.Type {
	case tokenizer.SYMBOL:
		return v, setKeywordOrSymbol(v, tok)
	case tokenizer.QUOTED_SYMBOL:
		v.Type = ion.Symbol
		v.Symbol = ion.NewSymbolToken(tok.Value)
	case tokenizer.OPERATOR:
		if !inSExp {
			return nil, unexpected(tok, "a value")
		}
		v.Type = ion.Symbol
		v.Symbol = ion.NewSymbolToken(tok.Value)
	case tokenizer.STRING:
		v.Type = ion.String
		v.String = tok.Value
	case tokenizer.LONG_STRING:
		v.Type = ion.String
		v.String = p.longString(tok)
	case tokenizer.NUMBER:
		return v, setNumber(v, tok)
	case tokenizer.TIMESTAMP:
		ts, err := ion.ParseTimestamp(tok.Value)
		if err != nil {
			return nil, fmt.Errorf("%w at %s", err, tok.Position)
		}
		v.Type = ion.TimestampType
		v.Timestamp = ts
	case tokenizer.OPENED_LOB:
		return v, p.parseLob(v)
	case tokenizer.OPENED_BRACKET:
		return v, p.parseList(v)
	case tokenizer.OPENED_PARENS:
		return v, p.parseSExp(v)
	case tokenizer.OPENED_BRACE:
		return v, p.parseStruct(v)
	default:
		return nil, unexpected(tok, "a value")
	}
	return v, nil
}

// parseAnnotations reads leading "name::" prefixes.
func (p *parser) parseAnnotations() []ion.SymbolToken {
	var annotations []ion.SymbolToken
	for {
		tok := p.peek()
		if (tok.Type != tokenizer.SYMBOL && tok.Type != tokenizer.QUOTED_SYMBOL) || p.peekAt(1).Type != tokenizer.DOUBLE_COLON {
			return annotations
		}
		p.next()
		p.next()
		if tok.Type == tokenizer.QUOTED_SYMBOL {
			annotations = append(annotations, ion.NewSymbolToken(tok.Value))
		} else {
			annotations = append(annotations, symbolFromText(tok.Value))
		}
	}
}

func (p *parser) longString(first tokenizer.Token) string {
	var builder strings.Builder
	builder.WriteString(first.Value)
	for p.peek().Type == tokenizer.LONG_STRING {
		builder.WriteString(p.next().Value)
	}
	return builder.String()
}

// symbolFromText reads $10 style symbol IDs; other text is kept as is.
func symbolFromText(text string) ion.SymbolToken {
	if len(text) > 1 && text[0] == '$' {
		if sid, err := strconv.Atoi(text[1:]); err == nil && sid >= 0 {
			return ion.SymbolToken{SID: sid}
		}
	}
	return ion.NewSymbolToken(text)
}

func setKeywordOrSymbol(v *Value, tok tokenizer.Token) error {
	switch text := tok.Value; {
	case text == "null":
		v.Type = ion.Null
		v.Null = true
	case strings.HasPrefix(text, "null."):
		t, ok := ion.TypeByName(strings.TrimPrefix(text, "null."))
		if !ok {
			return fmt.Errorf("%w: unknown null type '%s' at %s", ErrSyntax, text, tok.Position)
		}
		v.Type = t
		v.Null = true
	case text == "true" || text == "false":
		v.Type = ion.Bool
		v.Bool = text == "true"
	case text == "nan":
		v.Type = ion.Float
		v.Float = math.NaN()
	default:
		v.Type = ion.Symbol
		v.Symbol = symbolFromText(text)
	}
	return nil
}

// setNumber classifies a numeric token as int, float or decimal.
func setNumber(v *Value, tok tokenizer.Token) error {
	text := tok.Value
	switch text {
	case "+inf":
		v.Type = ion.Float
		v.Float = math.Inf(1)
		return nil
	case "-inf":
		v.Type = ion.Float
		v.Float = math.Inf(-1)
		return nil
	}

	invalid := func() error {
		return fmt.Errorf("%w: '%s' at %s", ErrInvalidNumber, text, tok.Position)
	}
	if strings.HasPrefix(text, "_") || strings.HasSuffix(text, "_") || strings.Contains(text, "__") {
		return invalid()
	}
	digits := strings.ReplaceAll(text, "_", "")

	unsigned := strings.TrimPrefix(digits, "-")
	negative := len(unsigned) != len(digits)
	if len(unsigned) > 2 && unsigned[0] == '0' && strings.ContainsRune("xXbB", rune(unsigned[1])) {
		base := 16
		if unsigned[1] == 'b' || unsigned[1] == 'B' {
			base = 2
		}
		i, ok := new(big.Int).SetString(unsigned[2:], base)
		if !ok {
			return invalid()
		}
		if negative {
			i.Neg(i)
		}
		v.Type = ion.Int
		v.Int = i
		return nil
	}

	switch {
	case strings.ContainsAny(digits, "eE"):
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return invalid()
		}
		v.Type = ion.Float
		v.Float = f
	case strings.ContainsAny(digits, ".dD"):
		normalized := strings.NewReplacer("d", "e", "D", "e").Replace(digits)
		normalized = strings.Replace(normalized, ".e", "e", 1)
		normalized = strings.TrimSuffix(normalized, ".")
		d, err := decimal.NewFromString(normalized)
		if err != nil {
			return invalid()
		}
		v.Type = ion.Decimal
		v.Decimal = d
	default:
		if len(unsigned) > 1 && unsigned[0] == '0' {
			return invalid()
		}
		i, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return invalid()
		}
		v.Type = ion.Int
		v.Int = i
	}
	return nil
}

func (p *parser) parseLob(v *Value) error {
	tok := p.next()
	switch tok.Type {
	case tokenizer.CLOSED_LOB:
		v.Type = ion.Blob
		v.Lob = []byte{}
		return nil
	case tokenizer.BASE64:
		b, err := base64.StdEncoding.DecodeString(tok.Value)
		if err != nil {
			return fmt.Errorf("%w: %w at %s", ErrInvalidBase64, err, tok.Position)
		}
		v.Type = ion.Blob
		v.Lob = b
	case tokenizer.STRING:
		v.Type = ion.Clob
		v.Lob = []byte(tok.Value)
	case tokenizer.LONG_STRING:
		v.Type = ion.Clob
		v.Lob = []byte(p.longString(tok))
	default:
		return unexpected(tok, "lob content")
	}
	_, err := p.expect(tokenizer.CLOSED_LOB)
	return err
}

func (p *parser) parseList(v *Value) error {
	v.Type = ion.List
	for {
		if p.peek().Type == tokenizer.CLOSED_BRACKET {
			p.next()
			return nil
		}
		child, err := p.parseValue(false)
		if err != nil {
			return err
		}
		v.Children = append(v.Children, child)

		switch tok := p.peek(); tok.Type {
		case tokenizer.COMMA:
			p.next()
		case tokenizer.CLOSED_BRACKET:
		default:
			return unexpected(tok, "',' or ']'")
		}
	}
}

func (p *parser) parseSExp(v *Value) error {
	v.Type = ion.SExp

	switch tok := p.peek(); tok.Type {
	case tokenizer.COLON, tokenizer.DOUBLE_COLON:
		if !p.eexpressions {
			return fmt.Errorf("%w at %s", ErrEExpressionInData, tok.Position)
		}
		if len(v.Annotations) > 0 {
			return fmt.Errorf("%w: e-expressions may not be annotated at %s", ErrSyntax, v.Position)
		}
		p.next()
		if tok.Type == tokenizer.DOUBLE_COLON {
			v.Form = FormGroup
		} else {
			v.Form = FormEExpression
			ref, err := p.parseMacroRef()
			if err != nil {
				return err
			}
			v.MacroRef = ref
		}
	}

	for {
		if p.peek().Type == tokenizer.CLOSED_PARENS {
			p.next()
			return nil
		}
		child, err := p.parseValue(true)
		if err != nil {
			return err
		}
		v.Children = append(v.Children, child)
	}
}

// parseMacroRef reads the macro name or id after "(:".
func (p *parser) parseMacroRef() (macro.MacroRef, error) {
	annotations := p.parseAnnotations()
	module := ""
	switch {
	case len(annotations) == 0:
	case len(annotations) == 1 && annotations[0].Text == macro.SystemModule:
		module = macro.SystemModule
	default:
		return macro.MacroRef{}, fmt.Errorf("%w: macro references may only be qualified with %s at %s", ErrSyntax, macro.SystemModule, p.peek().Position)
	}

	tok := p.next()
	switch tok.Type {
	case tokenizer.SYMBOL, tokenizer.QUOTED_SYMBOL:
		return macro.ByName(tok.Value).InModule(module), nil
	case tokenizer.NUMBER:
		id, err := strconv.Atoi(tok.Value)
		if err != nil || id < 0 {
			return macro.MacroRef{}, fmt.Errorf("%w: invalid macro id '%s' at %s", ErrSyntax, tok.Value, tok.Position)
		}
		return macro.ByID(id).InModule(module), nil
	}
	return macro.MacroRef{}, unexpected(tok, "a macro name or id")
}

func (p *parser) parseStruct(v *Value) error {
	v.Type = ion.Struct
	for {
		tok := p.next()
		var name ion.SymbolToken
		switch tok.Type {
		case tokenizer.CLOSED_BRACE:
			return nil
		case tokenizer.SYMBOL:
			name = symbolFromText(tok.Value)
		case tokenizer.QUOTED_SYMBOL, tokenizer.STRING:
			name = ion.NewSymbolToken(tok.Value)
		case tokenizer.LONG_STRING:
			name = ion.NewSymbolToken(p.longString(tok))
		default:
			return unexpected(tok, "a field name or '}'")
		}

		if _, err := p.expect(tokenizer.COLON); err != nil {
			return err
		}
		child, err := p.parseValue(false)
		if err != nil {
			return err
		}
		child.FieldName = name
		child.HasFieldName = true
		v.Children = append(v.Children, child)

		switch tok := p.peek(); tok.Type {
		case tokenizer.COMMA:
			p.next()
		case tokenizer.CLOSED_BRACE:
		default:
			return unexpected(tok, "',' or '}'")
		}
	}
}
