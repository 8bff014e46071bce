package tokenizer

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shibukawa/ionmacro/ion"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// IonTokenizer splits Ion text into tokens and returns them as an iterator
type IonTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewIonTokenizer creates a new IonTokenizer
func NewIonTokenizer(input string, options ...TokenizerOptions) *IonTokenizer {
	opts := TokenizerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}

	return &IonTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens. The iterator stops after the first error.
func (t *IonTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input: t.input,
			line:  1,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			// Filtering based on options
			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}
			if t.options.SkipComments && (token.Type == LINE_COMMENT || token.Type == BLOCK_COMMENT) {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice, ending with EOF
func (t *IonTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Internal tokenizer implementation
type tokenizer struct {
	input    string
	offset   int // byte offset of current
	position int // byte offset of the rune after current
	line     int
	column   int
	current  rune
	inLob    bool
}

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	if t.inLob {
		return t.nextLobToken()
	}

	switch t.current {
	case 0:
		return t.newToken(EOF, "", t.pos()), nil
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return t.readWhitespace(), nil
	case '(':
		return t.single(OPENED_PARENS), nil
	case ')':
		return t.single(CLOSED_PARENS), nil
	case '[':
		return t.single(OPENED_BRACKET), nil
	case ']':
		return t.single(CLOSED_BRACKET), nil
	case '}':
		return t.single(CLOSED_BRACE), nil
	case ',':
		return t.single(COMMA), nil
	case '{':
		if t.peekChar() == '{' {
			start := t.pos()
			t.advance(2)
			t.inLob = true
			return t.newToken(OPENED_LOB, "{{", start), nil
		}
		return t.single(OPENED_BRACE), nil
	case ':':
		if t.peekChar() == ':' {
			start := t.pos()
			t.advance(2)
			return t.newToken(DOUBLE_COLON, "::", start), nil
		}
		return t.single(COLON), nil
	case '"':
		return t.readString()
	case '\'':
		if strings.HasPrefix(t.input[t.offset:], "'''") {
			return t.readLongString()
		}
		return t.readQuotedSymbol()
	case '/':
		switch t.peekChar() {
		case '/':
			return t.readLineComment(), nil
		case '*':
			return t.readBlockComment()
		}
		return t.readOperator(), nil
	}

	switch {
	case t.current >= '0' && t.current <= '9':
		return t.readNumber(), nil
	case (t.current == '-' || t.current == '+') && t.startsSignedNumber():
		return t.readNumber(), nil
	case ion.IsIdentifierStart(t.current):
		return t.readWord(), nil
	case ion.IsOperatorChar(t.current):
		return t.readOperator(), nil
	}

	return Token{}, fmt.Errorf("%w: %q at %s", ErrUnexpectedCharacter, t.current, t.pos())
}

// nextLobToken tokenizes the inside of {{ }}: either string segments (clob)
// or base64 text (blob).
func (t *tokenizer) nextLobToken() (Token, error) {
	switch t.current {
	case 0:
		return Token{}, fmt.Errorf("%w at %s", ErrUnterminatedLob, t.pos())
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return t.readWhitespace(), nil
	case '}':
		if t.peekChar() != '}' {
			return Token{}, fmt.Errorf("%w: expected '}}' at %s", ErrUnexpectedCharacter, t.pos())
		}
		start := t.pos()
		t.advance(2)
		t.inLob = false
		return t.newToken(CLOSED_LOB, "}}", start), nil
	case '"':
		return t.readString()
	case '\'':
		if strings.HasPrefix(t.input[t.offset:], "'''") {
			return t.readLongString()
		}
	}
	return t.readBase64()
}

// readChar reads the next character
func (t *tokenizer) readChar() {
	if t.current == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}

	t.offset = t.position
	if t.position >= len(t.input) {
		t.current = 0
		return
	}

	r, size := utf8.DecodeRuneInString(t.input[t.position:])
	t.current = r
	t.position += size
}

func (t *tokenizer) advance(n int) {
	for range n {
		t.readChar()
	}
}

// peekChar looks ahead at the next character
func (t *tokenizer) peekChar() rune {
	if t.position >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.position:])
	return r
}

func (t *tokenizer) pos() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.offset}
}

func (t *tokenizer) single(tokenType TokenType) Token {
	token := t.newToken(tokenType, string(t.current), t.pos())
	t.readChar()
	return token
}

func (t *tokenizer) newToken(tokenType TokenType, value string, start Position) Token {
	return Token{
		Type:     tokenType,
		Value:    value,
		Position: start,
	}
}

// readWhitespace reads whitespace characters
func (t *tokenizer) readWhitespace() Token {
	start := t.pos()
	for t.current != 0 && unicode.IsSpace(t.current) {
		t.readChar()
	}
	return t.newToken(WHITESPACE, t.input[start.Offset:t.offset], start)
}

func (t *tokenizer) readLineComment() Token {
	start := t.pos()
	for t.current != 0 && t.current != '\n' {
		t.readChar()
	}
	return t.newToken(LINE_COMMENT, t.input[start.Offset:t.offset], start)
}

func (t *tokenizer) readBlockComment() (Token, error) {
	start := t.pos()
	t.advance(2)
	for {
		if t.current == 0 {
			return Token{}, fmt.Errorf("%w at %s", ErrUnterminatedComment, start)
		}
		if t.current == '*' && t.peekChar() == '/' {
			t.advance(2)
			return t.newToken(BLOCK_COMMENT, t.input[start.Offset:t.offset], start), nil
		}
		t.readChar()
	}
}

// readWord reads identifier symbols. Typed nulls (null.int) are kept as one token.
func (t *tokenizer) readWord() Token {
	start := t.pos()
	for ion.IsIdentifierPart(t.current) {
		t.readChar()
	}
	if t.input[start.Offset:t.offset] == "null" && t.current == '.' && ion.IsIdentifierStart(t.peekChar()) {
		t.readChar()
		for ion.IsIdentifierPart(t.current) {
			t.readChar()
		}
	}
	return t.newToken(SYMBOL, t.input[start.Offset:t.offset], start)
}

func (t *tokenizer) readOperator() Token {
	start := t.pos()
	for t.current != 0 && ion.IsOperatorChar(t.current) {
		t.readChar()
	}
	return t.newToken(OPERATOR, t.input[start.Offset:t.offset], start)
}

// startsSignedNumber reports whether the sign at current begins a number
// (-1, -0x10) or a signed infinity (+inf, -inf).
func (t *tokenizer) startsSignedNumber() bool {
	rest := t.input[t.offset:]
	if len(rest) > 1 && rest[0] == '-' && rest[1] >= '0' && rest[1] <= '9' {
		return true
	}
	if strings.HasPrefix(rest[1:], "inf") {
		return len(rest) == 4 || !ion.IsIdentifierPart(rune(rest[4]))
	}
	return false
}

// readNumber reads numeric literals and timestamps. Validation is left to the
// reader, which knows how to interpret each form.
func (t *tokenizer) readNumber() Token {
	start := t.pos()
	rest := t.input[t.offset:]

	if isTimestampStart(rest) {
		n := 0
		for n < len(rest) && strings.IndexByte("0123456789TZ:.+-", rest[n]) >= 0 {
			n++
		}
		t.advance(n)
		return t.newToken(TIMESTAMP, rest[:n], start)
	}

	i := 0
	if rest[0] == '-' || rest[0] == '+' {
		i++
	}
	if strings.HasPrefix(rest[i:], "inf") {
		t.advance(i + 3)
		return t.newToken(NUMBER, rest[:i+3], start)
	}
	if len(rest) > i+1 && rest[i] == '0' && strings.IndexByte("xXbB", rest[i+1]) >= 0 {
		i += 2
		for i < len(rest) && (isHexDigit(rest[i]) || rest[i] == '_') {
			i++
		}
	} else {
		for i < len(rest) {
			c := rest[i]
			if ion.IsIdentifierPart(rune(c)) || c == '.' {
				i++
				continue
			}
			if (c == '+' || c == '-') && strings.IndexByte("eEdD", rest[i-1]) >= 0 {
				i++
				continue
			}
			break
		}
	}
	t.advance(utf8.RuneCountInString(rest[:i]))
	return t.newToken(NUMBER, rest[:i], start)
}

func isTimestampStart(s string) bool {
	if len(s) < 5 {
		return false
	}
	for i := range 4 {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[4] == '-' || s[4] == 'T'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// readString reads a "double quoted" string
func (t *tokenizer) readString() (Token, error) {
	start := t.pos()
	t.readChar()
	text, err := t.readQuoted('"', start)
	if err != nil {
		return Token{}, err
	}
	return t.newToken(STRING, text, start), nil
}

// readQuotedSymbol reads a 'single quoted' symbol
func (t *tokenizer) readQuotedSymbol() (Token, error) {
	start := t.pos()
	t.readChar()
	text, err := t.readQuoted('\'', start)
	if err != nil {
		return Token{}, err
	}
	return t.newToken(QUOTED_SYMBOL, text, start), nil
}

// readLongString reads one '''long string''' segment
func (t *tokenizer) readLongString() (Token, error) {
	start := t.pos()
	t.advance(3)

	var builder strings.Builder
	for {
		switch {
		case t.current == 0:
			return Token{}, fmt.Errorf("%w: ''' at %s", ErrUnterminatedString, start)
		case strings.HasPrefix(t.input[t.offset:], "'''"):
			t.advance(3)
			return t.newToken(LONG_STRING, builder.String(), start), nil
		case t.current == '\\':
			if err := t.readEscape(&builder); err != nil {
				return Token{}, err
			}
		default:
			builder.WriteRune(t.current)
			t.readChar()
		}
	}
}

func (t *tokenizer) readQuoted(delimiter rune, start Position) (string, error) {
	var builder strings.Builder
	for {
		switch t.current {
		case 0, '\n':
			return "", fmt.Errorf("%w: %c at %s", ErrUnterminatedString, delimiter, start)
		case delimiter:
			t.readChar()
			return builder.String(), nil
		case '\\':
			if err := t.readEscape(&builder); err != nil {
				return "", err
			}
		default:
			builder.WriteRune(t.current)
			t.readChar()
		}
	}
}

var simpleEscapes = map[rune]rune{
	'0': 0, 'a': '\a', 'b': '\b', 't': '\t', 'n': '\n', 'f': '\f', 'r': '\r', 'v': '\v',
	'"': '"', '\'': '\'', '?': '?', '\\': '\\', '/': '/',
}

// readEscape decodes the escape sequence starting at the backslash under the cursor.
func (t *tokenizer) readEscape(builder *strings.Builder) error {
	escPos := t.pos()
	t.readChar()
	c := t.current
	if r, ok := simpleEscapes[c]; ok {
		builder.WriteRune(r)
		t.readChar()
		return nil
	}

	digits := 0
	switch c {
	case '\n':
		// line continuation
		t.readChar()
		return nil
	case '\r':
		t.readChar()
		if t.current == '\n' {
			t.readChar()
		}
		return nil
	case 'x':
		digits = 2
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return fmt.Errorf("%w: \\%c at %s", ErrInvalidEscape, c, escPos)
	}

	rest := t.input[t.position:]
	if len(rest) < digits {
		return fmt.Errorf("%w at %s", ErrInvalidEscape, escPos)
	}
	code, err := strconv.ParseUint(rest[:digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return fmt.Errorf("%w: \\%c%s at %s", ErrInvalidEscape, c, rest[:digits], escPos)
	}
	builder.WriteRune(rune(code))
	t.advance(digits + 1)
	return nil
}

func (t *tokenizer) readBase64() (Token, error) {
	start := t.pos()
	var builder strings.Builder
	for t.current != 0 && t.current != '}' {
		c := t.current
		switch {
		case unicode.IsSpace(c):
		case c < 128 && (ion.IsIdentifierPart(c) && c != '_' && c != '$' || c == '+' || c == '/' || c == '='):
			builder.WriteRune(c)
		default:
			return Token{}, fmt.Errorf("%w: %q in base64 at %s", ErrUnexpectedCharacter, c, t.pos())
		}
		t.readChar()
	}
	return t.newToken(BASE64, builder.String(), start), nil
}
