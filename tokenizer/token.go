package tokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrUnterminatedLob     = errors.New("unterminated lob")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE
	LINE_COMMENT  // // line comment
	BLOCK_COMMENT // /* block comment */

	// Values
	SYMBOL        // identifier symbols, including keywords like null and true
	QUOTED_SYMBOL // 'quoted symbol'
	OPERATOR      // operator symbols, only meaningful inside s-expressions
	STRING        // "string"
	LONG_STRING   // '''long string''' (adjacent segments are concatenated by the reader)
	NUMBER        // ints, floats, decimals, nan and +inf/-inf
	TIMESTAMP     // 2024-01-16T
	BASE64        // blob content between {{ and }}

	// Punctuation
	OPENED_PARENS  // (
	CLOSED_PARENS  // )
	OPENED_BRACKET // [
	CLOSED_BRACKET // ]
	OPENED_BRACE   // {
	CLOSED_BRACE   // }
	OPENED_LOB     // {{
	CLOSED_LOB     // }}
	COMMA          // ,
	COLON          // :
	DOUBLE_COLON   // ::
)

var tokenTypeNames = map[TokenType]string{
	EOF:            "EOF",
	WHITESPACE:     "WHITESPACE",
	LINE_COMMENT:   "LINE_COMMENT",
	BLOCK_COMMENT:  "BLOCK_COMMENT",
	SYMBOL:         "SYMBOL",
	QUOTED_SYMBOL:  "QUOTED_SYMBOL",
	OPERATOR:       "OPERATOR",
	STRING:         "STRING",
	LONG_STRING:    "LONG_STRING",
	NUMBER:         "NUMBER",
	TIMESTAMP:      "TIMESTAMP",
	BASE64:         "BASE64",
	OPENED_PARENS:  "OPENED_PARENS",
	CLOSED_PARENS:  "CLOSED_PARENS",
	OPENED_BRACKET: "OPENED_BRACKET",
	CLOSED_BRACKET: "CLOSED_BRACKET",
	OPENED_BRACE:   "OPENED_BRACE",
	CLOSED_BRACE:   "CLOSED_BRACE",
	OPENED_LOB:     "OPENED_LOB",
	CLOSED_LOB:     "CLOSED_LOB",
	COMMA:          "COMMA",
	COLON:          "COLON",
	DOUBLE_COLON:   "DOUBLE_COLON",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Position is a location in the source text. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a lexical token. For strings and symbols Value holds the decoded
// text; for everything else it holds the source text.
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}
