package ion

import "fmt"

// SymbolToken is a symbol with optional text and an optional symbol ID.
// A token with empty text and a non-negative SID has unknown text.
type SymbolToken struct {
	Text string
	SID  int
}

// NewSymbolToken creates a token with known text and no SID.
func NewSymbolToken(text string) SymbolToken {
	return SymbolToken{Text: text, SID: -1}
}

// Symbols converts a list of texts into symbol tokens.
func Symbols(texts ...string) []SymbolToken {
	if len(texts) == 0 {
		return nil
	}
	tokens := make([]SymbolToken, len(texts))
	for i, text := range texts {
		tokens[i] = NewSymbolToken(text)
	}
	return tokens
}

// HasText reports whether the token's text is known.
func (s SymbolToken) HasText() bool {
	return s.Text != "" || s.SID < 0
}

func (s SymbolToken) String() string {
	if !s.HasText() {
		return fmt.Sprintf("$%d", s.SID)
	}
	return s.Text
}
