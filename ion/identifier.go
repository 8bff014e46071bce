package ion

import "strings"

// keywords are symbols that must be quoted to be read as symbols.
var keywords = map[string]struct{}{
	"null":  {},
	"true":  {},
	"false": {},
	"nan":   {},
}

const operatorChars = "!#%&*+-./;<=>?@^`|~"

// IsIdentifier reports whether s can be written as an unquoted identifier
// symbol that is not a keyword.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := keywords[s]; ok {
		return false
	}
	if !IsIdentifierStart(rune(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentifierPart(rune(s[i])) {
			return false
		}
	}
	return true
}

// IsKeyword reports whether s is a reserved word of the text format.
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

func IsIdentifierStart(c rune) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func IsIdentifierPart(c rune) bool {
	return IsIdentifierStart(c) || (c >= '0' && c <= '9')
}

// IsOperatorChar reports whether c may appear in an s-expression operator symbol.
func IsOperatorChar(c rune) bool {
	return c < 128 && strings.ContainsRune(operatorChars, c)
}

// IsOperator reports whether s consists only of operator characters.
func IsOperator(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !IsOperatorChar(c) {
			return false
		}
	}
	return true
}
