package ion

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// QuoteString renders s as a double-quoted Ion string literal.
func QuoteString(s string) string {
	return quote(s, '"')
}

// FormatSymbol renders a symbol token, quoting its text unless it is an identifier.
func FormatSymbol(token SymbolToken) string {
	if !token.HasText() {
		return fmt.Sprintf("$%d", token.SID)
	}
	if IsIdentifier(token.Text) {
		return token.Text
	}
	return quote(token.Text, '\'')
}

// FormatSExpSymbol is FormatSymbol but leaves operator symbols unquoted.
func FormatSExpSymbol(token SymbolToken) string {
	if token.HasText() && IsOperator(token.Text) {
		return token.Text
	}
	return FormatSymbol(token)
}

// FormatAnnotations renders annotations with their trailing "::".
func FormatAnnotations(annotations []SymbolToken) string {
	var builder strings.Builder
	for _, a := range annotations {
		builder.WriteString(FormatSymbol(a))
		builder.WriteString("::")
	}
	return builder.String()
}

func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, "e") {
		s += "e0"
	}
	return s
}

// FormatDecimal renders d so that reading it back keeps its exponent.
func FormatDecimal(d decimal.Decimal) string {
	exp := d.Exponent()
	switch {
	case exp == 0:
		return d.Coefficient().String() + "."
	case exp < 0:
		return d.StringFixed(-exp)
	}
	return fmt.Sprintf("%sd%d", d.Coefficient().String(), exp)
}

func FormatBlob(b []byte) string {
	return "{{" + base64.StdEncoding.EncodeToString(b) + "}}"
}

func FormatClob(b []byte) string {
	return "{{" + QuoteString(string(b)) + "}}"
}

func quote(s string, delimiter rune) string {
	var builder strings.Builder
	builder.WriteRune(delimiter)
	for _, r := range s {
		switch r {
		case delimiter, '\\':
			builder.WriteByte('\\')
			builder.WriteRune(r)
		case '\n':
			builder.WriteString(`\n`)
		case '\t':
			builder.WriteString(`\t`)
		case '\r':
			builder.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&builder, `\x%02x`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}
	builder.WriteRune(delimiter)
	return builder.String()
}
