package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var (
	whiteSpaces = regexp.MustCompile(`^(\s+)`)
	leadingTabs = regexp.MustCompile(`^(\t+)`)
)

func replaceTab(match string) string {
	return strings.Repeat("    ", strings.Count(match, "\t"))
}

// TrimIndent removes the common indentation of a raw string literal written
// inside a test. The first line (right after the opening backquote) and the
// blank line before the closing backquote are dropped, so the result ends
// with a newline. Remaining leading tabs become four spaces each.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	var indent string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			indent = whiteSpaces.FindString(line)
			break
		}
	}

	last := len(lines) - 1
	if last > 0 && strings.TrimSpace(lines[last]) == "" {
		lines[last] = ""
	}
	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, replaceTab)
	}

	return strings.Join(lines, "\n")
}
