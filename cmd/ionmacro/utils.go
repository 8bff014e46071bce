package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/shibukawa/ionmacro/compiler"
	"github.com/shibukawa/ionmacro/macro"
	"github.com/shibukawa/ionmacro/textreader"
)

// readSource reads a file, or standard input for "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrInputFileNotExist, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// loadMacros loads every definition file into one table, in order.
func loadMacros(ctx *Context, files []string) (*macro.Table, error) {
	table := macro.NewTable()
	for _, file := range files {
		src, err := readSource(file)
		if err != nil {
			return nil, err
		}
		cursor, err := textreader.NewTextCursor(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		entries, err := compiler.LoadDefinitions(cursor, table)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if ctx.Verbose {
			color.Cyan("Loaded %d macro(s) from %s", len(entries), file)
		}
	}
	return table, nil
}
