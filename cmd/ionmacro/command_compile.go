package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/shibukawa/ionmacro/macro"
)

// CompileCmd represents the compile command
type CompileCmd struct {
	Files []string `arg:"" help:"Macro definition files ('-' for standard input)"`
}

// Run executes the compile command
func (cmd *CompileCmd) Run(ctx *Context) error {
	table, err := loadMacros(ctx, cmd.Files)
	if err != nil {
		return err
	}

	for _, entry := range table.Entries() {
		name := entry.Name
		if name == "" {
			name = "(anonymous)"
		}
		fmt.Fprintf(ctx.Out, "#%d %s %s\n", entry.Address, name, signatureOf(entry.Macro))
		for i, e := range entry.Macro.Body() {
			fmt.Fprintf(ctx.Out, "  %3d  %-16s %s\n", i, e.Kind, e)
		}
	}

	if !ctx.Quiet {
		color.Green("Compiled %d macro(s)", table.Len())
	}
	return nil
}

func signatureOf(m macro.Macro) string {
	if t, ok := m.(*macro.TemplateMacro); ok {
		return t.String()
	}
	return fmt.Sprint(m)
}
