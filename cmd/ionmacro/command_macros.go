package main

import (
	"fmt"

	"github.com/shibukawa/ionmacro/macro"
)

// MacrosCmd represents the macros command
type MacrosCmd struct{}

// Run executes the macros command
func (cmd *MacrosCmd) Run(ctx *Context) error {
	for _, m := range macro.SystemMacros() {
		id := fmt.Sprint(m.ID())
		if m.IsSpecialForm() {
			id = "-"
		}
		fmt.Fprintf(ctx.Out, "%3s  %-14s %s\n", id, m.Name(), m.SignatureString())
	}
	return nil
}
