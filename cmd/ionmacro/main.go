package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	// Out receives command output; status messages go through color.
	Out io.Writer
}

var CLI struct {
	Config  string     `help:"Configuration file path" default:"ionmacro.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	Compile CompileCmd `cmd:"" help:"Compile macro definitions and print their flat bodies"`
	Expand  ExpandCmd  `cmd:"" help:"Expand e-expressions into plain data"`
	Macros  MacrosCmd  `cmd:"" help:"List the system macros"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Out, "ionmacro v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ionmacro"),
		kong.Description("Compile and expand Ion 1.1 template macros"))

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Out:     os.Stdout,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
