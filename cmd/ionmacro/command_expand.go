package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/evaluator"
	"github.com/shibukawa/ionmacro/render"
	"github.com/shibukawa/ionmacro/textreader"
)

// ExpandCmd represents the expand command
type ExpandCmd struct {
	Input  string   `arg:"" help:"Ion text containing e-expressions ('-' for standard input)"`
	Macros []string `help:"Macro definition files, loaded after the configured macro_files" short:"m"`
	Limit  int      `help:"Expansion step limit (overrides the configuration)"`
	Format string   `help:"Output format: ion or json (overrides the configuration)"`
	Pretty bool     `help:"Pretty print the output"`
	Trace  bool     `help:"Print every expansion frame to standard error"`
}

// Run executes the expand command
func (cmd *ExpandCmd) Run(ctx *Context) error {
	config, err := ionmacro.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	table, err := loadMacros(ctx, append(append([]string{}, config.MacroFiles...), cmd.Macros...))
	if err != nil {
		return err
	}

	src, err := readSource(cmd.Input)
	if err != nil {
		return err
	}
	exprs, err := textreader.DecodeEExpressions(src, table)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Input, err)
	}

	limit := config.ExpansionLimit
	if cmd.Limit > 0 {
		limit = cmd.Limit
	}
	opts := []evaluator.Option{
		evaluator.WithExpansionLimit(limit),
		evaluator.WithMacroNames(table.NameOf),
	}
	if cmd.Trace {
		trace := color.New(color.FgCyan)
		opts = append(opts, evaluator.WithTrace(func(e evaluator.TraceEvent) {
			trace.Fprintln(os.Stderr, e.String())
		}))
	}

	ev := evaluator.New(opts...)
	if err := ev.InitExpansion(exprs); err != nil {
		return err
	}

	var renderOpts []render.Option
	if cmd.Pretty || config.Output.Pretty {
		renderOpts = append(renderOpts, render.Pretty())
	}

	format := config.Output.Format
	if cmd.Format != "" {
		format = cmd.Format
	}
	switch format {
	case ionmacro.FormatIon:
		err = render.WriteText(ctx.Out, ev, renderOpts...)
	case ionmacro.FormatJSON:
		var data []byte
		data, err = render.ToJSON(ev, renderOpts...)
		if err == nil {
			_, err = fmt.Fprintln(ctx.Out, string(data))
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("expansion failed: %w", err)
	}

	if ctx.Verbose {
		color.Blue("Expanded %s in %d step(s)", cmd.Input, ev.Steps())
	}
	return nil
}
