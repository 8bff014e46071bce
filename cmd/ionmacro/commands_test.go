package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shibukawa/ionmacro"
	"github.com/stretchr/testify/require"
)

const greetings = `
(macro greet (name) (.$ion::make_string (.. "hello " (%name))))
(macro greet_all (names*) [(.greet (%names))])
`

func setup(t *testing.T, files map[string]string) (string, *Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	out := &bytes.Buffer{}
	return dir, &Context{Config: filepath.Join(dir, "ionmacro.yaml"), Quiet: true, Out: out}, out
}

func TestExpandCmd(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		cmd      ExpandCmd
		expected string
	}{
		{
			name: "ion output",
			files: map[string]string{
				"greet.ion": greetings,
				"input.ion": `(:greet "world") (:greet_all (:: "a" "b"))`,
			},
			cmd:      ExpandCmd{Input: "input.ion", Macros: []string{"greet.ion"}},
			expected: "\"hello world\"\n[\"hello ab\"]\n",
		},
		{
			name: "json output",
			files: map[string]string{
				"greet.ion": greetings,
				"input.ion": `(:greet "world") 1`,
			},
			cmd:      ExpandCmd{Input: "input.ion", Macros: []string{"greet.ion"}, Format: "json"},
			expected: `["hello world",1]`,
		},
		{
			name: "macro files from the configuration",
			files: map[string]string{
				"ionmacro.yaml": "macro_files: [greet.ion]\noutput:\n  format: json\n",
				"greet.ion":     greetings,
				"input.ion":     `(:greet_all)`,
			},
			cmd:      ExpandCmd{Input: "input.ion"},
			expected: `[["hello "]]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ctx, out := setup(t, tt.files)
			require.NoError(t, tt.cmd.Run(ctx))
			assert.Equal(t, tt.expected, normalize(t, out.String()))
		})
	}
}

// normalize compacts JSON output, whose whitespace protojson does not keep stable.
func normalize(t *testing.T, output string) string {
	t.Helper()
	if !strings.HasPrefix(output, "[") || !json.Valid([]byte(output)) {
		return output
	}
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, []byte(strings.TrimSpace(output))))
	return buf.String()
}

func TestExpandCmdErrors(t *testing.T) {
	_, ctx, _ := setup(t, map[string]string{
		"input.ion": `(:repeat 100 x)`,
	})

	err := (&ExpandCmd{Input: "input.ion", Limit: 10}).Run(ctx)
	assert.IsError(t, err, ionmacro.ErrExpansionLimit)

	err = (&ExpandCmd{Input: "missing.ion"}).Run(ctx)
	assert.IsError(t, err, ErrInputFileNotExist)

	err = (&ExpandCmd{Input: "input.ion", Format: "xml"}).Run(ctx)
	assert.IsError(t, err, ErrUnknownFormat)
}

func TestCompileCmd(t *testing.T) {
	_, ctx, out := setup(t, map[string]string{"greet.ion": greetings})

	require.NoError(t, (&CompileCmd{Files: []string{"greet.ion"}}).Run(ctx))
	output := out.String()
	assert.Contains(t, output, "#0 greet template(any::name!)")
	assert.Contains(t, output, "#1 greet_all template(any::names*)")
	assert.Contains(t, output, "VariableRef(0)")

	_, ctx, _ = setup(t, map[string]string{"bad.ion": "(macro bad (x) (%y))"})
	err := (&CompileCmd{Files: []string{"bad.ion"}}).Run(ctx)
	assert.IsError(t, err, ionmacro.ErrCompile)
}

func TestMacrosCmd(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, (&MacrosCmd{}).Run(&Context{Out: out}))
	output := out.String()
	assert.Contains(t, output, "make_string")
	assert.Contains(t, output, "if_none")
	assert.Contains(t, output, "(any::stream* any::true_branch* any::false_branch*)")
}

func TestCLIParse(t *testing.T) {
	parser, err := kong.New(&CLI)
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"expand", "-m", "a.ion", "-m", "b.ion", "--limit", "5", "--trace", "input.ion"})
	require.NoError(t, err)
	assert.Equal(t, "expand <input>", kctx.Command())
	assert.Equal(t, "input.ion", CLI.Expand.Input)
	assert.Equal(t, []string{"a.ion", "b.ion"}, CLI.Expand.Macros)
	assert.Equal(t, 5, CLI.Expand.Limit)
	assert.True(t, CLI.Expand.Trace)
	assert.Equal(t, "ionmacro.yaml", CLI.Config)
}
