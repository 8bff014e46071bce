package evaluator_test

import (
	"errors"
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ionmacro"
	"github.com/shibukawa/ionmacro/evaluator"
	"github.com/shibukawa/ionmacro/testhelper"
	"github.com/shibukawa/ionmacro/textreader"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	Name     string   `yaml:"name"`
	Macros   string   `yaml:"macros"`
	Input    string   `yaml:"input"`
	Limit    int      `yaml:"limit"`
	Expected []string `yaml:"expected"`
	Error    string   `yaml:"error"`
}

var fixtureErrors = map[string]error{
	"argument_type":      ionmacro.ErrArgumentType,
	"expansion_limit":    ionmacro.ErrExpansionLimit,
	"missing_argument":   ionmacro.ErrMissingArgument,
	"too_many_arguments": ionmacro.ErrTooManyArguments,
	"unknown_macro":      ionmacro.ErrUnknownMacro,
}

func TestFixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/expansion.yaml")
	assert.NoError(t, err)

	var fixtures []fixture
	assert.NoError(t, yaml.Unmarshal(data, &fixtures))

	for _, f := range fixtures {
		t.Run(f.Name, func(t *testing.T) {
			table := loadTable(t, f.Macros)
			exprs, err := textreader.DecodeEExpressions(f.Input, table)

			var actual []string
			if err == nil {
				ev := evaluator.New(evaluator.WithExpansionLimit(f.Limit))
				assert.NoError(t, ev.InitExpansion(exprs))
				actual, err = drain(ev)
			}

			if f.Error != "" {
				expected, ok := fixtureErrors[f.Error]
				assert.True(t, ok, "unknown error kind %q %s", f.Error, testhelper.GetCaller(t))
				assert.True(t, errors.Is(err, expected), "expected %s, got %v", f.Error, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, f.Expected, actual)
		})
	}
}
