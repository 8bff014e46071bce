package compiler

import (
	"fmt"

	"github.com/shibukawa/ionmacro/macro"
)

// LoadDefinitions compiles every top-level macro definition from cursor and
// installs it in table, in order, so later definitions can invoke earlier
// ones by name. It returns the installed entries.
func LoadDefinitions(cursor Cursor, table *macro.Table) ([]macro.Entry, error) {
	compiler := New(table.Resolve)

	var loaded []macro.Entry
	for cursor.Next() {
		m, err := compiler.CompileMacro(cursor)
		if err != nil {
			return loaded, err
		}
		address, err := table.Define(compiler.MacroName(), m)
		if err != nil {
			return loaded, fmt.Errorf("%w at %s", err, cursor.Position())
		}
		loaded = append(loaded, macro.Entry{Address: address, Name: compiler.MacroName(), Macro: m})
	}
	if err := cursor.Err(); err != nil {
		return loaded, err
	}

	if err := table.CheckAcyclic(); err != nil {
		return loaded, err
	}
	return loaded, nil
}
