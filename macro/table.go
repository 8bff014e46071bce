package macro

import (
	"fmt"

	"github.com/shibukawa/ionmacro"
)

// Entry is one macro installed in a Table.
type Entry struct {
	Address int
	// Name is empty for anonymous macros, which are only reachable by address.
	Name  string
	Macro Macro
}

// Table holds the user macros of an encoding context. Addresses are assigned
// in definition order starting from zero. A nil Table holds no user macros.
type Table struct {
	entries []Entry
	byName  map[string]int
}

func NewTable() *Table {
	return &Table{byName: map[string]int{}}
}

// Define installs m and returns its address.
func (t *Table) Define(name string, m Macro) (int, error) {
	if m == nil {
		return -1, fmt.Errorf("%w: nil macro", ionmacro.ErrInvalidExpression)
	}
	if name != "" {
		if _, ok := t.byName[name]; ok {
			return -1, fmt.Errorf("%w: '%s'", ionmacro.ErrDuplicateMacro, name)
		}
	}
	if tm, ok := m.(*TemplateMacro); ok {
		// hand-built macros skip the compiler, so check them here
		if err := Validate(tm.Body()); err != nil {
			return -1, err
		}
	}

	address := len(t.entries)
	t.entries = append(t.entries, Entry{Address: address, Name: name, Macro: m})
	if name != "" {
		t.byName[name] = address
	}
	return address, nil
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the installed macros in address order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return append([]Entry(nil), t.entries...)
}

// NameOf returns the name under which m is installed, or the system name.
func (t *Table) NameOf(m Macro) string {
	if t != nil {
		for _, e := range t.entries {
			if e.Macro == m {
				if e.Name != "" {
					return e.Name
				}
				return fmt.Sprintf("#%d", e.Address)
			}
		}
	}
	if sm, ok := m.(*SystemMacro); ok {
		return SystemModule + "::" + sm.Name()
	}
	return macroLabel(m)
}

// Resolve looks up ref. References qualified with $ion go straight to the
// system macros; unqualified ones try the table first and fall back to the
// system macros. Special forms resolve by name only.
func (t *Table) Resolve(ref MacroRef) (Macro, error) {
	switch ref.Module {
	case "":
		if m, ok := t.lookup(ref); ok {
			return m, nil
		}
	case SystemModule:
	default:
		return nil, fmt.Errorf("%w: %s (unknown module '%s')", ionmacro.ErrUnknownMacro, ref, ref.Module)
	}

	if ref.IsByID() {
		if m, ok := SystemMacroByID(ref.ID); ok {
			return m, nil
		}
	} else if m, ok := SystemMacroOrSpecialForm(ref.Name); ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ionmacro.ErrUnknownMacro, ref)
}

func (t *Table) lookup(ref MacroRef) (Macro, bool) {
	if t == nil {
		return nil, false
	}
	if ref.IsByID() {
		if ref.ID >= 0 && ref.ID < len(t.entries) {
			return t.entries[ref.ID].Macro, true
		}
		return nil, false
	}
	if address, ok := t.byName[ref.Name]; ok {
		return t.entries[address].Macro, true
	}
	return nil, false
}

// CheckAcyclic fails when a macro can reach itself through its dependencies.
func (t *Table) CheckAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[Macro]int{}

	var visit func(m Macro, path []Macro) error
	visit = func(m Macro, path []Macro) error {
		switch state[m] {
		case visiting:
			names := make([]string, 0, len(path)+1)
			for _, p := range path {
				names = append(names, t.NameOf(p))
			}
			names = append(names, t.NameOf(m))
			return fmt.Errorf("%w: %v", ionmacro.ErrCyclicMacro, names)
		case done:
			return nil
		}
		state[m] = visiting
		for _, dep := range m.Dependencies() {
			if err := visit(dep, append(path, m)); err != nil {
				return err
			}
		}
		state[m] = done
		return nil
	}

	for _, e := range t.entries {
		if err := visit(e.Macro, nil); err != nil {
			return err
		}
	}
	return nil
}
