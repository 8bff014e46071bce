package macro

import (
	"fmt"
	"strconv"
)

// SystemModule is the module name that qualifies system macros ($ion::make_string).
const SystemModule = "$ion"

// MacroRef addresses a macro by name or by id, optionally within a module.
type MacroRef struct {
	Module string
	Name   string
	ID     int
	byID   bool
}

func ByName(name string) MacroRef {
	return MacroRef{Name: name}
}

func ByID(id int) MacroRef {
	return MacroRef{ID: id, byID: true}
}

// InModule returns a copy of r qualified by module.
func (r MacroRef) InModule(module string) MacroRef {
	r.Module = module
	return r
}

func (r MacroRef) IsByID() bool {
	return r.byID
}

func (r MacroRef) String() string {
	local := r.Name
	if r.byID {
		local = strconv.Itoa(r.ID)
	}
	if r.Module != "" {
		return fmt.Sprintf("%s::%s", r.Module, local)
	}
	return local
}

// Resolver looks up a macro reference.
type Resolver func(ref MacroRef) (Macro, error)
