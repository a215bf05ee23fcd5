// Package symtab implements the assembler's symbol table: three
// independent namespaces (alias, function, macro), each with its own
// redefinition rules. A table is created empty, mutated by the block
// parser (macros) and the layout engine (aliases, function addresses),
// and lives for exactly one assembler run; there is no persistence and
// no global instance.
package symtab

import (
	"fmt"

	"github.com/shlee-dev/polyasm/diag"
)

// Table holds the alias, function and macro namespaces for one run.
type Table struct {
	aliases        map[string]*uint32
	reverseAliases map[uint32][]string
	aliasOrder     []string

	functions     map[string]*uint32
	functionOrder []string

	macros     map[string]uint32
	macroOrder []string
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{
		aliases:        make(map[string]*uint32),
		reverseAliases: make(map[uint32][]string),
		functions:      make(map[string]*uint32),
		macros:         make(map[string]uint32),
	}
}

// DefineAlias binds name to addr. addr may be nil (unbound). Redefining an
// alias already bound to a different non-nil address is fatal
// (AliasRedefined); redefining with the same address returns rebound=false
// to signal the caller should emit a warning, not an error.
func (t *Table) DefineAlias(name string, addr *uint32, pos diag.Position) (rebound bool, err error) {
	old, exists := t.aliases[name]
	if !exists {
		t.aliases[name] = addr
		t.aliasOrder = append(t.aliasOrder, name)
		if addr != nil {
			t.reverseAliases[*addr] = append(t.reverseAliases[*addr], name)
		}
		return true, nil
	}

	switch {
	case old == nil && addr != nil:
		t.aliases[name] = addr
		t.reverseAliases[*addr] = append(t.reverseAliases[*addr], name)
		return true, nil
	case old != nil && addr != nil:
		if *old != *addr {
			return false, diag.NewError(pos, diag.KindSymbol,
				"alias %q redefined: old=0x%X, new=0x%X", name, *old, *addr)
		}
		return false, nil
	default:
		return false, nil
	}
}

// AliasAddr returns the alias's address and whether it is bound.
func (t *Table) AliasAddr(name string) (uint32, bool) {
	addr, exists := t.aliases[name]
	if !exists || addr == nil {
		return 0, false
	}
	return *addr, true
}

// AliasesAt returns the alias names bound to addr, in the order they
// were bound.
func (t *Table) AliasesAt(addr uint32) []string {
	return append([]string(nil), t.reverseAliases[addr]...)
}

// UndefinedAliases returns the names of all aliases still unbound.
func (t *Table) UndefinedAliases() []string {
	var names []string
	for _, name := range t.aliasOrder {
		if t.aliases[name] == nil {
			names = append(names, name)
		}
	}
	return names
}

// AllAliases returns every alias name in declaration order.
func (t *Table) AllAliases() []string {
	return append([]string(nil), t.aliasOrder...)
}

// DefineFunction binds name to addr, which may be nil (address not yet
// assigned by layout). Rebinding nil->x is not a redefinition. Rebinding a
// non-nil address to a different non-nil address is fatal (FunctionRedefined).
func (t *Table) DefineFunction(name string, addr *uint32) error {
	old, exists := t.functions[name]
	if !exists {
		t.functions[name] = addr
		t.functionOrder = append(t.functionOrder, name)
		return nil
	}
	if old != nil && addr != nil && *old != *addr {
		return fmt.Errorf("function %q redefined: old=0x%X, new=0x%X", name, *old, *addr)
	}
	if addr != nil {
		t.functions[name] = addr
	}
	return nil
}

// FunctionAddr returns the function's address and whether it is assigned.
func (t *Table) FunctionAddr(name string) (uint32, bool) {
	addr, exists := t.functions[name]
	if !exists || addr == nil {
		return 0, false
	}
	return *addr, true
}

// UndefinedFunctions returns the names of all functions still unassigned.
func (t *Table) UndefinedFunctions() []string {
	var names []string
	for _, name := range t.functionOrder {
		if t.functions[name] == nil {
			names = append(names, name)
		}
	}
	return names
}

// AllFunctions returns every function name in declaration order.
func (t *Table) AllFunctions() []string {
	return append([]string(nil), t.functionOrder...)
}

// DefineMacro binds name to value. Redefining a macro with a different
// value is fatal (MacroRedefined).
func (t *Table) DefineMacro(name string, value uint32) error {
	if old, exists := t.macros[name]; exists {
		if old != value {
			return fmt.Errorf("macro %q redefined: old=0x%X, new=0x%X", name, old, value)
		}
		return nil
	}
	t.macros[name] = value
	t.macroOrder = append(t.macroOrder, name)
	return nil
}

// MacroValue returns the macro's value and whether it is defined.
func (t *Table) MacroValue(name string) (uint32, bool) {
	v, exists := t.macros[name]
	return v, exists
}

// AllMacros returns every macro name in declaration order.
func (t *Table) AllMacros() []string {
	return append([]string(nil), t.macroOrder...)
}
