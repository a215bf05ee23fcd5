// Package resolve turns an instruction's three raw operand tokens into
// integers, looking up functions, macros, aliases and registers through
// the symbol table. Unresolved forward references resolve to 0 during
// in-flight layout passes; the layout engine iterates to a fixed point,
// and a truly unresolved symbol is only distinguished at the end of
// layout via symtab.Table.UndefinedAliases / UndefinedFunctions. An
// undefined macro reference ([#NAME]) resolves to 0 and is not recorded.
package resolve

import (
	"strings"

	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/literal"
	"github.com/shlee-dev/polyasm/symtab"
)

// Params resolves the three raw operand tokens of an instruction.
func Params(raw [3]string, registers map[string]uint32, sym *symtab.Table) (p1, p2, p3 uint32, err error) {
	vals := [3]uint32{}
	for i, tok := range raw {
		if tok == "" {
			continue
		}
		v, err := One(tok, registers, sym)
		if err != nil {
			return 0, 0, 0, err
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}

// One resolves a single operand token to an integer.
func One(tok string, registers map[string]uint32, sym *symtab.Table) (uint32, error) {
	t := strings.TrimSpace(tok)

	if t == "[]" {
		return 0, nil
	}

	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		inside := strings.TrimSpace(t[1 : len(t)-1])
		switch {
		case strings.HasSuffix(inside, "():"):
			fname := strings.TrimSpace(strings.TrimSuffix(inside, "():"))
			if addr, ok := sym.FunctionAddr(fname); ok {
				return addr, nil
			}
			// Register the name so a call to a function that is never
			// declared surfaces as undefined once layout converges.
			sym.DefineFunction(fname, nil)
			return 0, nil

		case strings.HasPrefix(inside, "#"):
			mname := inside[1:]
			if v, ok := sym.MacroValue(mname); ok {
				return v, nil
			}
			return 0, nil

		case strings.HasPrefix(inside, "@"):
			aname := inside[1:]
			if addr, ok := sym.AliasAddr(aname); ok {
				return addr, nil
			}
			// Register the name so a reference that is never backed by a
			// declaration surfaces as undefined once layout converges,
			// instead of silently resolving to 0 forever.
			sym.DefineAlias(aname, nil, diag.Position{})
			return 0, nil

		default:
			if v, ok := registers[inside]; ok {
				return v, nil
			}
			if v, ok := sym.MacroValue(inside); ok {
				return v, nil
			}
			v, err := literal.ParseInt(inside)
			if err != nil {
				return 0, err
			}
			return uint32(v), nil
		}
	}

	v, err := literal.ParseInt(t)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
