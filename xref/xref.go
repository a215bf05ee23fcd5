// Package xref builds a cross-reference report over an assembled
// program: for every alias, function and macro it lists every instruction
// operand or data-word term that references it. An alias also records
// the declaration line of the block it is declared in as its DefLine;
// functions and macros carry no definition line (DefLine stays 0).
package xref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shlee-dev/polyasm/dataword"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/symtab"
)

// Kind distinguishes the three symbol namespaces a reference can name.
type Kind int

const (
	KindAlias Kind = iota
	KindFunction
	KindMacro
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMacro:
		return "macro"
	default:
		return "alias"
	}
}

// Reference is a single use site of a symbol: the block and source line
// an instruction operand or data-word term named it from.
type Reference struct {
	Block string
	Line  int
	Token string
}

// Symbol collects every reference to one name in one namespace.
type Symbol struct {
	Name       string
	Kind       Kind
	DefLine    int
	References []*Reference
}

// Build scans blocks for instruction operand tokens and data-word flag
// expression terms naming any alias, function or macro known to sym,
// grouping the result by symbol.
func Build(blocks []*ir.Block, sym *symtab.Table) map[string]*Symbol {
	out := make(map[string]*Symbol)

	for _, name := range sym.AllAliases() {
		out[aliasKey(name)] = &Symbol{Name: name, Kind: KindAlias}
	}
	for _, name := range sym.AllFunctions() {
		out[functionKey(name)] = &Symbol{Name: name, Kind: KindFunction}
	}
	for _, name := range sym.AllMacros() {
		out[macroKey(name)] = &Symbol{Name: name, Kind: KindMacro}
	}

	for _, b := range blocks {
		for _, line := range b.Lines {
			if line.Kind == ir.Alias {
				if s, ok := out[aliasKey(line.Name)]; ok {
					s.DefLine = b.DeclLine
				}
				continue
			}
			switch line.Kind {
			case ir.Instruction:
				for _, tok := range line.RawParams {
					if tok == "" {
						continue
					}
					recordReference(out, b.Name, line.Lineno, tok)
				}
			case ir.MemoryData:
				for _, term := range dataword.Terms(line.Text) {
					if key := macroKey(term); out[key] != nil {
						addRef(out, key, b.Name, line.Lineno, term)
					}
				}
			}
		}
	}

	return out
}

func recordReference(out map[string]*Symbol, block string, lineno int, tok string) {
	inside := strings.TrimSpace(tok)
	inside = strings.TrimPrefix(inside, "[")
	inside = strings.TrimSuffix(inside, "]")
	inside = strings.TrimSpace(inside)

	switch {
	case strings.HasSuffix(inside, "():"):
		name := strings.TrimSpace(strings.TrimSuffix(inside, "():"))
		addRef(out, functionKey(name), block, lineno, tok)
	case strings.HasPrefix(inside, "#"):
		addRef(out, macroKey(inside[1:]), block, lineno, tok)
	case strings.HasPrefix(inside, "@"):
		addRef(out, aliasKey(inside[1:]), block, lineno, tok)
	}
}

func addRef(out map[string]*Symbol, key, block string, lineno int, tok string) {
	s, ok := out[key]
	if !ok {
		return
	}
	s.References = append(s.References, &Reference{Block: block, Line: lineno, Token: tok})
}

func aliasKey(name string) string    { return "alias:" + name }
func functionKey(name string) string { return "function:" + name }
func macroKey(name string) string    { return "macro:" + name }

// Unreferenced returns the names of symbols that were defined but never
// referenced by any instruction operand or data-word term.
func Unreferenced(symbols map[string]*Symbol) []string {
	var names []string
	for _, s := range symbols {
		if len(s.References) == 0 {
			names = append(names, fmt.Sprintf("%s %s", s.Kind, s.Name))
		}
	}
	sort.Strings(names)
	return names
}

// Render renders the cross-reference report as plain text, sorted by
// kind then name.
func Render(symbols map[string]*Symbol) string {
	keys := make([]string, 0, len(symbols))
	for k := range symbols {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := symbols[keys[i]], symbols[keys[j]]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})

	var sb strings.Builder
	for _, k := range keys {
		s := symbols[k]
		fmt.Fprintf(&sb, "%s %s (defined line %d): %d reference(s)\n", s.Kind, s.Name, s.DefLine, len(s.References))
		for _, r := range s.References {
			fmt.Fprintf(&sb, "  %s:%d %s\n", r.Block, r.Line, r.Token)
		}
	}
	return sb.String()
}
