// Package layout implements the multi-pass fixed-point algorithm that
// assigns block start addresses, resolves operands and aliases, and
// expands every instruction and data line into its final encoded words.
package layout

import (
	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/dataword"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/expand"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/resolve"
	"github.com/shlee-dev/polyasm/symtab"
)

// MaxPass bounds the fixed-point iteration.
const MaxPass = 10

// Run lays out blocks in place until the assigned addresses and block
// sizes stop changing between passes, or MaxPass is exceeded. On success
// every ir.Line's ExpandedBits/Addresses/P1-P3 fields hold their final
// value and every referenced alias and function is bound. An operand
// naming an undefined macro resolves to 0 and is not reported.
func Run(blocks []*ir.Block, filename string, cfg *config.Config, sym *symtab.Table, sink *diag.Sink) error {
	for pass := 1; pass <= MaxPass; pass++ {
		before := snapshot(blocks)

		if err := layoutOnce(blocks, filename, cfg, sym, sink); err != nil {
			return err
		}

		if equal(before, snapshot(blocks)) {
			return checkUndefined(sym, filename)
		}
	}
	return diag.NewError(diag.Position{File: filename}, diag.KindLayout,
		"layout did not converge after %d passes", MaxPass)
}

func layoutOnce(blocks []*ir.Block, filename string, cfg *config.Config, sym *symtab.Table, sink *diag.Sink) error {
	codeAddr := cfg.Sections.CodeBase
	dataAddr := cfg.Sections.DataBase

	for _, b := range blocks {
		var start uint32
		if b.Kind == ir.Function {
			// A function keeps the address it was first laid out at (or
			// was pinned to by an earlier symbol-table entry); only an
			// unassigned function is placed at the current code cursor.
			if addr, ok := sym.FunctionAddr(b.Name); ok {
				start = addr
			} else {
				start = codeAddr
				startCopy := start
				if err := sym.DefineFunction(b.Name, &startCopy); err != nil {
					return diag.NewError(diag.Position{File: filename, Line: b.DeclLine}, diag.KindSymbol, "%v", err)
				}
			}
		} else {
			start = dataAddr
		}
		startCopy := start
		b.StartAddr = &startCopy
		b.Size = 0

		// Word addresses run from the section cursor regardless of the
		// block's recorded start; the two only differ for a pinned
		// function, which is a future extension today.
		cursor := codeAddr
		if b.Kind == ir.Memory {
			cursor = dataAddr
		}

		for _, line := range b.Lines {
			pos := diag.Position{File: filename, Line: line.Lineno}

			switch line.Kind {
			case ir.Alias:
				// An alias binds once, on the first pass that reaches it;
				// later passes leave the bound address alone.
				if _, bound := sym.AliasAddr(line.Name); !bound {
					addr := start + uint32(line.Lineno)
					if _, err := sym.DefineAlias(line.Name, &addr, diag.Position{File: filename, Line: b.DeclLine}); err != nil {
						return err
					}
				}

			case ir.Instruction:
				p1, p2, p3, err := resolve.Params(line.RawParams, cfg.ISA.Registers, sym)
				if err != nil {
					return diag.NewError(pos, diag.KindSymbol, "resolving operands of %q: %v", line.Mnemonic, err)
				}
				opcodeBits, ok := cfg.ISA.Opcodes[line.Mnemonic]
				if !ok {
					return diag.NewError(pos, diag.KindEncoding, "unknown mnemonic %q", line.Mnemonic)
				}
				words, err := expand.Instruction(opcodeBits, p1, p2, p3, cfg.Widths)
				if err != nil {
					return diag.NewError(pos, diag.KindEncoding, "%v", err)
				}
				line.Func = b.Name
				line.Opcode = opcodeBits
				line.P1, line.P2, line.P3 = p1, p2, p3
				line.ExpandedBits = words
				line.Addresses = addressesFrom(cursor, len(words))
				cursor += uint32(len(words))
				b.Size += len(words)

			case ir.MemoryData:
				word, err := dataword.Line(line.Text, cfg.ISA, sym, pos, sink)
				if err != nil {
					return err
				}
				line.Mem = b.Name
				line.ExpandedBits = []string{word}
				line.Addresses = []uint32{cursor}
				cursor++
				b.Size++
			}
		}

		if b.Kind == ir.Memory {
			dataAddr = cursor
		} else {
			codeAddr = cursor
		}
	}

	return nil
}

func addressesFrom(start uint32, n int) []uint32 {
	addrs := make([]uint32, n)
	for i := range addrs {
		addrs[i] = start + uint32(i)
	}
	return addrs
}

func snapshot(blocks []*ir.Block) []ir.Snapshot {
	snaps := make([]ir.Snapshot, len(blocks))
	for i, b := range blocks {
		snaps[i] = b.TakeSnapshot()
	}
	return snaps
}

func equal(a, b []ir.Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkUndefined(sym *symtab.Table, filename string) error {
	if names := sym.UndefinedAliases(); len(names) > 0 {
		return diag.NewError(diag.Position{File: filename}, diag.KindSymbol,
			"undefined alias(es) remain after layout: %v", names)
	}
	if names := sym.UndefinedFunctions(); len(names) > 0 {
		return diag.NewError(diag.Position{File: filename}, diag.KindSymbol,
			"undefined function(s) remain after layout: %v", names)
	}
	return nil
}
