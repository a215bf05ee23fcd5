// Package emit places every encoded word into a dense, address-indexed
// buffer and renders the optional annotated listing.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/symtab"
)

// word32 is the all-zero placeholder for unwritten addresses.
var word32 = strings.Repeat("0", 32)

// Dense lays every line's encoded words into a buffer indexed by address,
// sized to one past the highest address referenced by any line. Unwritten
// words default to all zero bits.
func Dense(blocks []*ir.Block, filename string) ([]string, error) {
	memSize := uint32(0)
	for _, b := range blocks {
		for _, line := range b.Lines {
			for _, a := range line.Addresses {
				if a+1 > memSize {
					memSize = a + 1
				}
			}
		}
	}

	buf := make([]string, memSize)
	for i := range buf {
		buf[i] = word32
	}

	for _, b := range blocks {
		for _, line := range b.Lines {
			if len(line.ExpandedBits) != len(line.Addresses) {
				return nil, diag.NewError(diag.Position{File: filename, Line: line.Lineno}, diag.KindEncoding,
					"expanded word count %d does not match address count %d",
					len(line.ExpandedBits), len(line.Addresses))
			}
			for i, addr := range line.Addresses {
				if addr >= memSize {
					return nil, diag.NewError(diag.Position{File: filename, Line: line.Lineno}, diag.KindEncoding,
						"address 0x%X out of bounds (memory size %d)", addr, memSize)
				}
				buf[addr] = line.ExpandedBits[i]
			}
		}
	}

	return buf, nil
}

// Bitstring renders a dense buffer as one "0"/"1" word per line, ready to
// write to an output file.
func Bitstring(buf []string) string {
	return strings.Join(buf, "\n") + "\n"
}

// Listing renders the annotated, human-readable assembly listing:
// function blocks' instruction words first in declaration order, then
// memory blocks' data words, each word broken down into its bit fields
// and annotated with any aliases bound to its address.
func Listing(blocks []*ir.Block, sym *symtab.Table, cfg *config.Config) string {
	var sb strings.Builder

	for _, b := range blocks {
		if b.Kind != ir.Function {
			continue
		}
		for _, line := range b.Lines {
			if line.Kind != ir.Instruction {
				continue
			}
			for i, word := range line.ExpandedBits {
				writeInstructionWord(&sb, sym, cfg, line, word, line.Addresses[i])
			}
		}
	}
	for _, b := range blocks {
		if b.Kind != ir.Memory {
			continue
		}
		for _, line := range b.Lines {
			if line.Kind != ir.MemoryData {
				continue
			}
			for i, word := range line.ExpandedBits {
				writeDataWord(&sb, sym, cfg, line, word, line.Addresses[i])
			}
		}
	}

	return sb.String()
}

// writeInstructionWord renders one emitted instruction word: the parity,
// continuation and parameter bit fields sliced out of the word string,
// then the owning function, mnemonic, and the resolved parameters in the
// configured number format.
func writeInstructionWord(sb *strings.Builder, sym *symtab.Table, cfg *config.Config, line *ir.Line, word string, addr uint32) {
	w := cfg.Widths
	p3End := 2 + w.Param3
	p2End := p3End + w.Param2
	p1End := p2End + w.Param1

	fmt.Fprintf(sb, "%05x | p=%c c=%c p3=%s p2=%s p1=%s | func=%s, opcode=%s, param1=%s, param2=%s, param3=%s",
		addr, word[0], word[1], word[2:p3End], word[p3End:p2End], word[p2End:p1End],
		line.Func, line.Mnemonic,
		formatNumber(line.P1, cfg.Listing.Format),
		formatNumber(line.P2, cfg.Listing.Format),
		formatNumber(line.P3, cfg.Listing.Format))
	writeAliases(sb, sym, addr)
	sb.WriteByte('\n')
}

// writeDataWord renders one emitted data word: the four byte fields as
// bit groups (byte3 leftmost), then the owning memory block and the byte
// values in the configured number format.
func writeDataWord(sb *strings.Builder, sym *symtab.Table, cfg *config.Config, line *ir.Line, word string, addr uint32) {
	b3, b2, b1, b0 := word[0:8], word[8:16], word[16:24], word[24:32]
	fmt.Fprintf(sb, "%05x | %s %s %s %s | mem=%s, %s %s %s %s",
		addr, b3, b2, b1, b0, line.Mem,
		formatByte(b3, cfg.Listing.Format),
		formatByte(b2, cfg.Listing.Format),
		formatByte(b1, cfg.Listing.Format),
		formatByte(b0, cfg.Listing.Format))
	writeAliases(sb, sym, addr)
	sb.WriteByte('\n')
}

func writeAliases(sb *strings.Builder, sym *symtab.Table, addr uint32) {
	if names := sym.AliasesAt(addr); len(names) > 0 {
		fmt.Fprintf(sb, " <- alias: %s", strings.Join(names, ", "))
	}
}

func formatByte(bits string, format config.NumberFormat) string {
	v, _ := strconv.ParseUint(bits, 2, 8)
	if format == config.FormatHex {
		return fmt.Sprintf("0x%02X", v)
	}
	return formatNumber(uint32(v), format)
}

func formatNumber(v uint32, format config.NumberFormat) string {
	switch format {
	case config.FormatBin:
		return "0b" + strconv.FormatUint(uint64(v), 2)
	case config.FormatDec:
		return strconv.FormatUint(uint64(v), 10)
	default:
		return "0x" + strconv.FormatUint(uint64(v), 16)
	}
}
