// Package parser turns assembly source text into an ordered list of
// ir.Block values containing ir.Line records, registering macros and
// function names in the symbol table as it goes.
package parser

import (
	"fmt"
	"strings"

	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/literal"
	"github.com/shlee-dev/polyasm/symtab"
)

// Parse reads src line by line (1-based line numbers) and produces the
// ordered block list. Macro definitions are applied to sym immediately;
// function blocks opened by a "function" directive register their name in
// sym with a nil (unassigned) address for the layout engine to fill in.
// The implicit "main" block is not registered here; layout registers it
// when it assigns its address.
//
// The intra-block content index used to compute an alias's address
// resets to zero whenever ANY new block opens, including a block
// synthesized implicitly by a stray instruction or data line with no
// open block. The index is relative to the block an alias lands in, so
// an implicitly-opened block starts counting from zero like any other.
func Parse(src, filename string, isa config.ISA, sym *symtab.Table, sink *diag.Sink) ([]*ir.Block, error) {
	var blocks []*ir.Block
	var current *ir.Block
	unnamedMemCount := 0
	contentIndex := 0

	for i, raw := range strings.Split(src, "\n") {
		lineno := i + 1
		pos := diag.Position{File: filename, Line: lineno}

		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#macro"):
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, diag.NewError(pos, diag.KindSyntax, "invalid macro definition: %q", line)
			}
			val, err := literal.ParseInt(fields[2])
			if err != nil {
				return nil, diag.NewError(pos, diag.KindLiteral, "macro %q value: %v", fields[1], err)
			}
			if err := sym.DefineMacro(fields[1], uint32(val)); err != nil {
				return nil, diag.NewError(pos, diag.KindSymbol, "%v", err)
			}
			continue

		case strings.HasPrefix(line, "#memory"):
			contentIndex = 0
			fields := strings.Fields(line)
			name := ""
			if len(fields) >= 2 {
				name = strings.TrimSuffix(fields[1], ":")
			}
			if name == "" {
				unnamedMemCount++
				name = fmt.Sprintf("Unnamed_Memory_%d", unnamedMemCount)
				sink.Warn(pos, "memory block has no name, synthesized %q", name)
			}
			current = &ir.Block{Kind: ir.Memory, Name: name, DeclLine: lineno}
			blocks = append(blocks, current)
			continue

		case strings.HasPrefix(line, "function"):
			contentIndex = 0
			after := strings.TrimSpace(line[len("function"):])
			name := strings.TrimSpace(strings.SplitN(after, "(", 2)[0])
			name = strings.TrimSuffix(name, ":")
			if name == "" {
				return nil, diag.NewError(pos, diag.KindSyntax, "function name missing")
			}
			current = &ir.Block{Kind: ir.Function, Name: name, DeclLine: lineno}
			blocks = append(blocks, current)
			if err := sym.DefineFunction(name, nil); err != nil {
				return nil, diag.NewError(pos, diag.KindSymbol, "%v", err)
			}
			continue
		}

		aliasNames, rest, err := splitAlias(line)
		if err != nil {
			return nil, diag.NewError(pos, diag.KindSyntax, "%v", err)
		}

		tokens := strings.Fields(rest)
		if len(tokens) == 0 {
			return nil, diag.NewError(pos, diag.KindSyntax, "empty content line")
		}
		opc := strings.ToLower(tokens[0])

		if _, isOpcode := isa.Opcodes[opc]; isOpcode {
			if current == nil {
				current = &ir.Block{Kind: ir.Function, Name: "main", DeclLine: lineno}
				blocks = append(blocks, current)
				sink.Warn(pos, "no block open, started default function block \"main\"")
				contentIndex = 0
			}
			var params [3]string
			for i, tok := range tokens[1:] {
				if i >= 3 {
					break
				}
				params[i] = tok
			}
			current.Lines = append(current.Lines, &ir.Line{
				Kind:      ir.Instruction,
				Lineno:    lineno,
				Mnemonic:  opc,
				RawParams: params,
			})
		} else {
			if current == nil || current.Kind != ir.Memory {
				unnamedMemCount++
				name := fmt.Sprintf("Unnamed_Memory_%d", unnamedMemCount)
				current = &ir.Block{Kind: ir.Memory, Name: name, DeclLine: lineno}
				blocks = append(blocks, current)
				sink.Warn(pos, "no memory block open, started default memory block %q", name)
				contentIndex = 0
			}
			current.Lines = append(current.Lines, &ir.Line{
				Kind:   ir.MemoryData,
				Lineno: lineno,
				Text:   rest,
			})
		}
		contentIndex++

		for _, a := range aliasNames {
			current.Lines = append(current.Lines, &ir.Line{
				Kind:   ir.Alias,
				Lineno: contentIndex - 1,
				Name:   a,
			})
		}
	}

	return blocks, nil
}

// splitAlias splits a trailing "#alias NAME1 NAME2..." suffix off line,
// returning the alias names and the line with the suffix (and surrounding
// space) removed.
func splitAlias(line string) (names []string, rest string, err error) {
	idx := strings.Index(line, "#alias")
	if idx < 0 {
		return nil, line, nil
	}
	rest = strings.TrimSpace(line[:idx])
	aliasPart := strings.TrimSpace(line[idx+len("#alias"):])
	names = strings.Fields(aliasPart)
	if len(names) == 0 {
		return nil, "", fmt.Errorf("empty alias name")
	}
	return names, rest, nil
}
