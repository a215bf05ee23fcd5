// Package assemble wires the pipeline together: parse, lay out,
// validate and emit one source file.
package assemble

import (
	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/emit"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/layout"
	"github.com/shlee-dev/polyasm/parser"
	"github.com/shlee-dev/polyasm/symtab"
	"github.com/shlee-dev/polyasm/validate"
)

// Result holds everything produced by a single assembler run.
type Result struct {
	Blocks  []*ir.Block
	Symbols *symtab.Table
	Sink    *diag.Sink
	Buffer  []string // dense, address-indexed words
	Listing string
}

// Run parses, lays out, validates and emits src, stopping at the first
// fatal diagnostic.
func Run(src, filename string, cfg *config.Config) (*Result, error) {
	sym := symtab.New()
	sink := diag.NewSink()

	blocks, err := parser.Parse(src, filename, cfg.ISA, sym, sink)
	if err != nil {
		return nil, err
	}

	if err := layout.Run(blocks, filename, cfg, sym, sink); err != nil {
		return nil, err
	}

	if err := validate.Blocks(blocks, filename); err != nil {
		return nil, err
	}
	if err := validate.Sections(blocks, filename); err != nil {
		return nil, err
	}

	buf, err := emit.Dense(blocks, filename)
	if err != nil {
		return nil, err
	}

	return &Result{
		Blocks:  blocks,
		Symbols: sym,
		Sink:    sink,
		Buffer:  buf,
		Listing: emit.Listing(blocks, sym, cfg),
	}, nil
}
