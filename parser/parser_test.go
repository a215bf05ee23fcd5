package parser

import (
	"testing"

	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/symtab"
)

func TestParseFunctionAndAlias(t *testing.T) {
	src := "function main:\n" +
		"  setreg [R1] [] [] #alias entry\n" +
		"  add [R1] [R1] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	blocks, err := Parse(src, "t.pasm", config.DefaultISA(), sym, sink)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Kind != ir.Function || b.Name != "main" {
		t.Errorf("block = %+v, want function main", b)
	}

	var aliasLines, instrLines int
	for _, l := range b.Lines {
		switch l.Kind {
		case ir.Alias:
			aliasLines++
			if l.Name != "entry" {
				t.Errorf("alias name = %q, want entry", l.Name)
			}
			if l.Lineno != 0 {
				t.Errorf("alias content index = %d, want 0 (first content line)", l.Lineno)
			}
		case ir.Instruction:
			instrLines++
		}
	}
	if aliasLines != 1 || instrLines != 2 {
		t.Errorf("got %d alias lines and %d instruction lines, want 1 and 2", aliasLines, instrLines)
	}

	if _, ok := sym.FunctionAddr("main"); ok {
		t.Error("function address should not be assigned until layout runs")
	}
}

func TestParseMemoryBlockWithMacro(t *testing.T) {
	src := "#macro SIZE 0x10\n" +
		"#memory table:\n" +
		"\"0x01\" \"0x02\" \"0x03\" \"0x04\"\n"

	sym := symtab.New()
	sink := diag.NewSink()
	blocks, err := Parse(src, "t.pasm", config.DefaultISA(), sym, sink)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Kind != ir.Memory || blocks[0].Name != "table" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
	if v, ok := sym.MacroValue("SIZE"); !ok || v != 0x10 {
		t.Errorf("macro SIZE = (%d,%v), want (16,true)", v, ok)
	}
}

func TestParseImplicitDefaultFunctionWarns(t *testing.T) {
	src := "setreg [R1] [] []\n"
	sym := symtab.New()
	sink := diag.NewSink()
	blocks, err := Parse(src, "t.pasm", config.DefaultISA(), sym, sink)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Name != "main" {
		t.Fatalf("expected a synthesized main block, got %+v", blocks)
	}
	if len(sink.Warnings) == 0 {
		t.Error("starting an implicit default block should warn")
	}
}

func TestParseBareAliasSuffixFatal(t *testing.T) {
	src := "function main:\n  setreg [R1] [] [] #alias\n"
	sym := symtab.New()
	_, err := Parse(src, "t.pasm", config.DefaultISA(), sym, diag.NewSink())
	if err == nil {
		t.Error("'#alias' with no names should be fatal")
	}
}

func TestParseDuplicateMacroDifferentValueFatal(t *testing.T) {
	src := "#macro X 1\n#macro X 2\n"
	sym := symtab.New()
	_, err := Parse(src, "t.pasm", config.DefaultISA(), sym, diag.NewSink())
	if err == nil {
		t.Error("redefining a macro with a different value should be fatal")
	}
}
