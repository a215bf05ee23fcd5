package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/layout"
	"github.com/shlee-dev/polyasm/parser"
	"github.com/shlee-dev/polyasm/symtab"
	"github.com/shlee-dev/polyasm/validate"
)

func TestRunAssignsSequentialAddresses(t *testing.T) {
	src := "function first:\n" +
		"  setreg [R1] [] []\n" +
		"function second:\n" +
		"  setreg [R1] [] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()
	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)

	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))

	require.Len(t, blocks, 2)
	assert.Equal(t, cfg.Sections.CodeBase, *blocks[0].StartAddr)
	assert.Equal(t, *blocks[0].StartAddr+uint32(blocks[0].Size), *blocks[1].StartAddr)

	firstAddr, ok := sym.FunctionAddr("first")
	require.True(t, ok)
	assert.Equal(t, *blocks[0].StartAddr, firstAddr)
}

func TestRunResolvesForwardAliasAcrossPasses(t *testing.T) {
	src := "function main:\n" +
		"  jump [@target] [] []\n" +
		"  setreg [R1] [] [] #alias target\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()
	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)

	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))

	targetAddr, ok := sym.AliasAddr("target")
	require.True(t, ok)

	jumpLine := blocks[0].Lines[0]
	assert.Equal(t, targetAddr, jumpLine.P1)
}

func TestRunIsAFixedPoint(t *testing.T) {
	src := "function boot:\n" +
		"  jump [target():] [] []\n" +
		"  setreg 0x4000 [] []\n" +
		"function target:\n" +
		"  add [] [] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()
	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)

	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))

	type snap struct {
		start uint32
		size  int
	}
	capture := func() []snap {
		out := make([]snap, len(blocks))
		for i, b := range blocks {
			out[i] = snap{start: *b.StartAddr, size: b.Size}
		}
		return out
	}

	first := capture()
	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))
	assert.Equal(t, first, capture())
}

func TestRunMultiWordInstructionAddressesContiguous(t *testing.T) {
	src := "function main:\n" +
		"  setreg 0x4000 [] []\n" +
		"  add [] [] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()
	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)

	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))

	setregLine := blocks[0].Lines[0]
	require.Len(t, setregLine.ExpandedBits, 2)
	require.Len(t, setregLine.Addresses, 2)
	assert.Equal(t, setregLine.Addresses[0]+1, setregLine.Addresses[1])

	addLine := blocks[0].Lines[1]
	require.Len(t, addLine.Addresses, 1)
	assert.Equal(t, setregLine.Addresses[1]+1, addLine.Addresses[0])
	assert.Equal(t, 3, blocks[0].Size)
}

func TestRunKeepsPinnedFunctionAddressAndOverlapIsDetected(t *testing.T) {
	src := "function first:\n" +
		"  setreg [R1] [] []\n" +
		"  add [] [] []\n" +
		"function second:\n" +
		"  add [] [] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()

	// Pin "second" inside first's range before parsing; the declaration
	// and layout both keep a pre-assigned address.
	pinned := uint32(1)
	require.NoError(t, sym.DefineFunction("second", &pinned))

	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)
	require.NoError(t, layout.Run(blocks, "t.pasm", cfg, sym, sink))

	assert.Equal(t, pinned, *blocks[1].StartAddr)
	assert.Error(t, validate.Blocks(blocks, "t.pasm"))
}

func TestRunFailsOnUndefinedAlias(t *testing.T) {
	src := "function main:\n" +
		"  jump [@nowhere] [] []\n"

	sym := symtab.New()
	sink := diag.NewSink()
	cfg := config.Default()
	blocks, err := parser.Parse(src, "t.pasm", cfg.ISA, sym, sink)
	require.NoError(t, err)

	err = layout.Run(blocks, "t.pasm", cfg, sym, sink)
	assert.Error(t, err)
}
