package assemble_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlee-dev/polyasm/assemble"
	"github.com/shlee-dev/polyasm/config"
)

func TestRunEndToEnd(t *testing.T) {
	src := "function main:\n" +
		"  setreg [R1] [] [] #alias entry\n" +
		"  jump [@entry] [] []\n" +
		"#memory table:\n" +
		"\"0x01\" \"0x02\" \"0x03\" \"0x04\"\n"

	cfg := config.Default()
	result, err := assemble.Run(src, "t.pasm", cfg)
	require.NoError(t, err)

	require.Len(t, result.Blocks, 2)
	assert.NotEmpty(t, result.Buffer)
	assert.NotEmpty(t, result.Listing)

	entryAddr, ok := result.Symbols.AliasAddr("entry")
	require.True(t, ok)
	assert.Equal(t, cfg.Sections.CodeBase, entryAddr)

	// The buffer covers every address up to the memory block's word at
	// the data base; unwritten addresses are all-zero words.
	require.Len(t, result.Buffer, int(cfg.Sections.DataBase)+1)
	assert.Equal(t, "00000001"+"00000010"+"00000011"+"00000100",
		result.Buffer[cfg.Sections.DataBase])
	assert.Equal(t, strings.Repeat("0", 32), result.Buffer[2])
}

func TestRunForwardFunctionReference(t *testing.T) {
	src := "function boot:\n" +
		"  jump [target():] [] []\n" +
		"function target:\n" +
		"  add [] [] []\n"

	cfg := config.Default()
	result, err := assemble.Run(src, "t.pasm", cfg)
	require.NoError(t, err)

	bootAddr, ok := result.Symbols.FunctionAddr("boot")
	require.True(t, ok)
	assert.Equal(t, uint32(0), bootAddr)

	targetAddr, ok := result.Symbols.FunctionAddr("target")
	require.True(t, ok)

	jumpLine := result.Blocks[0].Lines[0]
	assert.Equal(t, targetAddr, jumpLine.P1)
}

func TestRunListingAnnotatesAliases(t *testing.T) {
	src := "function main:\n" +
		"  setreg [R1] [] [] #alias entry start\n"

	result, err := assemble.Run(src, "t.pasm", config.Default())
	require.NoError(t, err)
	assert.Contains(t, result.Listing, "<- alias: entry, start")
}

func TestRunFatalOnOverlappingSections(t *testing.T) {
	cfg := config.Default()
	cfg.Sections.DataBase = cfg.Sections.CodeBase

	src := "function main:\n  setreg [R1] [] []\n" +
		"#memory table:\n\"0x01\" \"0x02\" \"0x03\" \"0x04\"\n"

	_, err := assemble.Run(src, "t.pasm", cfg)
	assert.Error(t, err)
}

func TestRunFatalOnUndeclaredFunctionCall(t *testing.T) {
	src := "function main:\n  jump [nowhere():] [] []\n"

	_, err := assemble.Run(src, "t.pasm", config.Default())
	assert.Error(t, err)
}
