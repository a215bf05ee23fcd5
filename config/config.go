// Package config loads the assembler's project-level settings (section
// bases, instruction field widths, and the opcode/register/flag tables
// that make up the target ISA) from a TOML file: built-in defaults with
// an optional file overlay.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Sections holds the base address of the code and data sections.
type Sections struct {
	CodeBase uint32 `toml:"code_base"`
	DataBase uint32 `toml:"data_base"`
}

// FieldWidths holds the bit width of each instruction field. Their sum
// plus the continuation and parity bits must equal 32.
type FieldWidths struct {
	Opcode int `toml:"opcode"`
	Param1 int `toml:"param1"`
	Param2 int `toml:"param2"`
	Param3 int `toml:"param3"`
}

// PayloadWidth is the sum of the four field widths, excluding the
// continuation and parity bits.
func (w FieldWidths) PayloadWidth() int {
	return w.Opcode + w.Param1 + w.Param2 + w.Param3
}

// Validate enforces the "field widths + 2 == 32" invariant.
func (w FieldWidths) Validate() error {
	if w.PayloadWidth()+2 != 32 {
		return fmt.Errorf("field widths %d+%d+%d+%d plus 2 control bits must total 32, got %d",
			w.Opcode, w.Param1, w.Param2, w.Param3, w.PayloadWidth()+2)
	}
	return nil
}

// NumberFormat selects how the readable listing renders instruction
// parameters and data bytes.
type NumberFormat string

const (
	FormatHex NumberFormat = "hex"
	FormatDec NumberFormat = "dec"
	FormatBin NumberFormat = "bin"
)

// ISA holds the mnemonic/register/flag tables an assembly run is
// configured against. Mnemonics are looked up after lowercasing the
// source token; registers and flags are looked up as written.
type ISA struct {
	// Opcodes maps a lowercase mnemonic to its opcode bit-string (length
	// must equal FieldWidths.Opcode).
	Opcodes map[string]string `toml:"opcodes"`
	// Registers maps a register name to its encoded value.
	Registers map[string]uint32 `toml:"registers"`
	// Flags maps a flag name to its 8-bit value, for data-word flag
	// expressions.
	Flags map[string]uint8 `toml:"flags"`
}

// Config is the full set of settings for one assembler run.
type Config struct {
	Sections Sections    `toml:"sections"`
	Widths   FieldWidths `toml:"widths"`
	ISA      ISA         `toml:"isa"`
	Listing  Listing     `toml:"listing"`
}

// Listing controls the optional annotated-listing output.
type Listing struct {
	Format NumberFormat `toml:"format"`
}

// DefaultSections returns the default section bases: code at 0x0, data
// at 0x50.
func DefaultSections() Sections {
	return Sections{CodeBase: 0x0, DataBase: 0x50}
}

// DefaultFieldWidths returns the default field widths: 5/14/5/6.
func DefaultFieldWidths() FieldWidths {
	return FieldWidths{Opcode: 5, Param1: 14, Param2: 5, Param3: 6}
}

// DefaultISA returns the built-in opcode/register/flag tables.
func DefaultISA() ISA {
	return ISA{
		Opcodes: map[string]string{
			"jump":   "00010",
			"add":    "00011",
			"setreg": "00001",
		},
		Registers: map[string]uint32{
			"Jump_Register": 2,
			"R1":            5,
			"REG_MOD":       1,
			"REG_CMR":       2,
		},
		Flags: map[string]uint8{
			"REG_SET1": 0x20,
			"REG_SET2": 0x10,
		},
	}
}

// Default returns a complete configuration built entirely from the
// defaults above.
func Default() *Config {
	return &Config{
		Sections: DefaultSections(),
		Widths:   DefaultFieldWidths(),
		ISA:      DefaultISA(),
		Listing:  Listing{Format: FormatHex},
	}
}

// LoadFile reads a TOML project file and overlays it onto Default(). A
// project file may specify any subset of sections/widths/isa/listing;
// omitted tables keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	if err := cfg.Widths.Validate(); err != nil {
		return nil, err
	}
	for name, bits := range cfg.ISA.Opcodes {
		if len(bits) != cfg.Widths.Opcode {
			return nil, fmt.Errorf("opcode %q bit-string length %d does not match configured opcode width %d",
				name, len(bits), cfg.Widths.Opcode)
		}
	}
	return cfg, nil
}
