// Package expand packs an opcode and three parameters into one or more
// 32-bit words, adding a continuation bit and an even-parity bit to
// each word.
package expand

import (
	"fmt"

	"github.com/shlee-dev/polyasm/bitpack"
	"github.com/shlee-dev/polyasm/config"
)

// Instruction expands (opcode, p1, p2, p3) into one or more 32-bit words
// under the given field widths, returning each word as a 32-character
// "0"/"1" string (MSB-first).
//
// opcodeBits is the opcode's bit-string exactly as stored in the ISA
// table (MSB-first, as written by the assembler author); its length must
// equal widths.Opcode or this is a fatal configuration error.
func Instruction(opcodeBits string, p1, p2, p3 uint32, widths config.FieldWidths) ([]string, error) {
	if len(opcodeBits) != widths.Opcode {
		return nil, fmt.Errorf("opcode bit-string length %d does not match configured width %d",
			len(opcodeBits), widths.Opcode)
	}

	opArr := lsbFromMSBString(opcodeBits)
	arr1 := bitpack.IntToLSBBits(uint64(p1))
	arr2 := bitpack.IntToLSBBits(uint64(p2))
	arr3 := bitpack.IntToLSBBits(uint64(p3))

	payload := widths.PayloadWidth()
	var words []string

	for {
		out := make([]int, payload+1) // +1 for the continuation bit

		opArr = fillField(out, 0, widths.Opcode, opArr)
		offset := widths.Opcode
		arr1 = fillField(out, offset, widths.Param1, arr1)
		offset += widths.Param1
		arr2 = fillField(out, offset, widths.Param2, arr2)
		offset += widths.Param2
		arr3 = fillField(out, offset, widths.Param3, arr3)

		cbit := 0
		if len(arr1) > 0 || len(arr2) > 0 || len(arr3) > 0 {
			cbit = 1
		}
		out[payload] = cbit

		ones := 0
		for _, b := range out {
			ones += b
		}
		pbit := ones % 2

		full := append(out, pbit) // LSB-first: payload..., cbit, pbit

		// Render MSB-first: reverse the LSB-first array.
		msb := make([]int, len(full))
		for i, b := range full {
			msb[len(full)-1-i] = b
		}
		words = append(words, bitpack.FormatWord(msb))

		if len(arr1) == 0 && len(arr2) == 0 && len(arr3) == 0 {
			break
		}
	}

	return words, nil
}

// fillField fills width slots of out starting at offset by popping from
// the front of bits, padding with zero once bits is exhausted, and
// returns the remaining (unpopped) bits.
func fillField(out []int, offset, width int, bits []int) []int {
	for i := 0; i < width; i++ {
		if len(bits) > 0 {
			out[offset+i] = bits[0]
			bits = bits[1:]
		} else {
			out[offset+i] = 0
		}
	}
	return bits
}

// lsbFromMSBString converts an MSB-first bit-string (as written in an ISA
// table) into an LSB-first int array ready for fillField.
func lsbFromMSBString(s string) []int {
	bits := make([]int, len(s))
	n := len(s)
	for i := 0; i < n; i++ {
		if s[n-1-i] == '1' {
			bits[i] = 1
		}
	}
	return bits
}
