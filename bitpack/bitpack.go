// Package bitpack converts between integers and the LSB-first bit arrays
// the instruction expander and data-word encoder operate on.
package bitpack

import "strings"

// IntToLSBBits returns the minimal LSB-first bit sequence for a
// non-negative value. v==0 yields an empty slice: the expander's
// continuation logic treats "no bits left" and "value is zero" as the
// same terminal condition, so a zero parameter never forces an extra word.
func IntToLSBBits(v uint64) []int {
	var bits []int
	for v > 0 {
		bits = append(bits, int(v&1))
		v >>= 1
	}
	return bits
}

// FormatWord renders a length-32 MSB-first bit array as a 32-character
// string of '0'/'1'.
func FormatWord(bitsMSBFirst []int) string {
	var sb strings.Builder
	sb.Grow(len(bitsMSBFirst))
	for _, b := range bitsMSBFirst {
		if b != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
