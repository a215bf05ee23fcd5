// Package dataword turns one memory-block content line into a single
// 32-bit word, using either the quoted 4-byte grammar (with flag
// arithmetic) or the unquoted raw bit-string grammar.
package dataword

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/literal"
	"github.com/shlee-dev/polyasm/symtab"
)

// quotedField extracts each independently double-quoted byte expression
// from a data line.
var quotedField = regexp.MustCompile(`"([^"]+)"`)

// Terms returns every bare name referenced by a data line's quoted byte
// expressions (flag names and macro names alike, stripped of any leading
// '~'), for cross-reference reporting. It returns nil for an unquoted
// data line, which can only ever be a literal bit-string.
func Terms(text string) []string {
	matches := quotedField.FindAllStringSubmatch(strings.TrimSpace(text), -1)
	var names []string
	for _, m := range matches {
		for _, t := range splitOperators(strings.TrimSpace(m[1])) {
			term := strings.TrimPrefix(strings.TrimSpace(t.term), "~")
			names = append(names, term)
		}
	}
	return names
}

// Line encodes one memory-block content line into a 32-character
// "0"/"1" word string (MSB-first), dispatching on whether text is
// quoted.
func Line(text string, isa config.ISA, sym *symtab.Table, pos diag.Position, sink *diag.Sink) (string, error) {
	t := strings.TrimSpace(text)
	if strings.Contains(t, `"`) {
		return quoted(t, isa, sym, pos, sink)
	}
	return unquoted(t, pos, sink)
}

// quoted encodes the 4-byte quoted grammar. The first quoted substring
// becomes the leftmost (highest) byte of the word.
func quoted(s string, isa config.ISA, sym *symtab.Table, pos diag.Position, sink *diag.Sink) (string, error) {
	matches := quotedField.FindAllStringSubmatch(s, -1)
	if len(matches) != 4 {
		return "", diag.NewError(pos, diag.KindSyntax,
			"quoted data word needs exactly 4 quoted bytes, got %d", len(matches))
	}

	var sb strings.Builder
	for _, m := range matches {
		part := strings.TrimSpace(m[1])
		v, err := byteExpr(part, isa, sym, pos, sink)
		if err != nil {
			return "", err
		}
		if v > 255 {
			return "", diag.NewError(pos, diag.KindLiteral, "byte value %d exceeds 255", v)
		}
		for bit := 7; bit >= 0; bit-- {
			if v&(1<<uint(bit)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String(), nil
}

// byteExpr evaluates a single byte field. A field containing any of the
// combinator characters is a flag expression; anything else is a macro
// reference or a plain literal.
func byteExpr(expr string, isa config.ISA, sym *symtab.Table, pos diag.Position, sink *diag.Sink) (uint32, error) {
	if strings.ContainsAny(expr, "|&^~+-") {
		return flagExpr(expr, isa, sym, pos, sink)
	}
	if v, ok := sym.MacroValue(expr); ok {
		return v, nil
	}
	v, err := literal.ParseInt(expr)
	if err != nil {
		return 0, diag.NewError(pos, diag.KindLiteral, "data byte %q: %v", expr, err)
	}
	return uint32(v), nil
}

// flagExpr folds a flag expression left to right. Every term must name a
// macro or an entry in the flag table; a leading ~ on any term negates
// that term (bitwise NOT over the low 8 bits) before it joins the fold.
// The fold itself is unmasked, so an overflowing + or a wrapping - is
// caught by the caller's byte-range check.
func flagExpr(expr string, isa config.ISA, sym *symtab.Table, pos diag.Position, sink *diag.Sink) (uint32, error) {
	ops := splitOperators(expr)

	acc := uint32(0)
	for i, t := range ops {
		term := strings.TrimSpace(t.term)
		negate := false
		if strings.HasPrefix(term, "~") {
			negate = true
			term = term[1:]
			sink.Warn(pos, "'~' in data byte expression %q negates the term it precedes", expr)
		}
		v, err := flagValue(term, isa, sym)
		if err != nil {
			return 0, diag.NewError(pos, diag.KindEncoding, "%v", err)
		}
		if negate {
			v = ^v & 0xFF
		}
		if i == 0 {
			acc = v
			continue
		}
		switch t.op {
		case '|':
			acc |= v
		case '&':
			acc &= v
		case '^':
			acc ^= v
		case '+':
			acc += v
		case '-':
			acc -= v
		}
	}
	return acc, nil
}

type opTerm struct {
	op   byte // 0 for the first term
	term string
}

// splitOperators tokenizes a byte expression like "REG_SET1|~0x0f" into
// its left-fold terms.
func splitOperators(expr string) []opTerm {
	var out []opTerm
	cur := strings.Builder{}
	op := byte(0)
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if (c == '|' || c == '&' || c == '^' || c == '+' || c == '-') && cur.Len() > 0 {
			out = append(out, opTerm{op: op, term: cur.String()})
			cur.Reset()
			op = c
			continue
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		out = append(out, opTerm{op: op, term: cur.String()})
	}
	return out
}

// flagValue resolves one flag-expression term: a macro value or a flag
// table entry, each required to fit in 8 bits.
func flagValue(term string, isa config.ISA, sym *symtab.Table) (uint32, error) {
	term = strings.TrimSpace(term)
	if v, ok := sym.MacroValue(term); ok {
		if v > 255 {
			return 0, fmt.Errorf("flag %q value %d exceeds 8 bits", term, v)
		}
		return v, nil
	}
	if v, ok := isa.Flags[term]; ok {
		return uint32(v), nil
	}
	return 0, fmt.Errorf("unknown flag %q", term)
}

// unquoted encodes the raw bit-string grammar: a string of only '0' and
// '1' characters, with whitespace allowed anywhere as a visual
// separator. Exactly 32 bits are emitted as-is; fewer than 32 are
// right-padded with zero bits (with a warning); more than 32 is fatal.
func unquoted(t string, pos diag.Position, sink *diag.Sink) (string, error) {
	t = strings.Join(strings.Fields(t), "")
	for _, c := range t {
		if c != '0' && c != '1' {
			return "", diag.NewError(pos, diag.KindSyntax, "unquoted data word %q is not a pure bit-string", t)
		}
	}
	switch {
	case len(t) == 32:
		return t, nil
	case len(t) < 32:
		sink.Warn(pos, "unquoted data word has %d bits, right-padding to 32", len(t))
		return t + strings.Repeat("0", 32-len(t)), nil
	default:
		return "", diag.NewError(pos, diag.KindSyntax, "unquoted data word has %d bits, exceeds 32", len(t))
	}
}
