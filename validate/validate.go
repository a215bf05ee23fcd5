// Package validate checks that no two blocks occupy the same address,
// and that the code and data sections as a whole do not overlap each
// other.
package validate

import (
	"sort"

	"github.com/shlee-dev/polyasm/diag"
	"github.com/shlee-dev/polyasm/ir"
)

type span struct {
	name  string
	start uint32
	end   uint32 // exclusive
}

// Blocks checks that no two blocks' address ranges intersect, function
// and memory blocks alike.
func Blocks(blocks []*ir.Block, filename string) error {
	var spans []span
	for _, b := range blocks {
		if b.StartAddr == nil {
			continue
		}
		start := *b.StartAddr
		spans = append(spans, span{name: b.Name, start: start, end: start + uint32(b.Size)})
	}
	return checkOverlap(spans, filename)
}

// Sections checks that the overall code-section range and data-section
// range do not overlap each other.
func Sections(blocks []*ir.Block, filename string) error {
	code := sectionSpan(blocks, ir.Function)
	data := sectionSpan(blocks, ir.Memory)
	if code == nil || data == nil {
		return nil
	}
	if code.start < data.end && data.start < code.end {
		return diag.NewError(diag.Position{File: filename}, diag.KindLayout,
			"code section [0x%X,0x%X) overlaps data section [0x%X,0x%X)",
			code.start, code.end, data.start, data.end)
	}
	return nil
}

func spansOf(blocks []*ir.Block, kind ir.BlockKind) []span {
	var spans []span
	for _, b := range blocks {
		if b.Kind != kind || b.StartAddr == nil {
			continue
		}
		start := *b.StartAddr
		spans = append(spans, span{name: b.Name, start: start, end: start + uint32(b.Size)})
	}
	return spans
}

func sectionSpan(blocks []*ir.Block, kind ir.BlockKind) *span {
	var lo, hi uint32
	found := false
	for _, s := range spansOf(blocks, kind) {
		if !found || s.start < lo {
			lo = s.start
		}
		if !found || s.end > hi {
			hi = s.end
		}
		found = true
	}
	if !found {
		return nil
	}
	return &span{start: lo, end: hi}
}

func checkOverlap(spans []span, filename string) error {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.start < prev.end {
			return diag.NewError(diag.Position{File: filename}, diag.KindLayout,
				"block %q [0x%X,0x%X) overlaps block %q [0x%X,0x%X)",
				prev.name, prev.start, prev.end, cur.name, cur.start, cur.end)
		}
	}
	return nil
}
