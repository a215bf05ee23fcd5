// Package inspect implements a read-only terminal viewer for a
// completed assembler run: block layout, the symbol table, and the
// annotated listing, browsable side by side.
package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/shlee-dev/polyasm/assemble"
	"github.com/shlee-dev/polyasm/ir"
	"github.com/shlee-dev/polyasm/xref"
)

// Viewer is a static, three-pane inspector over one assembler Result.
type Viewer struct {
	App    *tview.Application
	Pages  *tview.Pages
	Layout *tview.Flex

	BlocksView  *tview.TextView
	SymbolsView *tview.TextView
	ListingView *tview.TextView

	result *assemble.Result
}

// NewViewer builds a Viewer over a finished assembler run.
func NewViewer(result *assemble.Result) *Viewer {
	v := &Viewer{
		App:    tview.NewApplication(),
		result: result,
	}
	v.initializeViews()
	v.buildLayout()
	v.setupKeyBindings()
	return v
}

func (v *Viewer) initializeViews() {
	v.BlocksView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	v.BlocksView.SetBorder(true).SetTitle(" Blocks ")
	v.BlocksView.SetText(blocksText(v.result.Blocks))

	v.SymbolsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	v.SymbolsView.SetBorder(true).SetTitle(" Symbols ")
	v.SymbolsView.SetText(symbolsText(v.result))

	v.ListingView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	v.ListingView.SetBorder(true).SetTitle(" Listing ")
	v.ListingView.SetText(v.result.Listing)
}

func (v *Viewer) buildLayout() {
	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.BlocksView, 0, 1, false).
		AddItem(v.SymbolsView, 0, 1, false)

	v.Layout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, false).
		AddItem(v.ListingView, 0, 2, true)

	v.Pages = tview.NewPages().AddPage("main", v.Layout, true, true)
}

func (v *Viewer) setupKeyBindings() {
	v.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			v.App.Stop()
			return nil
		}
		switch event.Rune() {
		case 'q':
			v.App.Stop()
			return nil
		}
		return event
	})
}

// Run starts the viewer's event loop; it blocks until the user quits.
func (v *Viewer) Run() error {
	return v.App.SetRoot(v.Pages, true).Run()
}

func blocksText(blocks []*ir.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		start := uint32(0)
		if b.StartAddr != nil {
			start = *b.StartAddr
		}
		fmt.Fprintf(&sb, "%-8s %-20s 0x%04X  (%d words)\n", b.Kind, b.Name, start, b.Size)
	}
	return sb.String()
}

func symbolsText(result *assemble.Result) string {
	var sb strings.Builder
	sym := result.Symbols

	sb.WriteString("[aliases]\n")
	for _, name := range sym.AllAliases() {
		if addr, ok := sym.AliasAddr(name); ok {
			fmt.Fprintf(&sb, "  %-20s 0x%04X\n", name, addr)
		} else {
			fmt.Fprintf(&sb, "  %-20s (undefined)\n", name)
		}
	}

	sb.WriteString("[functions]\n")
	for _, name := range sym.AllFunctions() {
		if addr, ok := sym.FunctionAddr(name); ok {
			fmt.Fprintf(&sb, "  %-20s 0x%04X\n", name, addr)
		} else {
			fmt.Fprintf(&sb, "  %-20s (undefined)\n", name)
		}
	}

	sb.WriteString("[macros]\n")
	for _, name := range sym.AllMacros() {
		v, _ := sym.MacroValue(name)
		fmt.Fprintf(&sb, "  %-20s 0x%X\n", name, v)
	}

	refs := xref.Build(result.Blocks, sym)
	if unused := xref.Unreferenced(refs); len(unused) > 0 {
		sb.WriteString("[unreferenced]\n")
		sort.Strings(unused)
		for _, u := range unused {
			fmt.Fprintf(&sb, "  %s\n", u)
		}
	}

	return sb.String()
}
