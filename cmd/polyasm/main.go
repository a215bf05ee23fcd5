// Command polyasm assembles a source file into its bitstring and
// annotated-listing output. The -m and -w flags override the section
// bases and field widths inline; -c loads a full TOML project config,
// and -inspect opens the interactive inspector over the finished run.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shlee-dev/polyasm/assemble"
	"github.com/shlee-dev/polyasm/config"
	"github.com/shlee-dev/polyasm/emit"
	"github.com/shlee-dev/polyasm/inspect"
	"github.com/shlee-dev/polyasm/ir"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		inputFile    = flag.String("i", "", "Input assembly file path (required)")
		outputFile   = flag.String("o", "", "Output bitstring text file path (required)")
		memoryOffset = flag.String("m", "code=0,data=0x50", "Override default memory section offsets. Format: code=<value>,data=<value>")
		fieldWidth   = flag.String("w", "opcode=5,param1=14,param2=5,param3=6", "Override default field widths. Format: opcode=<value>,param1=<value>,param2=<value>,param3=<value>")
		readable     = flag.Bool("r", false, "Generate a readable text file with detailed information")
		paramFormat  = flag.String("f", "hex", "Parameter format in the readable file (hex, dec, bin)")
		verbose      = flag.Bool("v", false, "Enable verbose output")
		configFile   = flag.String("c", "", "TOML project config file (default: built-in)")
		inspectMode  = flag.Bool("inspect", false, "Open the interactive inspector after assembling")
		showVersion  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("polyasm %s (%s)\n", Version, Commit)
		os.Exit(0)
	}

	if *inputFile == "" || *outputFile == "" {
		fmt.Fprintln(os.Stderr, "polyasm: -i input and -o output are required")
		flag.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: reading %s: %v\n", *inputFile, err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "polyasm: %v\n", err)
			os.Exit(1)
		}
		// Reseed -m/-w/-f from the loaded file unless given explicitly, so
		// their defaults do not undo the file's settings.
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["m"] {
			*memoryOffset = fmt.Sprintf("code=%d,data=%d", cfg.Sections.CodeBase, cfg.Sections.DataBase)
		}
		if !explicit["w"] {
			*fieldWidth = fmt.Sprintf("opcode=%d,param1=%d,param2=%d,param3=%d",
				cfg.Widths.Opcode, cfg.Widths.Param1, cfg.Widths.Param2, cfg.Widths.Param3)
		}
		if !explicit["f"] {
			*paramFormat = string(cfg.Listing.Format)
		}
	}

	if err := applySectionOverrides(&cfg.Sections, *memoryOffset); err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: %v\n", err)
		os.Exit(2)
	}
	if err := applyWidthOverrides(&cfg.Widths, *fieldWidth); err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Widths.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: %v\n", err)
		os.Exit(2)
	}
	switch config.NumberFormat(*paramFormat) {
	case config.FormatHex, config.FormatDec, config.FormatBin:
		cfg.Listing.Format = config.NumberFormat(*paramFormat)
	default:
		fmt.Fprintf(os.Stderr, "polyasm: -f must be one of hex, dec, bin, got %q\n", *paramFormat)
		os.Exit(2)
	}

	started := time.Now()
	result, err := assemble.Run(string(src), *inputFile, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(started)

	if *verbose {
		fmt.Fprint(os.Stderr, result.Sink.Render())
	}

	if err := os.WriteFile(*outputFile, []byte(emit.Bitstring(result.Buffer)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "polyasm: writing %s: %v\n", *outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d words)\n", *outputFile, len(result.Buffer))
	printSummary(result, elapsed)

	if *readable {
		listingFile := *outputFile + ".readable.txt"
		if err := os.WriteFile(listingFile, []byte(result.Listing), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "polyasm: writing listing %s: %v\n", listingFile, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", listingFile)
	}

	if *inspectMode {
		v := inspect.NewViewer(result)
		if err := v.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "polyasm: inspector: %v\n", err)
			os.Exit(1)
		}
	}
}

// applySectionOverrides parses a "-m code=0,data=0x50"-style override
// string onto sections. Values are base-0 parsed, so 0x/0b prefixes work.
func applySectionOverrides(sections *config.Sections, spec string) error {
	for _, ov := range strings.Split(spec, ",") {
		key, val, ok := strings.Cut(ov, "=")
		if !ok {
			return fmt.Errorf("invalid memory_offset format: %q, expected key=value", ov)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		n, err := strconv.ParseUint(strings.TrimSpace(val), 0, 32)
		if err != nil {
			return fmt.Errorf("invalid offset value for %q: %q", key, val)
		}
		switch key {
		case "code":
			sections.CodeBase = uint32(n)
		case "data":
			sections.DataBase = uint32(n)
		default:
			return fmt.Errorf("unknown section key %q, supported keys: code, data", key)
		}
	}
	return nil
}

// applyWidthOverrides parses a "-w opcode=5,param1=14,param2=5,param3=6"
// override string onto widths, matching applySectionOverrides'
// convention.
func applyWidthOverrides(widths *config.FieldWidths, spec string) error {
	for _, ov := range strings.Split(spec, ",") {
		key, val, ok := strings.Cut(ov, "=")
		if !ok {
			return fmt.Errorf("invalid field_width format: %q, expected key=value", ov)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		n, err := strconv.ParseUint(strings.TrimSpace(val), 0, 32)
		if err != nil {
			return fmt.Errorf("invalid width value for %q: %q", key, val)
		}
		switch key {
		case "opcode":
			widths.Opcode = int(n)
		case "param1":
			widths.Param1 = int(n)
		case "param2":
			widths.Param2 = int(n)
		case "param3":
			widths.Param3 = int(n)
		default:
			return fmt.Errorf("unknown field width key %q, supported keys: opcode, param1, param2, param3", key)
		}
	}
	return nil
}

// printSummary reports the shape of a finished run: block counts, symbol
// counts and the address range each section occupies.
func printSummary(result *assemble.Result, elapsed time.Duration) {
	var functions, memories int
	for _, b := range result.Blocks {
		if b.Kind == ir.Function {
			functions++
		} else {
			memories++
		}
	}
	fmt.Printf("  %d function block(s), %d memory block(s)\n", functions, memories)
	fmt.Printf("  %d alias(es), %d macro(s)\n",
		len(result.Symbols.AllAliases()), len(result.Symbols.AllMacros()))
	if lo, hi, ok := sectionRange(result.Blocks, ir.Function); ok {
		fmt.Printf("  code section: 0x%X-0x%X\n", lo, hi)
	}
	if lo, hi, ok := sectionRange(result.Blocks, ir.Memory); ok {
		fmt.Printf("  data section: 0x%X-0x%X\n", lo, hi)
	}
	fmt.Printf("  assembled in %s\n", elapsed.Round(time.Microsecond))
}

// sectionRange returns the inclusive address range occupied by blocks of
// the given kind, or ok=false when the section is empty.
func sectionRange(blocks []*ir.Block, kind ir.BlockKind) (lo, hi uint32, ok bool) {
	for _, b := range blocks {
		if b.Kind != kind || b.StartAddr == nil || b.Size == 0 {
			continue
		}
		start := *b.StartAddr
		end := start + uint32(b.Size) - 1
		if !ok || start < lo {
			lo = start
		}
		if !ok || end > hi {
			hi = end
		}
		ok = true
	}
	return lo, hi, ok
}
