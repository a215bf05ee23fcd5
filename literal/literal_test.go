package literal

import "testing"

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"10", 10},
		{"0x1F", 0x1F},
		{"0X1f", 0x1f},
		{"0b101", 0b101},
		{"1_000", 1000},
		{"\"42\"", 42},
		{" 7 ", 7},
	}
	for _, c := range cases {
		got, err := ParseInt(c.in)
		if err != nil {
			t.Fatalf("ParseInt(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseInt(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseIntInvalid(t *testing.T) {
	for _, in := range []string{"", "0x", "0b", "abc"} {
		if _, err := ParseInt(in); err == nil {
			t.Errorf("ParseInt(%q): expected error", in)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, base := range []Base{Decimal, Hex, Binary} {
		s := Format(255, base)
		got, err := ParseInt(s)
		if err != nil {
			t.Fatalf("ParseInt(Format(255, %v)) = %q: %v", base, s, err)
		}
		if got != 255 {
			t.Errorf("round trip for base %v: got %d, want 255", base, got)
		}
	}
}
