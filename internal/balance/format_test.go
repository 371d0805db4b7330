package balance_test

import (
	"testing"

	"payrail/internal/balance"
)

func TestFormatExamples(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"2500000", 6, "2.500000"},
		{"1", 6, "0.000001"},
		{"0", 6, "0.000000"},
		{"1000000", 6, "1.000000"},
		{"123", 0, "123"},
		{"123456789123456789123456789", 18, "123456789.123456789123456789"},
	}
	for _, tc := range cases {
		got, err := balance.Format(tc.amount, tc.decimals)
		if err != nil {
			t.Fatalf("Format(%q, %d): %v", tc.amount, tc.decimals, err)
		}
		if got != tc.want {
			t.Fatalf("Format(%q, %d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	amounts := []string{
		"0", "1", "7", "999", "1000000", "2500000",
		"123456789", "1000000000000000000",
		"340282366920938463463374607431768211455", // 2^128 - 1
	}
	for _, amount := range amounts {
		for decimals := 0; decimals <= 18; decimals++ {
			display, err := balance.Format(amount, decimals)
			if err != nil {
				t.Fatalf("Format(%q, %d): %v", amount, decimals, err)
			}
			back, err := balance.Parse(display, decimals)
			if err != nil {
				t.Fatalf("Parse(%q, %d): %v", display, decimals, err)
			}
			if back != amount {
				t.Fatalf("round trip %q at %d decimals: got %q via %q", amount, decimals, back, display)
			}
		}
	}
}

func TestParseShortFractionPads(t *testing.T) {
	got, err := balance.Parse("2.5", 6)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != "2500000" {
		t.Fatalf("Parse(2.5, 6) = %q, want 2500000", got)
	}
}

func TestParseRejectsExcessPrecision(t *testing.T) {
	if _, err := balance.Parse("1.1234567", 6); err == nil {
		t.Fatal("expected error for 7 fractional digits at 6 decimals")
	}
}

func TestFormatRejectsBadInput(t *testing.T) {
	for _, amount := range []string{"", "abc", "-5", "1.5"} {
		if _, err := balance.Format(amount, 6); err == nil {
			t.Fatalf("Format(%q): expected error", amount)
		}
	}
}
