package occ

import (
	"errors"
	"fmt"
	"testing"

	"stratdeck/internal/domain"
)

func TestParseSymbol_Valid(t *testing.T) {
	tests := []struct {
		symbol     string
		underlying string
		expiration string
		callPut    domain.CallPut
		strike     float64
	}{
		{"SPY251219C00650000", "SPY", "2025-12-19", domain.Call, 650.0},
		{"SPY   251219P00420000", "SPY", "2025-12-19", domain.Put, 420.0},
		{"xsp250117p00580500", "XSP", "2025-01-17", domain.Put, 580.5},
		{"BRKB260116C00450000", "BRKB", "2026-01-16", domain.Call, 450.0},
		{"A250620C00125000", "A", "2025-06-20", domain.Call, 125.0},
		{"QQQ250321P00417750", "QQQ", "2025-03-21", domain.Put, 417.75},
	}

	for _, tt := range tests {
		c, err := ParseSymbol(tt.symbol)
		if err != nil {
			t.Errorf("ParseSymbol(%q) error: %v", tt.symbol, err)
			continue
		}
		if c.Underlying != tt.underlying || c.Expiration != tt.expiration ||
			c.CallPut != tt.callPut || c.Strike != tt.strike {
			t.Errorf("ParseSymbol(%q) = %+v, want {%s %s %s %v}",
				tt.symbol, c, tt.underlying, tt.expiration, tt.callPut, tt.strike)
		}
	}
}

func TestParseSymbol_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
	}{
		{"empty", ""},
		{"too short", "SPY251219C0065"},
		{"equity ticker", "SPY"},
		{"digits at position zero", "251219C00650000X"},
		{"no six digit run", "SPYABCDEFC00650000"},
		{"bad flag", "SPY251219X00650000"},
		{"strike not numeric", "SPY251219C0065000Z"},
		{"strike too short", "SPY251219C000650"},
		{"bad expiration date", "SPY251345C00650000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSymbol(tt.symbol); !errors.Is(err, ErrNotOCCSymbol) {
				t.Errorf("ParseSymbol(%q) = %v, want ErrNotOCCSymbol", tt.symbol, err)
			}
		})
	}
}

// Round-trip: any synthesized ROOT+yymmdd+C/P+strike symbol must decode to
// exactly the attributes it was built from.
func TestParseSymbol_RoundTrip(t *testing.T) {
	roots := []string{"A", "SPY", "XSP", "BRKB", "GOOGL"}
	strikes := []float64{0.5, 12.125, 100, 420.5, 650, 4175.25}
	flags := map[byte]domain.CallPut{'C': domain.Call, 'P': domain.Put}

	for _, root := range roots {
		for _, strike := range strikes {
			for flag, cp := range flags {
				symbol := fmt.Sprintf("%s250117%c%08d", root, flag, int(strike*1000))
				c, err := ParseSymbol(symbol)
				if err != nil {
					t.Fatalf("ParseSymbol(%q) error: %v", symbol, err)
				}
				if c.Underlying != root {
					t.Errorf("%q: underlying = %q, want %q", symbol, c.Underlying, root)
				}
				if c.Expiration != "2025-01-17" {
					t.Errorf("%q: expiration = %q", symbol, c.Expiration)
				}
				if c.CallPut != cp {
					t.Errorf("%q: call_put = %q, want %q", symbol, c.CallPut, cp)
				}
				if c.Strike != strike {
					t.Errorf("%q: strike = %v, want %v", symbol, c.Strike, strike)
				}
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  spy 251219c00650000 "); got != "SPY251219C00650000" {
		t.Errorf("Normalize = %q", got)
	}
}
