// Package occ decodes OCC-style option symbols as found in brokerage
// trade-execution exports, e.g. "SPY251219C00650000".
package occ

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stratdeck/internal/domain"
)

// ErrNotOCCSymbol is returned for strings that cannot be decoded as an OCC
// option symbol. Callers treat it as "skip this row".
var ErrNotOCCSymbol = errors.New("not an OCC option symbol")

// minSymbolLen is root(>=1) + expiration(6) + flag(1) + strike(8).
const minSymbolLen = 16

// Contract holds the attributes decoded from an option symbol.
type Contract struct {
	Underlying string
	Expiration string // ISO date (YYYY-MM-DD)
	CallPut    domain.CallPut
	Strike     float64
}

// Normalize upper-cases a raw symbol and strips embedded whitespace.
// Exports pad the root with spaces ("SPY   251219C00650000").
func Normalize(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), " ", "")
}

// ParseSymbol decodes a symbol into its contract attributes.
//
// The expiration is the first run of exactly 6 consecutive digits that does
// not start at position 0; the root length is variable, so no fixed offset
// can be assumed. The byte after the expiration must be C or P, and the
// remaining characters are the strike in thousandths.
func ParseSymbol(symbol string) (Contract, error) {
	cleaned := Normalize(symbol)
	if len(cleaned) < minSymbolLen {
		return Contract{}, fmt.Errorf("%w: %q too short", ErrNotOCCSymbol, symbol)
	}

	idx := -1
	for pos := 0; pos+6 <= len(cleaned); pos++ {
		if allDigits(cleaned[pos : pos+6]) {
			idx = pos
			break
		}
	}
	if idx <= 0 {
		return Contract{}, fmt.Errorf("%w: no expiration digits in %q", ErrNotOCCSymbol, symbol)
	}

	root := cleaned[:idx]
	rest := cleaned[idx:]
	if len(rest) < 7 {
		return Contract{}, fmt.Errorf("%w: %q truncated after expiration", ErrNotOCCSymbol, symbol)
	}

	exp, err := time.Parse("060102", rest[:6])
	if err != nil {
		return Contract{}, fmt.Errorf("%w: bad expiration in %q", ErrNotOCCSymbol, symbol)
	}

	var cp domain.CallPut
	switch rest[6] {
	case 'C':
		cp = domain.Call
	case 'P':
		cp = domain.Put
	default:
		return Contract{}, fmt.Errorf("%w: bad call/put flag %q in %q", ErrNotOCCSymbol, rest[6], symbol)
	}

	strikeRaw := rest[7:]
	if len(strikeRaw) < 7 || !allDigits(strikeRaw) {
		return Contract{}, fmt.Errorf("%w: bad strike digits in %q", ErrNotOCCSymbol, symbol)
	}
	thousandths, err := strconv.ParseInt(strikeRaw, 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: bad strike in %q", ErrNotOCCSymbol, symbol)
	}

	return Contract{
		Underlying: root,
		Expiration: exp.Format("2006-01-02"),
		CallPut:    cp,
		Strike:     float64(thousandths) / 1000.0,
	}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
