package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyType classifies the shape of an opening order.
type StrategyType string

// Strategy type constants
const (
	StrategyIronCondor      StrategyType = "IC"
	StrategyPutCreditSpread StrategyType = "PCS"
	StrategyCallCreditSprd  StrategyType = "CCS"
	StrategyStrangle        StrategyType = "Strangle"
	StrategyUnknown         StrategyType = "Unknown"
)

// StrategyStatus is the lifecycle state of a reconstructed strategy.
type StrategyStatus string

// Strategy status constants
const (
	StatusOpen     StrategyStatus = "OPEN"
	StatusAdjusted StrategyStatus = "ADJUSTED"
	StatusClosed   StrategyStatus = "CLOSED"
)

// TimestampLayout is the ISO-8601 second-precision layout used for every
// persisted timestamp. Strings in this layout sort chronologically, which
// keeps repeated ingestion runs byte-identical.
const TimestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t in the persisted layout. The zero time renders
// as the empty string (persisted as NULL).
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimestampLayout, s)
}

// LegRecord is one contract leg of a strategy, accumulated across every
// opening fill of the identical contract and drawn down by closing fills.
// Corresponds to the legs table.
type LegRecord struct {
	ID         string // StrategyID:CALL|PUT:strike thousandths (8 digits):side
	StrategyID string
	Side       Side
	CallPut    CallPut
	Strike     float64
	Expiration string // ISO date

	// OpenQuantity is every unit ever opened on this leg;
	// RemainingQuantity only ever decreases and never exceeds it.
	OpenQuantity      int
	RemainingQuantity int

	// TotalSignedPremium accumulates price*qty per opening fill, credits
	// (short) positive and debits (long) negative.
	TotalSignedPremium float64

	OpenedAt time.Time
	ClosedAt time.Time // zero until RemainingQuantity hits 0
}

// AvgPrice is the volume-weighted entry price, rounded to 4 decimal places
// half away from zero. Zero when nothing was ever opened.
func (l *LegRecord) AvgPrice() float64 {
	if l.OpenQuantity == 0 {
		return 0
	}
	avg := decimal.NewFromFloat(l.TotalSignedPremium).
		Div(decimal.NewFromInt(int64(l.OpenQuantity))).
		Round(4)
	f, _ := avg.Float64()
	return f
}

// StrategyRecord is a reconstructed multi-leg strategy owning its legs.
// Corresponds to the strategies table.
type StrategyRecord struct {
	ID           string // {type}_{underlying}_{expiration}, suffixed on collision
	Underlying   string
	StrategyType StrategyType
	Status       StrategyStatus
	OpenedAt     time.Time
	ClosedAt     time.Time // zero unless Status is CLOSED
	Legs         map[string]*LegRecord
}

// FullyClosed reports whether every owned leg has been drawn down to zero.
func (s *StrategyRecord) FullyClosed() bool {
	for _, leg := range s.Legs {
		if leg.RemainingQuantity != 0 {
			return false
		}
	}
	return true
}

// PartiallyClosed reports whether at least one leg has had some quantity
// closed against it.
func (s *StrategyRecord) PartiallyClosed() bool {
	for _, leg := range s.Legs {
		if leg.RemainingQuantity != leg.OpenQuantity {
			return true
		}
	}
	return false
}

// FillRecord is one matched execution, opening or closing, attributed to a
// leg. Corresponds to the fills table.
type FillRecord struct {
	ID     string // trade id of the originating ParsedTrade
	LegID  string
	TS     time.Time
	Action Action
	Price  float64
	Qty    int // for closes this is the applied (possibly trimmed) quantity
	Fees   float64
}
