package domain

import "time"

// Action is the execution direction of a fill.
type Action string

// Action constants
const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Intent says whether a fill opens or closes a position.
type Intent string

// Intent constants
const (
	IntentOpen  Intent = "OPEN"
	IntentClose Intent = "CLOSE"
)

// Side is the orientation of the position a fill belongs to.
type Side string

// Side constants
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// CallPut is the option type flag.
type CallPut string

// CallPut constants
const (
	Call CallPut = "CALL"
	Put  CallPut = "PUT"
)

// ParsedTrade is one normalized execution row from a brokerage export.
// It is built once per surviving input row, consumed by the reconstructor,
// and never persisted directly.
type ParsedTrade struct {
	Source     string // file stem the row came from
	RowNum     int    // 1-based line number in the file (header is line 1)
	Timestamp  time.Time
	Underlying string
	Expiration string // ISO date (YYYY-MM-DD)
	CallPut    CallPut
	Strike     float64
	Quantity   int     // always positive
	Price      float64 // per-contract premium, >= 0
	Fees       float64 // summed across all fee columns
	Action     Action
	Intent     Intent
	Side       Side // derived from Action+Intent, never read from input
	OrderID    string
	TradeID    string
}

// DeriveSide maps an action/intent pair to the position orientation:
// opening sells are short, opening buys are long, closing buys unwind a
// short, closing sells unwind a long.
func DeriveSide(action Action, intent Intent) Side {
	if intent == IntentOpen {
		if action == ActionSell {
			return SideShort
		}
		return SideLong
	}
	if action == ActionBuy {
		return SideShort
	}
	return SideLong
}
