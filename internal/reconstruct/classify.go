// Package reconstruct rebuilds multi-leg option strategies, their legs and
// their fill ledger from a time-sorted sequence of normalized executions.
package reconstruct

import "stratdeck/internal/domain"

type comboKey struct {
	CallPut domain.CallPut
	Side    domain.Side
}

// Classify infers a strategy type from the (call_put, side) combinations
// present among the opening trades of one order.
//
// Note the deliberate quirk inherited from the upstream data model: an
// order carrying only one side of one option type (e.g. a single naked
// short put) classifies as Strangle, the same label as a true two-option
// strangle missing full spread coverage. Downstream consumers rely on this
// labeling, so it is preserved rather than corrected.
func Classify(group []*domain.ParsedTrade) domain.StrategyType {
	combos := make(map[comboKey]bool)
	var hasCall, hasPut bool
	for _, t := range group {
		combos[comboKey{t.CallPut, t.Side}] = true
		switch t.CallPut {
		case domain.Call:
			hasCall = true
		case domain.Put:
			hasPut = true
		}
	}

	switch {
	case hasCall && hasPut:
		if combos[comboKey{domain.Call, domain.SideShort}] &&
			combos[comboKey{domain.Call, domain.SideLong}] &&
			combos[comboKey{domain.Put, domain.SideShort}] &&
			combos[comboKey{domain.Put, domain.SideLong}] {
			return domain.StrategyIronCondor
		}
		return domain.StrategyStrangle
	case hasPut:
		if combos[comboKey{domain.Put, domain.SideShort}] &&
			combos[comboKey{domain.Put, domain.SideLong}] {
			return domain.StrategyPutCreditSpread
		}
		return domain.StrategyStrangle
	case hasCall:
		if combos[comboKey{domain.Call, domain.SideShort}] &&
			combos[comboKey{domain.Call, domain.SideLong}] {
			return domain.StrategyCallCreditSprd
		}
		return domain.StrategyStrangle
	}
	return domain.StrategyUnknown
}
