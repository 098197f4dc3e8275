package reconstruct

import (
	"fmt"
	"math"

	"stratdeck/internal/domain"
)

// LegID builds the deterministic leg key. Repeated opens of the identical
// contract under the same strategy map to the same id and therefore
// accumulate onto one leg instead of creating duplicates.
func LegID(strategyID string, cp domain.CallPut, strike float64, side domain.Side) string {
	return fmt.Sprintf("%s:%s:%08d:%s", strategyID, cp, int(math.Round(strike*1000)), side)
}

// strategyBaseID is the human-readable strategy key before collision
// handling.
func strategyBaseID(st domain.StrategyType, underlying, expiration string) string {
	return fmt.Sprintf("%s_%s_%s", st, underlying, expiration)
}

// allocateStrategyID suffixes the base id until it does not collide with an
// already-allocated strategy (_02, _03, ...).
func allocateStrategyID(base string, existing map[string]*domain.StrategyRecord) string {
	if _, ok := existing[base]; !ok {
		return base
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s_%02d", base, counter)
		if _, ok := existing[candidate]; !ok {
			return candidate
		}
	}
}
