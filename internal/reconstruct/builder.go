package reconstruct

import (
	"log"
	"sort"

	"stratdeck/internal/domain"
)

// legKey is the secondary index key closing trades search by. A close knows
// its contract attributes but not which strategy opened them.
type legKey struct {
	Underlying string
	Expiration string
	CallPut    domain.CallPut
	Strike     float64
	Side       domain.Side
}

// Stats counts matching anomalies alongside the assembled entities.
type Stats struct {
	Strategies    int
	Legs          int
	Fills         int
	OrphanCloses  int
	TrimmedCloses int
}

// Result is the full reconstructed state of one ingestion run.
type Result struct {
	Strategies map[string]*domain.StrategyRecord
	Fills      []*domain.FillRecord
	Stats      Stats
}

// Builder holds the mutable state of a single reconstruction run. All state
// is local to the builder, so concurrent runs over different inputs never
// interfere and tests get fresh state for free.
type Builder struct {
	logger     *log.Logger
	strategies map[string]*domain.StrategyRecord
	legIndex   map[legKey][]*domain.LegRecord // bucket order = creation order (FIFO)
	fills      []*domain.FillRecord
	stats      Stats
}

// NewBuilder creates a Builder. A nil logger falls back to the default.
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		logger:     logger,
		strategies: make(map[string]*domain.StrategyRecord),
		legIndex:   make(map[legKey][]*domain.LegRecord),
	}
}

// Build consumes the trade sequence, which must already be sorted ascending
// by timestamp across all source files, and reconstructs every strategy,
// leg and fill. Opening orders are processed first, then every closing
// trade strictly in timestamp order.
func (b *Builder) Build(trades []*domain.ParsedTrade) *Result {
	var closes []*domain.ParsedTrade
	orders := make(map[string][]*domain.ParsedTrade)
	var orderIDs []string

	for _, trade := range trades {
		if trade.Intent == domain.IntentOpen {
			if _, seen := orders[trade.OrderID]; !seen {
				orderIDs = append(orderIDs, trade.OrderID)
			}
			orders[trade.OrderID] = append(orders[trade.OrderID], trade)
		} else {
			closes = append(closes, trade)
		}
	}

	// Order groups process in ascending order of their earliest fill;
	// the order id tiebreak keeps runs deterministic across file order.
	sort.SliceStable(orderIDs, func(i, j int) bool {
		ti := orders[orderIDs[i]][0].Timestamp
		tj := orders[orderIDs[j]][0].Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return orderIDs[i] < orderIDs[j]
	})

	for _, orderID := range orderIDs {
		b.openOrder(orders[orderID])
	}
	for _, trade := range closes {
		b.applyClose(trade)
	}

	// Opening and closing fills interleave once merged.
	sort.SliceStable(b.fills, func(i, j int) bool {
		return b.fills[i].TS.Before(b.fills[j].TS)
	})

	b.stats.Strategies = len(b.strategies)
	for _, s := range b.strategies {
		b.stats.Legs += len(s.Legs)
	}
	b.stats.Fills = len(b.fills)

	return &Result{Strategies: b.strategies, Fills: b.fills, Stats: b.stats}
}

// openOrder turns one opening order group into a strategy and its legs.
// All legs of one order are assumed to open atomically.
func (b *Builder) openOrder(group []*domain.ParsedTrade) {
	underlying := mostFrequent(group, func(t *domain.ParsedTrade) string { return t.Underlying })
	expiration := mostFrequent(group, func(t *domain.ParsedTrade) string { return t.Expiration })

	openedAt := group[0].Timestamp
	for _, t := range group[1:] {
		if t.Timestamp.Before(openedAt) {
			openedAt = t.Timestamp
		}
	}

	strategyType := Classify(group)
	strategyID := allocateStrategyID(strategyBaseID(strategyType, underlying, expiration), b.strategies)
	strategy := &domain.StrategyRecord{
		ID:           strategyID,
		Underlying:   underlying,
		StrategyType: strategyType,
		Status:       domain.StatusOpen,
		OpenedAt:     openedAt,
		Legs:         make(map[string]*domain.LegRecord),
	}
	b.strategies[strategyID] = strategy

	for _, trade := range group {
		legID := LegID(strategyID, trade.CallPut, trade.Strike, trade.Side)
		leg, ok := strategy.Legs[legID]
		if !ok {
			leg = &domain.LegRecord{
				ID:         legID,
				StrategyID: strategyID,
				Side:       trade.Side,
				CallPut:    trade.CallPut,
				Strike:     trade.Strike,
				Expiration: trade.Expiration,
			}
			strategy.Legs[legID] = leg
			key := legKey{trade.Underlying, trade.Expiration, trade.CallPut, trade.Strike, trade.Side}
			b.legIndex[key] = append(b.legIndex[key], leg)
		}

		leg.OpenQuantity += trade.Quantity
		leg.RemainingQuantity += trade.Quantity
		premium := trade.Price * float64(trade.Quantity)
		if trade.Side == domain.SideShort {
			leg.TotalSignedPremium += premium
		} else {
			leg.TotalSignedPremium -= premium
		}
		if leg.OpenedAt.IsZero() || trade.Timestamp.Before(leg.OpenedAt) {
			leg.OpenedAt = trade.Timestamp
		}

		b.fills = append(b.fills, &domain.FillRecord{
			ID:     trade.TradeID,
			LegID:  leg.ID,
			TS:     trade.Timestamp,
			Action: trade.Action,
			Price:  trade.Price,
			Qty:    trade.Quantity,
			Fees:   trade.Fees,
		})
	}
}

// applyClose matches one closing trade against the earliest-opened leg with
// remaining balance for its contract key. Orphans and over-fills degrade to
// warnings; historical export data is expected to be imperfect.
func (b *Builder) applyClose(trade *domain.ParsedTrade) {
	key := legKey{trade.Underlying, trade.Expiration, trade.CallPut, trade.Strike, trade.Side}
	legs := b.legIndex[key]
	if len(legs) == 0 {
		b.logger.Printf("No open position found for close fill %s (%s %s %s %.2f)",
			trade.TradeID, trade.Underlying, trade.Expiration, trade.CallPut, trade.Strike)
		b.stats.OrphanCloses++
		return
	}

	var leg *domain.LegRecord
	for _, candidate := range legs {
		if candidate.RemainingQuantity > 0 {
			leg = candidate
			break
		}
	}
	if leg == nil {
		b.logger.Printf("All legs already closed for %s", trade.TradeID)
		b.stats.OrphanCloses++
		return
	}

	qty := trade.Quantity
	if qty > leg.RemainingQuantity {
		b.logger.Printf("Close fill %s qty %d exceeds open balance %d; trimming",
			trade.TradeID, trade.Quantity, leg.RemainingQuantity)
		qty = leg.RemainingQuantity
		b.stats.TrimmedCloses++
	}

	leg.RemainingQuantity -= qty
	if leg.RemainingQuantity == 0 {
		leg.ClosedAt = trade.Timestamp
	}

	if strategy, ok := b.strategies[leg.StrategyID]; !ok {
		// Should be unreachable: every indexed leg was created under a
		// registered strategy.
		b.logger.Printf("Leg %s missing parent strategy for trade %s", leg.ID, trade.TradeID)
	} else if strategy.FullyClosed() {
		strategy.Status = domain.StatusClosed
		strategy.ClosedAt = trade.Timestamp
	} else if strategy.PartiallyClosed() {
		strategy.Status = domain.StatusAdjusted
	}

	b.fills = append(b.fills, &domain.FillRecord{
		ID:     trade.TradeID,
		LegID:  leg.ID,
		TS:     trade.Timestamp,
		Action: trade.Action,
		Price:  trade.Price,
		Qty:    qty,
		Fees:   trade.Fees,
	})
}

// mostFrequent picks the dominant value of one attribute within an order
// group, defending against minor data inconsistency inside a single order.
// Count ties break on the smaller value so results never depend on map
// iteration order.
func mostFrequent(group []*domain.ParsedTrade, attr func(*domain.ParsedTrade) string) string {
	counts := make(map[string]int)
	for _, t := range group {
		counts[attr(t)]++
	}
	var best string
	bestCount := -1
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best = value
			bestCount = count
		}
	}
	return best
}
