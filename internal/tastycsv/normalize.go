package tastycsv

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stratdeck/internal/domain"
	"stratdeck/internal/occ"
)

// ErrSkipRow marks rows that carry no ingestible option fill: no symbol,
// non-option instruments, missing or zero quantity. These are expected in
// exports (cash movements, equity fills) and are skipped without a warning.
var ErrSkipRow = errors.New("row skipped")

// Date and time layouts tried in order. Time is optional; a date-only row
// normalizes to midnight.
var (
	dateLayouts = []string{"2006-01-02", "01/02/2006", "01/02/06"}
	timeLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM"}
)

// NormalizeRow maps one raw export row into a ParsedTrade.
//
// It returns ErrSkipRow for rows that are not option fills, and a
// descriptive error for rows that look like option fills but cannot be
// decoded; a single bad row must never abort the batch, so callers log and
// continue on either.
func NormalizeRow(row Row) (*domain.ParsedTrade, error) {
	symbol, ok := row.First(symbolAliases...)
	if !ok {
		return nil, fmt.Errorf("%w: no symbol", ErrSkipRow)
	}
	if instrument, ok := row.First(instrumentAlias...); ok &&
		!strings.Contains(strings.ToLower(instrument), "option") {
		return nil, fmt.Errorf("%w: instrument %q", ErrSkipRow, instrument)
	}

	actionRaw, ok := row.First(actionAliases...)
	if !ok {
		return nil, fmt.Errorf("%w: no action", ErrSkipRow)
	}
	action, intent, err := parseActionIntent(actionRaw)
	if err != nil {
		return nil, err
	}

	contract, err := occ.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}

	quantityRaw, ok := row.First(quantityAliases...)
	if !ok {
		return nil, fmt.Errorf("%w: no quantity", ErrSkipRow)
	}
	quantity, err := parseQuantity(quantityRaw)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: zero quantity", ErrSkipRow)
	}

	priceRaw, _ := row.First(priceAliases...)
	price, err := parseFloat(priceRaw)
	if err != nil {
		return nil, fmt.Errorf("bad price %q: %w", priceRaw, err)
	}

	fees, err := sumFees(row)
	if err != nil {
		return nil, err
	}

	timestamp, err := parseTimestamp(row)
	if err != nil {
		return nil, err
	}

	orderID, ok := row.First(orderIDAliases...)
	if !ok {
		orderID = fmt.Sprintf("order-%s-%d", row.Source, row.Num)
	}
	tradeID, ok := row.First(tradeIDAliases...)
	if !ok {
		tradeID = fmt.Sprintf("fill-%s-%d", orderID, row.Num)
	}

	return &domain.ParsedTrade{
		Source:     row.Source,
		RowNum:     row.Num,
		Timestamp:  timestamp,
		Underlying: contract.Underlying,
		Expiration: contract.Expiration,
		CallPut:    contract.CallPut,
		Strike:     contract.Strike,
		Quantity:   quantity,
		Price:      price,
		Fees:       fees,
		Action:     action,
		Intent:     intent,
		Side:       domain.DeriveSide(action, intent),
		OrderID:    orderID,
		TradeID:    tradeID,
	}, nil
}

// parseActionIntent classifies a free-text action/description field.
// "to open"/"to close" decide the intent explicitly; otherwise buys are
// assumed to open and sells to close.
func parseActionIntent(raw string) (domain.Action, domain.Intent, error) {
	lower := strings.ToLower(raw)

	var intent domain.Intent
	switch {
	case strings.Contains(lower, "to open"):
		intent = domain.IntentOpen
	case strings.Contains(lower, "to close"):
		intent = domain.IntentClose
	case strings.Contains(lower, "buy"):
		intent = domain.IntentOpen
	default:
		intent = domain.IntentClose
	}

	switch {
	case strings.Contains(lower, "sell"):
		return domain.ActionSell, intent, nil
	case strings.Contains(lower, "buy"):
		return domain.ActionBuy, intent, nil
	}
	return "", "", fmt.Errorf("cannot determine buy/sell from action %q", raw)
}

// parseQuantity parses a quantity cell: thousands separators dropped,
// absolute value, rounded to the nearest integer. Empty parses as 0.
func parseQuantity(raw string) (int, error) {
	stripped := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if stripped == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, fmt.Errorf("bad quantity %q: %w", raw, err)
	}
	return int(math.Round(math.Abs(f))), nil
}

// parseFloat parses a price/fee cell. Empty and bare "-" both mean 0.
func parseFloat(raw string) (float64, error) {
	stripped := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if stripped == "" || stripped == "-" {
		return 0, nil
	}
	return strconv.ParseFloat(stripped, 64)
}

// sumFees totals the optional fee columns.
func sumFees(row Row) (float64, error) {
	var total float64
	for _, aliases := range feeAliasGroups {
		raw, _ := row.First(aliases...)
		v, err := parseFloat(raw)
		if err != nil {
			return 0, fmt.Errorf("bad fee %q: %w", raw, err)
		}
		total += v
	}
	return total, nil
}

// parseTimestamp combines the row's date and optional time columns.
func parseTimestamp(row Row) (time.Time, error) {
	dateRaw, ok := row.First(dateAliases...)
	if !ok {
		return time.Time{}, errors.New("missing trade date")
	}

	var date time.Time
	var err error
	for _, layout := range dateLayouts {
		if date, err = time.Parse(layout, strings.TrimSpace(dateRaw)); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date format %q", dateRaw)
	}

	timeRaw, ok := row.First(timeAliases...)
	if !ok {
		return date, nil
	}

	var clock time.Time
	for _, layout := range timeLayouts {
		if clock, err = time.Parse(layout, strings.TrimSpace(timeRaw)); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", timeRaw)
}
