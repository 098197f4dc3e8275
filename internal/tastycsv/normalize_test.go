package tastycsv

import (
	"errors"
	"testing"
	"time"

	"stratdeck/internal/domain"
)

func testRow(fields map[string]string) Row {
	return Row{Source: "export", Num: 2, Fields: fields}
}

func TestParseActionIntent(t *testing.T) {
	tests := []struct {
		raw    string
		action domain.Action
		intent domain.Intent
	}{
		{"Sell to Open", domain.ActionSell, domain.IntentOpen},
		{"Buy to Open", domain.ActionBuy, domain.IntentOpen},
		{"Buy to Close", domain.ActionBuy, domain.IntentClose},
		{"Sell to Close", domain.ActionSell, domain.IntentClose},
		{"BUY", domain.ActionBuy, domain.IntentOpen},
		{"SELL", domain.ActionSell, domain.IntentClose},
		{"Sell 2 contracts to open", domain.ActionSell, domain.IntentOpen},
	}
	for _, tt := range tests {
		action, intent, err := parseActionIntent(tt.raw)
		if err != nil {
			t.Errorf("parseActionIntent(%q) error: %v", tt.raw, err)
			continue
		}
		if action != tt.action || intent != tt.intent {
			t.Errorf("parseActionIntent(%q) = (%s, %s), want (%s, %s)",
				tt.raw, action, intent, tt.action, tt.intent)
		}
	}
}

func TestParseActionIntent_Undetermined(t *testing.T) {
	// Only the exact substrings count; past-tense wording does not parse.
	for _, raw := range []string{"Assignment", "You sold 2 contracts to open"} {
		if _, _, err := parseActionIntent(raw); err == nil {
			t.Errorf("expected error for %q: neither buy nor sell present", raw)
		}
	}
}

func TestDeriveSide(t *testing.T) {
	tests := []struct {
		action domain.Action
		intent domain.Intent
		side   domain.Side
	}{
		{domain.ActionSell, domain.IntentOpen, domain.SideShort},
		{domain.ActionBuy, domain.IntentOpen, domain.SideLong},
		{domain.ActionBuy, domain.IntentClose, domain.SideShort},
		{domain.ActionSell, domain.IntentClose, domain.SideLong},
	}
	for _, tt := range tests {
		if got := domain.DeriveSide(tt.action, tt.intent); got != tt.side {
			t.Errorf("DeriveSide(%s, %s) = %s, want %s", tt.action, tt.intent, got, tt.side)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2", 2},
		{"-3", 3},
		{"1,250", 1250},
		{"2.0", 2},
		{"", 0},
		{"  4 ", 4},
	}
	for _, tt := range tests {
		got, err := parseQuantity(tt.raw)
		if err != nil {
			t.Errorf("parseQuantity(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseQuantity(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
	if _, err := parseQuantity("abc"); err == nil {
		t.Error("expected error for non-numeric quantity")
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		date string
		time string
		want time.Time
	}{
		{"2025-01-06", "14:30:05", time.Date(2025, 1, 6, 14, 30, 5, 0, time.UTC)},
		{"01/06/2025", "14:30", time.Date(2025, 1, 6, 14, 30, 0, 0, time.UTC)},
		{"01/06/25", "2:30:05 PM", time.Date(2025, 1, 6, 14, 30, 5, 0, time.UTC)},
		{"2025-01-06", "2:30 PM", time.Date(2025, 1, 6, 14, 30, 0, 0, time.UTC)},
		{"2025-01-06", "", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		fields := map[string]string{"date": tt.date}
		if tt.time != "" {
			fields["time"] = tt.time
		}
		got, err := parseTimestamp(testRow(fields))
		if err != nil {
			t.Errorf("parseTimestamp(%q, %q) error: %v", tt.date, tt.time, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q, %q) = %v, want %v", tt.date, tt.time, got, tt.want)
		}
	}
}

func TestParseTimestamp_Errors(t *testing.T) {
	if _, err := parseTimestamp(testRow(map[string]string{"time": "14:30"})); err == nil {
		t.Error("expected error when date column is missing")
	}
	if _, err := parseTimestamp(testRow(map[string]string{"date": "Jan 6 2025"})); err == nil {
		t.Error("expected error for unrecognized date format")
	}
	if _, err := parseTimestamp(testRow(map[string]string{"date": "2025-01-06", "time": "half past two"})); err == nil {
		t.Error("expected error for unrecognized time format")
	}
}

func TestNormalizeRow_Full(t *testing.T) {
	trade, err := NormalizeRow(testRow(map[string]string{
		"date":            "2025-01-06",
		"time":            "09:31:00",
		"symbol":          "SPY 250117P00580000",
		"instrument_type": "Equity Option",
		"action":          "Sell to Open",
		"quantity":        "-2",
		"price":           "1.50",
		"commission":      "1.00",
		"fees":            "0.25",
		"sec_fee":         "-",
		"order_id":        "123456",
		"trade_id":        "exec-1",
	}))
	if err != nil {
		t.Fatalf("NormalizeRow error: %v", err)
	}

	if trade.Underlying != "SPY" || trade.Expiration != "2025-01-17" ||
		trade.CallPut != domain.Put || trade.Strike != 580.0 {
		t.Errorf("contract = %s %s %s %v", trade.Underlying, trade.Expiration, trade.CallPut, trade.Strike)
	}
	if trade.Quantity != 2 || trade.Price != 1.50 || trade.Fees != 1.25 {
		t.Errorf("qty/price/fees = %d/%v/%v", trade.Quantity, trade.Price, trade.Fees)
	}
	if trade.Action != domain.ActionSell || trade.Intent != domain.IntentOpen || trade.Side != domain.SideShort {
		t.Errorf("action/intent/side = %s/%s/%s", trade.Action, trade.Intent, trade.Side)
	}
	if trade.OrderID != "123456" || trade.TradeID != "exec-1" {
		t.Errorf("ids = %q/%q", trade.OrderID, trade.TradeID)
	}
}

func TestNormalizeRow_SynthesizedIDs(t *testing.T) {
	trade, err := NormalizeRow(Row{Source: "jan2025", Num: 7, Fields: map[string]string{
		"date":     "2025-01-06",
		"symbol":   "SPY250117P00580000",
		"action":   "Buy to Open",
		"quantity": "1",
		"price":    "0.50",
	}})
	if err != nil {
		t.Fatalf("NormalizeRow error: %v", err)
	}
	if trade.OrderID != "order-jan2025-7" {
		t.Errorf("OrderID = %q", trade.OrderID)
	}
	if trade.TradeID != "fill-order-jan2025-7-7" {
		t.Errorf("TradeID = %q", trade.TradeID)
	}
}

func TestNormalizeRow_Skips(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"no symbol", map[string]string{"date": "2025-01-06", "action": "BUY", "quantity": "1"}},
		{"equity instrument", map[string]string{
			"date": "2025-01-06", "symbol": "SPY", "instrumenttype": "Equity",
			"action": "BUY", "quantity": "100"}},
		{"zero quantity", map[string]string{
			"date": "2025-01-06", "symbol": "SPY250117P00580000",
			"action": "Buy to Open", "quantity": "0"}},
		{"no quantity", map[string]string{
			"date": "2025-01-06", "symbol": "SPY250117P00580000", "action": "Buy to Open"}},
		{"no action", map[string]string{
			"date": "2025-01-06", "symbol": "SPY250117P00580000", "quantity": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeRow(testRow(tt.fields)); !errors.Is(err, ErrSkipRow) {
				t.Errorf("expected ErrSkipRow, got %v", err)
			}
		})
	}
}

func TestNormalizeRow_BadSymbolIsNotSilent(t *testing.T) {
	// A symbol that looks like an option but fails to parse is a data
	// error (warned about), not a silent skip.
	_, err := NormalizeRow(testRow(map[string]string{
		"date": "2025-01-06", "symbol": "SPY251345X00580000",
		"instrument_type": "Equity Option", "action": "Buy to Open", "quantity": "1",
	}))
	if err == nil || errors.Is(err, ErrSkipRow) {
		t.Errorf("expected a hard parse error, got %v", err)
	}
}
