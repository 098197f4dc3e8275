// Package tastycsv loads brokerage trade-execution CSV exports and
// normalizes their rows into domain.ParsedTrade values. Column names vary
// between export versions, so every logical field is resolved through an
// ordered list of aliases.
package tastycsv

import "strings"

// Row is one raw record from an export file. Field keys are lower-cased
// header names; values are the raw cell strings.
type Row struct {
	Source string // file stem
	Num    int    // 1-based line number in the file (header is line 1)
	Fields map[string]string
}

// First returns the first non-empty value among the candidate column names,
// matched case-insensitively. The boolean is false when no candidate has a
// value.
func (r Row) First(candidates ...string) (string, bool) {
	for _, key := range candidates {
		if v := r.Fields[strings.ToLower(key)]; v != "" {
			return v, true
		}
	}
	return "", false
}

// Column aliases per logical field, tried in order. These cover the export
// versions seen in the wild; extend the lists rather than renaming columns.
var (
	dateAliases     = []string{"trade_date", "tradedate", "date", "execdate", "executiondate"}
	timeAliases     = []string{"trade_time", "tradetime", "time", "exectime", "executiontime"}
	symbolAliases   = []string{"symbol", "option_symbol", "optionsymbol"}
	instrumentAlias = []string{"instrumenttype", "instrument_type"}
	actionAliases   = []string{"action", "transactiontype", "description"}
	quantityAliases = []string{"quantity", "qty"}
	priceAliases    = []string{"price", "netprice", "executionprice"}
	orderIDAliases  = []string{"orderid", "order_id", "ordernumber"}
	tradeIDAliases  = []string{"tradeid", "trade_id", "executionid"}
)

// Fee columns, each individually optional and defaulting to 0.
var feeAliasGroups = [][]string{
	{"commission"},
	{"fees", "clearingfees"},
	{"secfee", "sec_fee"},
	{"otherfee", "other_fee"},
}
