package form

import (
	"math"
	"strconv"
	"strings"
)

// LineItem is one budget row. Quantity and UnitPrice keep the raw text the
// user typed so it can be redisplayed verbatim; only the derived totals
// clamp malformed or negative input.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// amount parses a raw numeric string, clamping anything unparseable,
// non-finite, or negative to 0 so a malformed row can never poison a ledger
// total with NaN or a negative contribution. ParseFloat accepts "Inf" and
// "Infinity", and Inf*0 is NaN, so infinities clamp too.
func amount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// LineTotal is quantity x unit price with both factors clamped.
func (li LineItem) LineTotal() float64 {
	return amount(li.Quantity) * amount(li.UnitPrice)
}

// LedgerTotal sums the line totals of a ledger. Computed on demand, never
// cached.
func LedgerTotal(rows []Row[LineItem]) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.Data.LineTotal()
	}
	return sum
}

// Balance is income minus expenses. The engine is sign-agnostic; the sign
// only determines surplus/deficit display semantics upstream.
func Balance(ingresos, egresos []Row[LineItem]) float64 {
	return LedgerTotal(ingresos) - LedgerTotal(egresos)
}
