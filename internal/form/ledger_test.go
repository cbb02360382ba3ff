package form

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ledgerOf(items ...LineItem) []Row[LineItem] {
	l := NewList[LineItem]()
	for _, it := range items {
		l.Add(it)
	}
	return l.Rows()
}

func TestLedgerTotalClampsMalformedInput(t *testing.T) {
	rows := ledgerOf(
		LineItem{Description: "toldos", Quantity: "3", UnitPrice: "10.5"},
		LineItem{Description: "basura", Quantity: "-1", UnitPrice: "5"},
	)
	// The negative quantity contributes 0, not -5.
	assert.InDelta(t, 31.5, LedgerTotal(rows), 1e-9)
}

func TestLedgerTotalStaysFinite(t *testing.T) {
	// An Inf factor times 0 would be NaN, which json.Marshal refuses to
	// encode; the clamp must keep every total finite.
	rows := ledgerOf(
		LineItem{Description: "glitch", Quantity: "Inf", UnitPrice: "0"},
		LineItem{Description: "toldos", Quantity: "3", UnitPrice: "10.5"},
	)
	total := LedgerTotal(rows)
	assert.False(t, math.IsNaN(total))
	assert.False(t, math.IsInf(total, 0))
	assert.InDelta(t, 31.5, total, 1e-9)

	_, err := json.Marshal(total)
	assert.NoError(t, err)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name string
		item LineItem
		want float64
	}{
		{"plain", LineItem{Quantity: "4", UnitPrice: "2.5"}, 10},
		{"whitespace tolerated", LineItem{Quantity: " 2 ", UnitPrice: " 3 "}, 6},
		{"non-numeric quantity", LineItem{Quantity: "tres", UnitPrice: "10"}, 0},
		{"non-numeric price", LineItem{Quantity: "3", UnitPrice: "10,5"}, 0},
		{"negative price", LineItem{Quantity: "3", UnitPrice: "-10"}, 0},
		{"infinite quantity", LineItem{Quantity: "Inf", UnitPrice: "0"}, 0},
		{"infinite price", LineItem{Quantity: "0", UnitPrice: "Infinity"}, 0},
		{"negative infinity", LineItem{Quantity: "-Inf", UnitPrice: "5"}, 0},
		{"empty", LineItem{}, 0},
		{"zero", LineItem{Quantity: "0", UnitPrice: "99"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.item.LineTotal(), 1e-9)
		})
	}
}

func TestLineItemKeepsRawText(t *testing.T) {
	// The clamp is on the derived total only; the typed text survives for
	// redisplay.
	li := LineItem{Description: "x", Quantity: "-1", UnitPrice: "abc"}
	assert.Equal(t, "-1", li.Quantity)
	assert.Equal(t, "abc", li.UnitPrice)
	assert.Zero(t, li.LineTotal())
}

func TestBalance(t *testing.T) {
	ingresos := ledgerOf(
		LineItem{Description: "entradas", Quantity: "100", UnitPrice: "5"},
	)
	egresos := ledgerOf(
		LineItem{Description: "sonido", Quantity: "1", UnitPrice: "300"},
		LineItem{Description: "afiches", Quantity: "50", UnitPrice: "1.5"},
	)

	assert.InDelta(t, 125, Balance(ingresos, egresos), 1e-9)
	// Deficit is just a negative balance; the engine is sign-agnostic.
	assert.InDelta(t, -125, Balance(egresos, ingresos), 1e-9)
	assert.Zero(t, Balance(nil, nil))
}
