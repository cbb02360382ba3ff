// Package timegrid derives calendar month grids and time-proximity conflict
// reports from a read-only snapshot of scheduled events. Everything here is
// pure date arithmetic; no clocks, no I/O.
package timegrid

import (
	"time"

	"github.com/mvallejoc/eventum/internal/event"
)

// GridCells is the fixed size of a month grid: 6 full weeks, always, so the
// view never resizes across months or leap years.
const GridCells = 42

// ISODate is the wire date layout used throughout the service.
const ISODate = "2006-01-02"

// Cell is one day slot in a 42-cell month grid.
type Cell struct {
	Date    time.Time `json:"-"`
	ISO     string    `json:"date"`
	InMonth bool      `json:"in_month"`
}

// BuildMonthGrid returns the 42-cell grid for the month containing anchor.
// The grid starts on the Sunday-aligned week of the 1st: first the weekday
// offset worth of trailing days from the previous month, then every day of
// the month, then leading days of the next month up to 42.
func BuildMonthGrid(anchor time.Time) []Cell {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	lead := int(first.Weekday()) // Sunday = 0

	cells := make([]Cell, 0, GridCells)
	for i := lead; i > 0; i-- {
		d := first.AddDate(0, 0, -i)
		cells = append(cells, Cell{Date: d, ISO: d.Format(ISODate), InMonth: false})
	}
	d := first
	for d.Month() == first.Month() {
		cells = append(cells, Cell{Date: d, ISO: d.Format(ISODate), InMonth: true})
		d = d.AddDate(0, 0, 1)
	}
	for len(cells) < GridCells {
		cells = append(cells, Cell{Date: d, ISO: d.Format(ISODate), InMonth: false})
		d = d.AddDate(0, 0, 1)
	}
	return cells
}

// DayCell is a grid cell annotated with the events falling on its date.
type DayCell struct {
	Cell
	Events []event.Event `json:"events,omitempty"`
}

// AnnotateGrid buckets events onto cells by exact ISO-date match. Events
// outside the grid's date range are ignored; per-cell order follows the
// input order.
func AnnotateGrid(cells []Cell, events []event.Event) []DayCell {
	byDay := make(map[string][]event.Event)
	for _, ev := range events {
		byDay[ev.Date] = append(byDay[ev.Date], ev)
	}
	out := make([]DayCell, len(cells))
	for i, c := range cells {
		out[i] = DayCell{Cell: c, Events: byDay[c.ISO]}
	}
	return out
}
