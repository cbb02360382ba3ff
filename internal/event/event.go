package event

import "github.com/mvallejoc/eventum/internal/clock"

// Event is the canonical read-only model of an already-scheduled event, as
// fetched from the event repository. The core never mutates these; they are
// consumed as immutable snapshots for conflict detection and calendar
// annotation.
type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Time        clock.TimeOfDay `json:"time"`
	Place       string          `json:"place"`
	Responsible string          `json:"responsible"`
}
