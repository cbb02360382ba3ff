package timegrid

import (
	"time"

	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/event"
)

// DefaultConflictWindow is the minimum separation required between two
// events on the same day before they are flagged as conflicting.
const DefaultConflictWindow = 120 * time.Minute

// Candidate is the date/time being proposed for a new event.
type Candidate struct {
	Date string // YYYY-MM-DD
	Time clock.TimeOfDay
}

// FindConflicts returns every existing event on the candidate's date whose
// start time is strictly closer than window minutes. Date comparison is
// string equality on the ISO date, deliberately not timezone-shifted.
// Results preserve the input order, so repeated calls are deterministic, and
// all conflicts are returned rather than just the first.
func FindConflicts(c Candidate, existing []event.Event, window time.Duration) []event.Event {
	if window <= 0 {
		window = DefaultConflictWindow
	}
	windowMin := int(window.Minutes())
	candMin := c.Time.MinutesOfDay()

	var conflicts []event.Event
	for _, ev := range existing {
		if ev.Date != c.Date {
			continue
		}
		delta := ev.Time.MinutesOfDay() - candMin
		if delta < 0 {
			delta = -delta
		}
		if delta < windowMin {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts
}

// Report is a conflict check outcome that can distinguish "no conflicts"
// from "conflicts unknown": when the event snapshot has never been loaded,
// an empty result must not be read as safe.
type Report struct {
	Known     bool          `json:"known"`
	Conflicts []event.Event `json:"conflicts"`
}

// Check wraps FindConflicts with the snapshot-known flag.
func Check(c Candidate, existing []event.Event, known bool, window time.Duration) Report {
	return Report{
		Known:     known,
		Conflicts: FindConflicts(c, existing, window),
	}
}
