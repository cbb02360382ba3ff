package timegrid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/event"
	"github.com/mvallejoc/eventum/internal/timegrid"
)

func existing(id, day string, h, m int) event.Event {
	return event.Event{ID: id, Name: "evt-" + id, Date: day, Time: clock.TimeOfDay{Hour24: h, Minute: m}}
}

func TestFindConflictsWindow(t *testing.T) {
	events := []event.Event{existing("1", "2025-05-20", 14, 0)}

	tests := []struct {
		name string
		at   clock.TimeOfDay
		want int
	}{
		{"90min apart conflicts", clock.TimeOfDay{Hour24: 15, Minute: 30}, 1},
		{"150min apart is clear", clock.TimeOfDay{Hour24: 16, Minute: 30}, 0},
		{"exactly 120min is clear", clock.TimeOfDay{Hour24: 16, Minute: 0}, 0},
		{"119min conflicts", clock.TimeOfDay{Hour24: 15, Minute: 59}, 1},
		{"same minute conflicts", clock.TimeOfDay{Hour24: 14, Minute: 0}, 1},
		{"earlier side conflicts too", clock.TimeOfDay{Hour24: 12, Minute: 30}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := timegrid.FindConflicts(
				timegrid.Candidate{Date: "2025-05-20", Time: tc.at},
				events, 0) // 0 falls back to the 120-minute default
			assert.Len(t, got, tc.want)
		})
	}
}

func TestFindConflictsDateIsStringEquality(t *testing.T) {
	events := []event.Event{existing("1", "2025-05-21", 14, 0)}
	got := timegrid.FindConflicts(
		timegrid.Candidate{Date: "2025-05-20", Time: clock.TimeOfDay{Hour24: 14}},
		events, timegrid.DefaultConflictWindow)
	assert.Empty(t, got)
}

func TestFindConflictsReturnsAllInInputOrder(t *testing.T) {
	events := []event.Event{
		existing("b", "2025-05-20", 15, 0),
		existing("a", "2025-05-20", 13, 30),
		existing("c", "2025-05-20", 20, 0), // out of window
		existing("d", "2025-05-20", 14, 30),
	}
	got := timegrid.FindConflicts(
		timegrid.Candidate{Date: "2025-05-20", Time: clock.TimeOfDay{Hour24: 14}},
		events, timegrid.DefaultConflictWindow)

	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "d", got[2].ID)
}

func TestFindConflictsEmptySnapshot(t *testing.T) {
	got := timegrid.FindConflicts(
		timegrid.Candidate{Date: "2025-05-20", Time: clock.TimeOfDay{Hour24: 14}},
		nil, timegrid.DefaultConflictWindow)
	assert.Empty(t, got)
}

func TestFindConflictsCustomWindow(t *testing.T) {
	events := []event.Event{existing("1", "2025-05-20", 14, 0)}
	cand := timegrid.Candidate{Date: "2025-05-20", Time: clock.TimeOfDay{Hour24: 14, Minute: 45}}

	assert.Len(t, timegrid.FindConflicts(cand, events, 60*time.Minute), 1)
	assert.Empty(t, timegrid.FindConflicts(cand, events, 30*time.Minute))
}

func TestCheckDistinguishesUnknownSnapshot(t *testing.T) {
	cand := timegrid.Candidate{Date: "2025-05-20", Time: clock.TimeOfDay{Hour24: 14}}

	unknown := timegrid.Check(cand, nil, false, 0)
	assert.False(t, unknown.Known)
	assert.Empty(t, unknown.Conflicts)

	known := timegrid.Check(cand, nil, true, 0)
	assert.True(t, known.Known)
	assert.Empty(t, known.Conflicts)
}
