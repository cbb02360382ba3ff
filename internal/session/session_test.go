package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/draftstore"
	"github.com/mvallejoc/eventum/internal/form"
	"github.com/mvallejoc/eventum/internal/session"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	return session.NewManager(nil, time.Millisecond)
}

func TestSetFieldClearsItsError(t *testing.T) {
	m := newManager(t)
	s := m.Create()

	_, errs, ok := s.Advance()
	require.False(t, ok)
	require.Contains(t, errs, form.FieldName)

	require.NoError(t, s.SetField(form.FieldName, "Feria de Ciencias"))
	assert.NotContains(t, s.Snapshot().Errors, form.FieldName)
	// Other errors remain until revalidation.
	assert.Contains(t, s.Snapshot().Errors, form.FieldPlace)
}

func TestApplyPatchAtomic(t *testing.T) {
	m := newManager(t)
	s := m.Create()

	// One bad field name rejects the batch with nothing applied.
	err := s.ApplyPatch(map[string]string{
		form.FieldName: "Feria de Ciencias",
		"nombre":       "typo",
	}, nil, nil)
	require.Error(t, err)
	draft := draftOf(t, s)
	assert.Empty(t, draft.Name)

	// Same for a bad value on a good name.
	err = s.ApplyPatch(map[string]string{
		form.FieldName: "Feria de Ciencias",
		form.FieldTime: "25:99",
	}, nil, nil)
	require.Error(t, err)
	assert.Empty(t, draftOf(t, s).Name)

	// A bad list name rejects the scalar fields too.
	err = s.ApplyPatch(
		map[string]string{form.FieldName: "Feria de Ciencias"},
		map[string][]string{"objetivos_typo": {"difundir"}},
		nil,
	)
	require.Error(t, err)
	assert.Empty(t, draftOf(t, s).Name)

	// A clean batch lands in full.
	ids := []int{1, 2}
	require.NoError(t, s.ApplyPatch(
		map[string]string{form.FieldName: "Feria de Ciencias", form.FieldTime: "14:00"},
		map[string][]string{form.FieldObjectives: {"difundir"}},
		&ids,
	))
	draft = draftOf(t, s)
	assert.Equal(t, "Feria de Ciencias", draft.Name)
	assert.Equal(t, []string{"difundir"}, draft.Objectives)
	assert.Equal(t, []int{1, 2}, draft.TypeIDs)
}

func draftOf(t *testing.T, s *session.Session) form.Draft {
	t.Helper()
	var d form.Draft
	require.NoError(t, json.Unmarshal(s.Snapshot().Draft, &d))
	return d
}

func TestRowLifecycleThroughJSON(t *testing.T) {
	m := newManager(t)
	s := m.Create()

	k1, err := s.AddRow(form.ListDuring, json.RawMessage(`{"name":"taller","responsible":"ana"}`))
	require.NoError(t, err)
	k2, err := s.AddRow(form.ListDuring, json.RawMessage(`{"name":"charla","responsible":"luis"}`))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	// Shallow merge: only the patched field changes.
	require.NoError(t, s.UpdateRow(form.ListDuring, k1, json.RawMessage(`{"responsible":"maria"}`)))

	var draft form.Draft
	require.NoError(t, json.Unmarshal(s.Snapshot().Draft, &draft))
	rows := draft.During.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "taller", rows[0].Data.Name)
	assert.Equal(t, "maria", rows[0].Data.Responsible)

	// Removing the first row leaves the second untouched.
	require.NoError(t, s.RemoveRow(form.ListDuring, k1))
	require.NoError(t, json.Unmarshal(s.Snapshot().Draft, &draft))
	rows = draft.During.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, k2, rows[0].Key)
	assert.Equal(t, "charla", rows[0].Data.Name)
}

func TestUpdateRowUnknownList(t *testing.T) {
	m := newManager(t)
	s := m.Create()
	err := s.UpdateRow("no_such_list", "k", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestBudgetTotalsInView(t *testing.T) {
	m := newManager(t)
	s := m.Create()

	_, err := s.AddRow(form.ListIngresos, json.RawMessage(`{"description":"entradas","quantity":"100","unit_price":"5"}`))
	require.NoError(t, err)
	_, err = s.AddRow(form.ListEgresos, json.RawMessage(`{"description":"toldos","quantity":"3","unit_price":"10.5"}`))
	require.NoError(t, err)
	_, err = s.AddRow(form.ListEgresos, json.RawMessage(`{"description":"basura","quantity":"-1","unit_price":"5"}`))
	require.NoError(t, err)

	v := s.Snapshot()
	assert.InDelta(t, 500, v.TotalIngresos, 1e-9)
	assert.InDelta(t, 31.5, v.TotalEgresos, 1e-9) // malformed row clamped
	assert.InDelta(t, 468.5, v.Balance, 1e-9)
}

func TestDragClockTrailingSampleLands(t *testing.T) {
	m := newManager(t)
	s := m.Create()
	require.NoError(t, s.SetField(form.FieldTime, "10:00"))

	// A burst of samples: the final one (90° = 15 minutes) must win.
	for _, a := range []float64{12, 24, 48, 66, 90} {
		s.DragClock(clock.HandMinute, a)
	}
	s.EndDrag()

	var draft form.Draft
	require.NoError(t, json.Unmarshal(s.Snapshot().Draft, &draft))
	assert.Equal(t, 15, draft.Time.Minute)
	assert.Equal(t, 10, draft.Time.Hour24)
}

func TestSetPeriod(t *testing.T) {
	m := newManager(t)
	s := m.Create()
	require.NoError(t, s.SetField(form.FieldTime, "03:30"))

	s.SetPeriod(clock.PM)
	var draft form.Draft
	require.NoError(t, json.Unmarshal(s.Snapshot().Draft, &draft))
	assert.Equal(t, 15, draft.Time.Hour24)
}

func TestAdvanceRetreatFlow(t *testing.T) {
	m := newManager(t)
	s := m.Create()

	require.NoError(t, s.SetField(form.FieldName, "Feria"))
	require.NoError(t, s.SetField(form.FieldPlace, "Patio"))
	require.NoError(t, s.SetField(form.FieldResponsible, "Ana"))
	require.NoError(t, s.SetField(form.FieldDate, "2025-10-03"))
	require.NoError(t, s.SetField(form.FieldTime, "14:00"))
	s.SetTypes([]int{1, 1, 2})

	step, errs, ok := s.Advance()
	require.True(t, ok, "errors: %v", errs)
	assert.Equal(t, form.StepObjectives, step)

	assert.Equal(t, form.StepGeneral, s.Retreat())
}

func TestManagerRestoreFromDisk(t *testing.T) {
	dir := t.TempDir()

	drafts := draftstore.Open(dir)
	m := session.NewManager(drafts, time.Millisecond)
	s := m.Create()
	require.NoError(t, s.SetField(form.FieldName, "Congreso de Robótica"))
	k, err := s.AddRow(form.ListRooms, json.RawMessage(`{"name":"Auditorio"}`))
	require.NoError(t, err)
	id := s.ID

	// Simulate a restart: a fresh manager over the same directory.
	m2 := session.NewManager(draftstore.Open(dir), time.Millisecond)
	require.Equal(t, 1, m2.Restore())

	restored, ok := m2.Get(id)
	require.True(t, ok)
	var draft form.Draft
	require.NoError(t, json.Unmarshal(restored.Snapshot().Draft, &draft))
	assert.Equal(t, "Congreso de Robótica", draft.Name)
	room, ok := draft.Rooms.Get(k)
	require.True(t, ok, "row keys survive restarts")
	assert.Equal(t, "Auditorio", room.Name)
}

func TestManagerDelete(t *testing.T) {
	m := newManager(t)
	s := m.Create()
	require.Equal(t, 1, m.Len())

	m.Delete(s.ID)
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get(s.ID)
	assert.False(t, ok)

	// Deleting twice is harmless.
	m.Delete(s.ID)
}
