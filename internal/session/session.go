// Package session hosts live form sessions. A session owns one draft plus
// its validation machine; every mutation goes through the session mutex, the
// single writer that preserves the list-order and key-stability invariants.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mvallejoc/eventum/internal/backend"
	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/form"
	"github.com/mvallejoc/eventum/internal/metrics"
	"github.com/mvallejoc/eventum/internal/throttle"
	"github.com/mvallejoc/eventum/internal/timegrid"
)

// drag is one clock-hand pointer sample.
type drag struct {
	hand  clock.Hand
	angle float64
}

// Session is one open proposal form.
type Session struct {
	ID string

	mu      sync.Mutex
	draft   *form.Draft
	machine *form.Machine
	clockTh *throttle.Throttler[drag]
	persist func(id string, d *form.Draft)

	createdAt time.Time
	updatedAt time.Time
	submitted bool
}

func newSession(id string, draft *form.Draft, throttleEvery time.Duration, persist func(string, *form.Draft)) *Session {
	s := &Session{
		ID:        id,
		draft:     draft,
		machine:   form.NewMachine(),
		persist:   persist,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	s.clockTh = throttle.New(throttleEvery, s.applyDrag)
	return s
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
	if s.persist != nil {
		s.persist(s.ID, s.draft)
	}
}

// SetField assigns one scalar field and clears its pending error.
func (s *Session) SetField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.draft.SetField(field, value); err != nil {
		return err
	}
	s.machine.ClearField(field)
	s.touch()
	return nil
}

// stringSlot resolves a string-slice field name to its draft storage, or nil
// for unknown names. Callers hold s.mu.
func (s *Session) stringSlot(field string) *[]string {
	switch field {
	case form.FieldObjectives:
		return &s.draft.Objectives
	case form.FieldSegments:
		return &s.draft.TargetSegments
	case "resources":
		return &s.draft.Resources
	case "new_resources":
		return &s.draft.NewResources
	}
	return nil
}

// SetStrings replaces one of the string-slice fields.
func (s *Session) SetStrings(field string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.stringSlot(field)
	if slot == nil {
		return fmt.Errorf("unknown list field %q", field)
	}
	*slot = values
	s.machine.ClearField(field)
	s.touch()
	return nil
}

// ApplyPatch applies a whole field-patch request atomically: every name and
// value is checked before anything is assigned, so one bad entry rejects the
// request with the draft untouched.
func (s *Session) ApplyPatch(fields map[string]string, lists map[string][]string, typeIDs *[]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := form.NewDraft()
	for field, value := range fields {
		if err := scratch.SetField(field, value); err != nil {
			return err
		}
	}
	for field := range lists {
		if s.stringSlot(field) == nil {
			return fmt.Errorf("unknown list field %q", field)
		}
	}

	for field, value := range fields {
		_ = s.draft.SetField(field, value)
		s.machine.ClearField(field)
	}
	for field, values := range lists {
		*s.stringSlot(field) = values
		s.machine.ClearField(field)
	}
	if typeIDs != nil {
		s.draft.TypeIDs = nil
		for _, id := range *typeIDs {
			s.draft.AddType(id)
		}
		s.machine.ClearField(form.FieldTypes)
	}
	if len(fields)+len(lists) > 0 || typeIDs != nil {
		s.touch()
	}
	return nil
}

// SetTypes replaces the event type selection, keeping set semantics.
func (s *Session) SetTypes(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.TypeIDs = nil
	for _, id := range ids {
		s.draft.AddType(id)
	}
	s.machine.ClearField(form.FieldTypes)
	s.touch()
}

// AddRow appends a row to the named list and returns its stable key.
func (s *Session) AddRow(list string, data json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, err := s.addRowLocked(list, data)
	if err != nil {
		return "", err
	}
	s.touch()
	return key, nil
}

func (s *Session) addRowLocked(list string, data json.RawMessage) (string, error) {
	switch list {
	case form.ListBefore, form.ListDuring, form.ListAfter:
		var a form.Activity
		if err := decodeRow(data, &a); err != nil {
			return "", err
		}
		return s.activityList(list).Add(a), nil
	case form.ListServices:
		var v form.Service
		if err := decodeRow(data, &v); err != nil {
			return "", err
		}
		return s.draft.Services.Add(v), nil
	case form.ListRooms:
		var v form.Room
		if err := decodeRow(data, &v); err != nil {
			return "", err
		}
		return s.draft.Rooms.Add(v), nil
	case form.ListIngresos, form.ListEgresos:
		var v form.LineItem
		if err := decodeRow(data, &v); err != nil {
			return "", err
		}
		if list == form.ListIngresos {
			return s.draft.Ingresos.Add(v), nil
		}
		return s.draft.Egresos.Add(v), nil
	}
	return "", fmt.Errorf("unknown list %q", list)
}

// UpdateRow shallow-merges a JSON patch into one row. The patched fields'
// errors are cleared; an absent key is a silent no-op, per the list
// contract.
func (s *Session) UpdateRow(list, key string, patch json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return fmt.Errorf("decode row patch: %w", err)
	}

	switch list {
	case form.ListBefore, form.ListDuring, form.ListAfter:
		mergeRow(s.activityList(list), key, patch)
	case form.ListServices:
		mergeRow(s.draft.Services, key, patch)
	case form.ListRooms:
		mergeRow(s.draft.Rooms, key, patch)
	case form.ListIngresos:
		mergeRow(s.draft.Ingresos, key, patch)
	case form.ListEgresos:
		mergeRow(s.draft.Egresos, key, patch)
	default:
		return fmt.Errorf("unknown list %q", list)
	}

	for f := range fields {
		s.machine.ClearField(form.RowKey(list, key, f))
	}
	s.touch()
	return nil
}

// RemoveRow deletes a row and every error scoped to it.
func (s *Session) RemoveRow(list, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch list {
	case form.ListBefore, form.ListDuring, form.ListAfter:
		s.activityList(list).Remove(key)
	case form.ListServices:
		s.draft.Services.Remove(key)
	case form.ListRooms:
		s.draft.Rooms.Remove(key)
	case form.ListIngresos:
		s.draft.Ingresos.Remove(key)
	case form.ListEgresos:
		s.draft.Egresos.Remove(key)
	default:
		return fmt.Errorf("unknown list %q", list)
	}
	s.machine.ClearRow(list, key)
	s.touch()
	return nil
}

func (s *Session) activityList(list string) *form.List[form.Activity] {
	switch list {
	case form.ListBefore:
		return s.draft.Before
	case form.ListDuring:
		return s.draft.During
	default:
		return s.draft.After
	}
}

// DragClock feeds one pointer sample through the per-session throttler.
// Bursts coalesce; the final sample always lands.
func (s *Session) DragClock(hand clock.Hand, angle float64) {
	s.clockTh.Offer(drag{hand: hand, angle: angle})
}

// EndDrag flushes any coalesced sample immediately (pointer released).
func (s *Session) EndDrag() {
	s.clockTh.Flush()
}

func (s *Session) applyDrag(d drag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Time = clock.Apply(s.draft.Time, d.hand, d.angle)
	s.draft.TimeSet = true
	s.machine.ClearField(form.FieldTime)
	metrics.ClockDragUpdates.Inc()
	s.touch()
}

// SetPeriod toggles AM/PM on the selected time.
func (s *Session) SetPeriod(p clock.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Time = clock.WithPeriod(s.draft.Time, p)
	s.draft.TimeSet = true
	s.machine.ClearField(form.FieldTime)
	s.touch()
}

// Advance validates the current step and moves forward when clean.
func (s *Session) Advance() (form.Step, form.ErrorMap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.machine.Advance(s.draft)
	return s.machine.Step(), s.machine.Errors(), ok
}

// Retreat moves back one step.
func (s *Session) Retreat() form.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Retreat()
	return s.machine.Step()
}

// ValidateForSubmit re-validates every step and reports the aggregate.
func (s *Session) ValidateForSubmit() (form.ErrorMap, form.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.ValidateAll(s.draft)
}

// Candidate returns the proposed date/time when both are set.
func (s *Session) Candidate() (timegrid.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Date == "" || !s.draft.TimeSet {
		return timegrid.Candidate{}, false
	}
	return timegrid.Candidate{Date: s.draft.Date, Time: s.draft.Time}, true
}

// BuildProposal flattens the draft into the repository wire payload.
func (s *Session) BuildProposal() *backend.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return backend.ProposalFromDraft(s.draft)
}

// ApplyServerErrors merges a structured rejection and rewinds the step.
func (s *Session) ApplyServerErrors(issues []form.FieldIssue) form.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.ApplyServerErrors(issues)
}

// MarkSubmitted flags the session as successfully submitted.
func (s *Session) MarkSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = true
}

// Submitted reports whether the proposal was accepted upstream.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// View is a read-only snapshot of the session for API responses. The draft
// is deep-copied through JSON so readers never alias live state.
type View struct {
	ID            string          `json:"id"`
	Step          form.Step       `json:"step"`
	StepName      string          `json:"step_name"`
	Errors        form.ErrorMap   `json:"errors"`
	Draft         json.RawMessage `json:"draft"`
	TotalIngresos float64         `json:"total_ingresos"`
	TotalEgresos  float64         `json:"total_egresos"`
	Balance       float64         `json:"balance"`
	Submitted     bool            `json:"submitted"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Snapshot builds a View under the lock, so it is a consistent copy-on-read.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(s.draft)
	if err != nil {
		slog.Error("draft snapshot encode failed", "session", s.ID, "err", err)
		raw = []byte("{}")
	}
	ingresos := s.draft.Ingresos.Rows()
	egresos := s.draft.Egresos.Rows()
	return View{
		ID:            s.ID,
		Step:          s.machine.Step(),
		StepName:      s.machine.Step().String(),
		Errors:        s.machine.Errors(),
		Draft:         raw,
		TotalIngresos: form.LedgerTotal(ingresos),
		TotalEgresos:  form.LedgerTotal(egresos),
		Balance:       form.Balance(ingresos, egresos),
		Submitted:     s.submitted,
		UpdatedAt:     s.updatedAt,
	}
}

// Close stops the drag throttler.
func (s *Session) Close() {
	s.clockTh.Stop()
}

func decodeRow(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil // empty row, filled in later
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// mergeRow applies a shallow JSON merge: the patch is unmarshalled over a
// copy of the existing value so untouched fields survive.
func mergeRow[T any](l *form.List[T], key string, patch json.RawMessage) {
	l.Update(key, func(old T) T {
		merged := old
		_ = json.Unmarshal(patch, &merged)
		return merged
	})
}
