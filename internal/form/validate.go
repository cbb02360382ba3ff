package form

import "fmt"

// ErrorMap maps a field name or row-scoped key to a human-readable message.
type ErrorMap map[string]string

// RowKey builds the error-map key for one field of one list row.
func RowKey(list, rowKey, field string) string {
	return fmt.Sprintf("%s.%s.%s", list, rowKey, field)
}

// merge copies src into dst.
func (dst ErrorMap) merge(src ErrorMap) {
	for k, v := range src {
		dst[k] = v
	}
}

// Validate checks the fields owned by one step against the draft snapshot.
// It is a pure function: same draft, same result.
func Validate(step Step, d *Draft) ErrorMap {
	errs := ErrorMap{}
	switch step {
	case StepGeneral:
		requireText(errs, FieldName, d.Name, "el nombre del evento es obligatorio")
		requireText(errs, FieldPlace, d.Place, "el lugar es obligatorio")
		requireText(errs, FieldResponsible, d.Responsible, "el responsable es obligatorio")
		if d.Date == "" {
			errs[FieldDate] = "la fecha es obligatoria"
		} else if !validDate(d.Date) {
			errs[FieldDate] = "la fecha debe tener formato YYYY-MM-DD"
		}
		if !d.TimeSet {
			errs[FieldTime] = "la hora es obligatoria"
		}
		if len(d.TypeIDs) == 0 {
			errs[FieldTypes] = "seleccione al menos un tipo de evento"
		}
	case StepObjectives:
		if countNonEmpty(d.Objectives) == 0 {
			errs[FieldObjectives] = "agregue al menos un objetivo"
		}
		if countNonEmpty(d.TargetSegments) == 0 {
			errs[FieldSegments] = "agregue al menos un segmento objetivo"
		}
	case StepActivities:
		validateActivities(errs, ListBefore, d.Before)
		validateActivities(errs, ListDuring, d.During)
		validateActivities(errs, ListAfter, d.After)
	case StepResources:
		for _, r := range d.Services.Rows() {
			requireText(errs, RowKey(ListServices, r.Key, "name"), r.Data.Name, "el servicio necesita un nombre")
		}
		for _, r := range d.Rooms.Rows() {
			requireText(errs, RowKey(ListRooms, r.Key, "name"), r.Data.Name, "el ambiente necesita un nombre")
		}
	case StepBudget:
		// Malformed numbers are clamped, never rejected; only the
		// description is required.
		for _, r := range d.Ingresos.Rows() {
			requireText(errs, RowKey(ListIngresos, r.Key, "description"), r.Data.Description, "la partida necesita una descripción")
		}
		for _, r := range d.Egresos.Rows() {
			requireText(errs, RowKey(ListEgresos, r.Key, "description"), r.Data.Description, "la partida necesita una descripción")
		}
	case StepReview:
		// Review has no fields of its own; ValidateAll covers the rest.
	}
	return errs
}

func validateActivities(errs ErrorMap, list string, l *List[Activity]) {
	for _, r := range l.Rows() {
		requireText(errs, RowKey(list, r.Key, "name"), r.Data.Name, "la actividad necesita un nombre")
		requireText(errs, RowKey(list, r.Key, "responsible"), r.Data.Responsible, "la actividad necesita un responsable")
		if r.Data.StartDate != "" && !validDate(r.Data.StartDate) {
			errs[RowKey(list, r.Key, "start_date")] = "fecha de inicio inválida"
		}
		if r.Data.EndDate != "" && !validDate(r.Data.EndDate) {
			errs[RowKey(list, r.Key, "end_date")] = "fecha de fin inválida"
		}
		if validDate(r.Data.StartDate) && validDate(r.Data.EndDate) && r.Data.EndDate < r.Data.StartDate {
			errs[RowKey(list, r.Key, "end_date")] = "la fecha de fin no puede ser anterior al inicio"
		}
	}
}

func requireText(errs ErrorMap, key, value, msg string) {
	if isBlank(value) {
		errs[key] = msg
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}

func countNonEmpty(ss []string) int {
	n := 0
	for _, s := range ss {
		if !isBlank(s) {
			n++
		}
	}
	return n
}

// FieldIssue is one structured error from the event repository's 4xx
// response, already normalized from its path|param / message|msg variants.
type FieldIssue struct {
	Path    string
	Message string
}

// Machine is the wizard state: the current step plus the live error map.
// Advancing is gated on validation; retreating is always allowed.
type Machine struct {
	step Step
	errs ErrorMap
}

// NewMachine starts at the first step with no errors.
func NewMachine() *Machine {
	return &Machine{step: firstStep, errs: ErrorMap{}}
}

// Step returns the current step pointer.
func (m *Machine) Step() Step {
	return m.step
}

// Errors returns a copy of the current error map.
func (m *Machine) Errors() ErrorMap {
	out := make(ErrorMap, len(m.errs))
	out.merge(m.errs)
	return out
}

// ClearField drops the error for one field the instant it is edited.
func (m *Machine) ClearField(key string) {
	delete(m.errs, key)
}

// ClearRow drops every error scoped to one list row, used when the row is
// removed.
func (m *Machine) ClearRow(list, rowKey string) {
	prefix := list + "." + rowKey + "."
	for k := range m.errs {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.errs, k)
		}
	}
}

// Advance validates the current step and moves forward only when it is
// clean. The step's errors replace any previous ones for that step's fields.
func (m *Machine) Advance(d *Draft) bool {
	errs := Validate(m.step, d)
	m.errs = ErrorMap{}
	m.errs.merge(errs)
	if len(errs) > 0 {
		return false
	}
	if m.step < lastStep {
		m.step++
	}
	return true
}

// Retreat moves back one step. Always allowed; errors are kept so the user
// can still see what was wrong ahead.
func (m *Machine) Retreat() {
	if m.step > firstStep {
		m.step--
	}
}

// ValidateAll re-validates every step and aggregates the errors. The second
// return is the lowest-numbered step containing an error (0 when clean):
// that is where the user should be sent back to.
func (m *Machine) ValidateAll(d *Draft) (ErrorMap, Step) {
	all := ErrorMap{}
	var worst Step
	for s := firstStep; s <= lastStep; s++ {
		errs := Validate(s, d)
		if len(errs) > 0 && worst == 0 {
			worst = s
		}
		all.merge(errs)
	}
	m.errs = ErrorMap{}
	m.errs.merge(all)
	return m.Errors(), worst
}

// ApplyServerErrors merges structured backend errors into the map and
// rewinds the step pointer to the earliest affected step, mirroring where
// the user lands after a server-side rejection. Paths that map to no known
// field are kept under their raw path without moving the pointer.
func (m *Machine) ApplyServerErrors(issues []FieldIssue) Step {
	var rewind Step
	for _, is := range issues {
		key := is.Path
		if key == "" {
			continue
		}
		m.errs[key] = is.Message
		if s, ok := StepForField(key); ok {
			if rewind == 0 || s < rewind {
				rewind = s
			}
		}
	}
	if rewind != 0 && rewind < m.step {
		m.step = rewind
	}
	return m.step
}
