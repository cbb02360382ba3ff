package form

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mvallejoc/eventum/internal/clock"
)

// Activity is a row of one of the three activity lists (before / during /
// after the event).
type Activity struct {
	Name        string `json:"name"`
	Responsible string `json:"responsible"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`
}

// Service is a contracted-service row.
type Service struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Room is a requested venue row.
type Room struct {
	Name string `json:"name"`
}

// Draft is the full mutable state of one proposal form. It is created empty
// when the form opens, mutated field by field, consumed once on submit, and
// kept intact when submission fails so nothing the user typed is lost.
type Draft struct {
	Name        string          `json:"name"`
	Place       string          `json:"place"`
	Responsible string          `json:"responsible"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Time        clock.TimeOfDay `json:"time"`
	TimeSet     bool            `json:"time_set"`

	TypeIDs        []int    `json:"type_ids"` // set semantics, deduplicated
	Objectives     []string `json:"objectives"`
	TargetSegments []string `json:"target_segments"`
	Resources      []string `json:"resources"`
	NewResources   []string `json:"new_resources"`

	Before   *List[Activity] `json:"activities_before"`
	During   *List[Activity] `json:"activities_during"`
	After    *List[Activity] `json:"activities_after"`
	Services *List[Service]  `json:"services"`
	Rooms    *List[Room]     `json:"rooms"`
	Ingresos *List[LineItem] `json:"ingresos"`
	Egresos  *List[LineItem] `json:"egresos"`
}

// NewDraft returns an empty draft with all list stores initialized.
func NewDraft() *Draft {
	return &Draft{
		Before:   NewList[Activity](),
		During:   NewList[Activity](),
		After:    NewList[Activity](),
		Services: NewList[Service](),
		Rooms:    NewList[Room](),
		Ingresos: NewList[LineItem](),
		Egresos:  NewList[LineItem](),
	}
}

// AddType adds an event type ID, keeping set semantics.
func (d *Draft) AddType(id int) {
	if !slices.Contains(d.TypeIDs, id) {
		d.TypeIDs = append(d.TypeIDs, id)
	}
}

// RemoveType drops an event type ID; absent IDs are a no-op.
func (d *Draft) RemoveType(id int) {
	d.TypeIDs = slices.DeleteFunc(d.TypeIDs, func(v int) bool { return v == id })
}

// SetField assigns a scalar field by its wire name. Unknown fields return an
// error so API callers get immediate feedback on typos.
func (d *Draft) SetField(field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldPlace:
		d.Place = value
	case FieldResponsible:
		d.Responsible = value
	case FieldDate:
		d.Date = strings.TrimSpace(value)
	case FieldTime:
		t, err := clock.Parse(value)
		if err != nil {
			return err
		}
		d.Time = t
		d.TimeSet = true
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// validDate reports whether s is a well-formed YYYY-MM-DD date.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
