// Package ics renders a set of scheduled events as an iCalendar document,
// so a month view can be pulled into external calendar clients.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/mvallejoc/eventum/internal/event"
)

const prodID = "-//eventum//calendar export//ES"

// defaultDuration is assumed for exported events; the repository stores
// only a start time.
const defaultDuration = time.Hour

// Export serializes events into an iCalendar payload. Events whose date
// fails to parse are skipped rather than aborting the whole export.
func Export(events []event.Event) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	now := time.Now().UTC()
	for _, ev := range events {
		day, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			continue
		}
		start := day.Add(time.Duration(ev.Time.MinutesOfDay()) * time.Minute)

		ve := cal.AddEvent(fmt.Sprintf("evento-%s@eventum", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(defaultDuration))
		ve.SetSummary(ev.Name)
		if ev.Place != "" {
			ve.SetLocation(ev.Place)
		}
		if ev.Responsible != "" {
			ve.SetDescription("Responsable: " + ev.Responsible)
		}
	}
	return []byte(cal.Serialize()), nil
}
