// Package clock maps pointer angles on a circular clock face to times of day
// and back. Angles follow the picker convention: 0° at the 12 o'clock
// position, increasing clockwise.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Period is the half-day marker of a 12-hour clock reading.
type Period string

const (
	AM Period = "AM"
	PM Period = "PM"
)

// Hand identifies which clock hand a drag gesture is moving.
type Hand string

const (
	HandHour   Hand = "hour"
	HandMinute Hand = "minute"
)

const (
	degreesPerHour   = 30 // 360° / 12 hours
	degreesPerMinute = 6  // 360° / 60 minutes
)

// TimeOfDay is the canonical time representation: a 24-hour clock reading
// with minute precision. The zero value is midnight.
type TimeOfDay struct {
	Hour24 int `json:"hour24"`
	Minute int `json:"minute"`
}

// Hour12 returns the 12-hour clock hour (1–12).
func (t TimeOfDay) Hour12() int {
	h := t.Hour24 % 12
	if h == 0 {
		h = 12
	}
	return h
}

// Period returns AM for 00:00–11:59 and PM for 12:00–23:59.
func (t TimeOfDay) Period() Period {
	if t.Hour24 >= 12 {
		return PM
	}
	return AM
}

// MinutesOfDay returns minutes elapsed since midnight.
func (t TimeOfDay) MinutesOfDay() int {
	return t.Hour24*60 + t.Minute
}

// Valid reports whether the reading is inside a single day.
func (t TimeOfDay) Valid() bool {
	return t.Hour24 >= 0 && t.Hour24 <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String renders the time as HH:mm.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour24, t.Minute)
}

// Wire renders the time as HH:mm:ss, the format the event repository expects.
func (t TimeOfDay) Wire() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour24, t.Minute)
}

// Parse reads HH:mm or HH:mm:ss into a TimeOfDay.
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("parse time %q: want HH:mm or HH:mm:ss", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: bad hour: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: bad minute: %w", s, err)
	}
	t := TimeOfDay{Hour24: h, Minute: m}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("parse time %q: out of range", s)
	}
	return t, nil
}

// Hour24 combines a 12-hour reading with its period. The boundary rule is
// strict: 12AM maps to 0 and 12PM maps to 12.
func Hour24(hour12 int, p Period) int {
	if p == PM {
		if hour12 == 12 {
			return 12
		}
		return hour12 + 12
	}
	if hour12 == 12 {
		return 0
	}
	return hour12
}

// NormalizeAngle folds any angle into [0, 360).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// Apply moves one hand of current to the given pointer angle and returns the
// resulting reading. The untouched hand keeps its value; moving the hour hand
// keeps the current period.
func Apply(current TimeOfDay, hand Hand, angle float64) TimeOfDay {
	a := NormalizeAngle(angle)
	switch hand {
	case HandMinute:
		m := int(math.Round(a/degreesPerMinute)) % 60
		return TimeOfDay{Hour24: current.Hour24, Minute: m}
	default:
		h12 := int(math.Round(a/degreesPerHour)) % 12
		if h12 == 0 {
			h12 = 12
		}
		return TimeOfDay{Hour24: Hour24(h12, current.Period()), Minute: current.Minute}
	}
}

// WithPeriod toggles the half-day marker while preserving the 12-hour reading.
func WithPeriod(current TimeOfDay, p Period) TimeOfDay {
	return TimeOfDay{Hour24: Hour24(current.Hour12(), p), Minute: current.Minute}
}

// HandAngles are render angles in the trig convention used by the face
// renderer, where 0° points right; hence the -90 rebase from "0° at top".
type HandAngles struct {
	Hour   float64 `json:"hour_angle"`
	Minute float64 `json:"minute_angle"`
}

// Angles returns the render angles for both hands. The hour hand advances
// continuously with the minutes (0.5° per minute).
func Angles(t TimeOfDay) HandAngles {
	return HandAngles{
		Hour:   float64(t.Hour12())*degreesPerHour + float64(t.Minute)*0.5 - 90,
		Minute: float64(t.Minute)*degreesPerMinute - 90,
	}
}
