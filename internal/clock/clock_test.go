package clock_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvallejoc/eventum/internal/clock"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    clock.TimeOfDay
		wantErr bool
	}{
		{"14:30", clock.TimeOfDay{Hour24: 14, Minute: 30}, false},
		{"09:05:00", clock.TimeOfDay{Hour24: 9, Minute: 5}, false},
		{"00:00", clock.TimeOfDay{}, false},
		{"23:59:59", clock.TimeOfDay{Hour24: 23, Minute: 59}, false},
		{"24:00", clock.TimeOfDay{}, true},
		{"12:60", clock.TimeOfDay{}, true},
		{"noon", clock.TimeOfDay{}, true},
		{"", clock.TimeOfDay{}, true},
	}
	for _, tc := range tests {
		got, err := clock.Parse(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestHour24Boundaries(t *testing.T) {
	// Strict noon/midnight rule: 12AM -> 0, 12PM -> 12.
	assert.Equal(t, 0, clock.Hour24(12, clock.AM))
	assert.Equal(t, 12, clock.Hour24(12, clock.PM))
	assert.Equal(t, 1, clock.Hour24(1, clock.AM))
	assert.Equal(t, 13, clock.Hour24(1, clock.PM))
	assert.Equal(t, 11, clock.Hour24(11, clock.AM))
	assert.Equal(t, 23, clock.Hour24(11, clock.PM))
}

func TestHour12AndPeriod(t *testing.T) {
	midnight := clock.TimeOfDay{Hour24: 0, Minute: 0}
	assert.Equal(t, 12, midnight.Hour12())
	assert.Equal(t, clock.AM, midnight.Period())

	noon := clock.TimeOfDay{Hour24: 12, Minute: 0}
	assert.Equal(t, 12, noon.Hour12())
	assert.Equal(t, clock.PM, noon.Period())

	afternoon := clock.TimeOfDay{Hour24: 15, Minute: 45}
	assert.Equal(t, 3, afternoon.Hour12())
	assert.Equal(t, clock.PM, afternoon.Period())
}

func TestNormalizeAngle(t *testing.T) {
	assert.Equal(t, 0.0, clock.NormalizeAngle(360))
	assert.Equal(t, 0.0, clock.NormalizeAngle(0))
	assert.Equal(t, 90.0, clock.NormalizeAngle(450))
	assert.Equal(t, 270.0, clock.NormalizeAngle(-90))
}

func TestApplyMinuteHand(t *testing.T) {
	base := clock.TimeOfDay{Hour24: 10, Minute: 0}

	got := clock.Apply(base, clock.HandMinute, 90) // 3 o'clock position
	assert.Equal(t, clock.TimeOfDay{Hour24: 10, Minute: 15}, got)

	got = clock.Apply(base, clock.HandMinute, 360) // boundary normalizes to 0
	assert.Equal(t, clock.TimeOfDay{Hour24: 10, Minute: 0}, got)

	got = clock.Apply(base, clock.HandMinute, 357) // rounds to 60 -> wraps to 0
	assert.Equal(t, 0, got.Minute)
}

func TestApplyHourHand(t *testing.T) {
	morning := clock.TimeOfDay{Hour24: 9, Minute: 30}
	got := clock.Apply(morning, clock.HandHour, 90) // 3 o'clock, AM preserved
	assert.Equal(t, clock.TimeOfDay{Hour24: 3, Minute: 30}, got)

	evening := clock.TimeOfDay{Hour24: 21, Minute: 10}
	got = clock.Apply(evening, clock.HandHour, 90) // PM preserved
	assert.Equal(t, clock.TimeOfDay{Hour24: 15, Minute: 10}, got)

	// Angle 0 (top) is 12 o'clock: midnight in AM, noon in PM.
	got = clock.Apply(morning, clock.HandHour, 0)
	assert.Equal(t, 0, got.Hour24)
	got = clock.Apply(evening, clock.HandHour, 0)
	assert.Equal(t, 12, got.Hour24)
}

func TestWithPeriod(t *testing.T) {
	three := clock.TimeOfDay{Hour24: 3, Minute: 20}
	assert.Equal(t, clock.TimeOfDay{Hour24: 15, Minute: 20}, clock.WithPeriod(three, clock.PM))
	assert.Equal(t, three, clock.WithPeriod(clock.TimeOfDay{Hour24: 15, Minute: 20}, clock.AM))

	noon := clock.TimeOfDay{Hour24: 12, Minute: 0}
	assert.Equal(t, clock.TimeOfDay{Hour24: 0, Minute: 0}, clock.WithPeriod(noon, clock.AM))
}

func TestAngles(t *testing.T) {
	a := clock.Angles(clock.TimeOfDay{Hour24: 15, Minute: 30})
	// hour12=3: 3*30 + 30*0.5 - 90 = 15; minute: 30*6 - 90 = 90.
	assert.InDelta(t, 15.0, a.Hour, 1e-9)
	assert.InDelta(t, 90.0, a.Minute, 1e-9)
}

// The render angles use the 0°-at-right trig convention (the -90 rebase), so
// the inverse mapping adds the rebase back before converting to a time.
func TestMinuteAngleRoundTrip(t *testing.T) {
	for m := 0; m < 60; m++ {
		tod := clock.TimeOfDay{Hour24: 14, Minute: m}
		angles := clock.Angles(tod)
		back := clock.Apply(tod, clock.HandMinute, clock.NormalizeAngle(angles.Minute+90))
		assert.Equal(t, m, back.Minute, "minute %d", m)
	}
}

func TestHourAngleRoundTrip(t *testing.T) {
	for h24 := 0; h24 < 24; h24++ {
		tod := clock.TimeOfDay{Hour24: h24, Minute: 0}
		angles := clock.Angles(tod)
		back := clock.Apply(tod, clock.HandHour, clock.NormalizeAngle(angles.Hour+90))
		assert.Equal(t, h24, back.Hour24, "hour24 %d", h24)
	}
}

func TestStringFormats(t *testing.T) {
	tod := clock.TimeOfDay{Hour24: 7, Minute: 5}
	assert.Equal(t, "07:05", tod.String())
	assert.Equal(t, "07:05:00", tod.Wire())
	assert.Equal(t, "07:05", fmt.Sprint(tod))
}
