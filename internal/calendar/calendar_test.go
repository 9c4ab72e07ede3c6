package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	cases := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"regular wednesday", date(2026, 1, 28), true},
		{"saturday", date(2026, 1, 31), false},
		{"new year's day", date(2026, 1, 1), false},
		{"mlk day 2026", date(2026, 1, 19), false},
		{"independence day", date(2026, 7, 4), false},
		{"thanksgiving 2026", date(2026, 11, 26), false},
		{"christmas", date(2026, 12, 25), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsBusinessDay(tc.day))
		})
	}
}

func TestAdjust_ModifiedFollowingStaysInMonth(t *testing.T) {
	// Saturday 2026-05-30: Following would land on Monday June 1,
	// Modified Following rolls back to Friday May 29.
	sat := date(2026, 5, 30)
	assert.Equal(t, date(2026, 6, 1), Adjust(sat, Following))
	assert.Equal(t, date(2026, 5, 29), Adjust(sat, ModifiedFollowing))
	assert.Equal(t, sat, Adjust(sat, Unadjusted))
}

func TestAddBusinessDays_SkipsWeekendsAndHolidays(t *testing.T) {
	// Wednesday 2026-01-28 + 2 business days = Friday 2026-01-30.
	assert.Equal(t, date(2026, 1, 30), AddBusinessDays(date(2026, 1, 28), 2))
	// Friday + 1 business day skips the weekend.
	assert.Equal(t, date(2026, 2, 2), AddBusinessDays(date(2026, 1, 30), 1))
	// Backward across MLK day: Tuesday 2026-01-20 - 1 lands on Friday
	// 2026-01-16.
	assert.Equal(t, date(2026, 1, 16), AddBusinessDays(date(2026, 1, 20), -1))
}
