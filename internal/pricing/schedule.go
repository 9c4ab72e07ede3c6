package pricing

import (
	"time"

	"github.com/riskdesk/fi-risk-engine/internal/calendar"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// GenerationRule picks the direction a schedule is built from, which
// decides where the short stub lands when the period between start and
// end doesn't divide evenly.
type GenerationRule int

const (
	Backward GenerationRule = iota
	Forward
)

// Schedule is the ordered list of coupon/reset dates, adjusted onto a
// business day, that a pricer walks to build cashflows.
type Schedule struct {
	Dates []time.Time
}

// BuildSchedule generates dates from start to end at the given
// frequency, rolled onto a business day with adj; bonds generate
// backward from maturity, swap legs forward from the effective date.
func BuildSchedule(start, end time.Time, freq instrument.Frequency, rule GenerationRule, adj calendar.Adjustment) Schedule {
	monthsPerPeriod := 12 / freq.PeriodsPerYear()
	var raw []time.Time
	if rule == Backward {
		cur := end
		raw = append(raw, cur)
		for cur.After(start) {
			cur = cur.AddDate(0, -monthsPerPeriod, 0)
			if cur.Before(start) {
				cur = start
			}
			raw = append(raw, cur)
		}
		// raw is end->start; reverse to start->end.
		for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
	} else {
		cur := start
		raw = append(raw, cur)
		for cur.Before(end) {
			cur = cur.AddDate(0, monthsPerPeriod, 0)
			if cur.After(end) {
				cur = end
			}
			raw = append(raw, cur)
		}
	}

	dates := make([]time.Time, len(raw))
	for i, d := range raw {
		dates[i] = calendar.Adjust(d, adj)
	}
	return Schedule{Dates: dates}
}

// SettlementDate advances asOf by n business days on the US Government
// Bond calendar.
func SettlementDate(asOf time.Time, businessDays int) time.Time {
	return calendar.AddBusinessDays(asOf, businessDays)
}
