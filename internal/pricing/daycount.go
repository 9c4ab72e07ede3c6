package pricing

import (
	"time"

	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// YearFraction computes the accrual fraction between start and end under
// convention dc.
func YearFraction(start, end time.Time, dc instrument.DayCount) float64 {
	switch dc {
	case instrument.Act360:
		return end.Sub(start).Hours() / 24 / 360
	case instrument.Act365:
		return end.Sub(start).Hours() / 24 / 365
	case instrument.Thirty360:
		return thirty360(start, end)
	default: // ActAct
		return actActISDA(start, end)
	}
}

func thirty360(start, end time.Time) float64 {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}
	days := 360*(y2-y1) + 30*(int(m2)-int(m1)) + (d2 - d1)
	return float64(days) / 360
}

// actActISDA approximates ISDA Actual/Actual by summing the fraction of
// days falling in each overlapping calendar year, weighted by that
// year's length.
func actActISDA(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	total := 0.0
	cur := start
	for cur.Before(end) {
		yearEnd := time.Date(cur.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		segEnd := yearEnd
		if end.Before(segEnd) {
			segEnd = end
		}
		yearStart := time.Date(cur.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		yearLen := yearEnd.Sub(yearStart).Hours() / 24
		total += segEnd.Sub(cur).Hours() / 24 / yearLen
		cur = segEnd
	}
	return total
}
