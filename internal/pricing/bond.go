// Package pricing prices bonds and swaps by discounting their cashflows
// on a curve.Builder.
package pricing

import (
	"github.com/riskdesk/fi-risk-engine/internal/calendar"
	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// BondPricer prices FixedRateBond instruments.
type BondPricer struct{}

// NewBondPricer constructs a BondPricer. It carries no state: every
// call takes the curve explicitly so the same pricer instance is safe
// to share across goroutines.
func NewBondPricer() *BondPricer { return &BondPricer{} }

// NPV returns the bond's clean-forward present value: the sum of
// discounted coupons and redemption, for coupon dates strictly after
// the 2-business-day settlement date off the curve's as-of date. Each
// coupon accrues over its own schedule period under the bond's
// day-count convention, so two bonds differing only in day count price
// differently.
func (p *BondPricer) NPV(b *instrument.Bond, c *curve.Builder) float64 {
	settle := SettlementDate(c.AsOf(), c.SettlementLagDays())
	sched := BuildSchedule(b.EffectiveIssueDate(), b.Maturity, b.Frequency, Backward, calendar.Unadjusted)

	npv := 0.0
	for i := 1; i < len(sched.Dates); i++ {
		payDate := sched.Dates[i]
		if !payDate.After(settle) {
			continue
		}
		accrual := YearFraction(sched.Dates[i-1], payDate, b.DayCount)
		years := curve.Act365Fixed(c.AsOf(), payDate)
		df := c.DiscountFactor(years)
		npv += b.Notional * b.Coupon * accrual * df
	}

	if len(sched.Dates) > 0 {
		maturity := sched.Dates[len(sched.Dates)-1]
		if maturity.After(settle) {
			years := curve.Act365Fixed(c.AsOf(), maturity)
			npv += b.Notional * c.DiscountFactor(years)
		}
	}
	return npv
}
