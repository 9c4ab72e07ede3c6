package pricing

import (
	"github.com/riskdesk/fi-risk-engine/internal/calendar"
	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// SwapPricer prices vanilla fixed-for-floating interest rate swaps,
// single-curve: the floating index is bound to the same curve used for
// discounting, spread zero.
type SwapPricer struct{}

// NewSwapPricer constructs a SwapPricer.
func NewSwapPricer() *SwapPricer { return &SwapPricer{} }

// NPV returns the swap's present value from the fixed-rate payer's
// perspective, negated for RECEIVE_FIXED.
func (p *SwapPricer) NPV(s *instrument.Swap, c *curve.Builder) float64 {
	effective := s.EffectiveDate
	if effective.IsZero() {
		effective = calendar.AddBusinessDays(s.TradeDate, 2)
	}
	settle := SettlementDate(c.AsOf(), c.SettlementLagDays())
	if effective.Before(settle) {
		effective = settle
	}

	fixedSched := BuildSchedule(effective, s.Maturity, s.FixedFrequency, Forward, calendar.ModifiedFollowing)
	fixedLeg := 0.0
	for i := 1; i < len(fixedSched.Dates); i++ {
		start, end := fixedSched.Dates[i-1], fixedSched.Dates[i]
		yf := YearFraction(start, end, instrument.Act360)
		years := curve.Act365Fixed(c.AsOf(), end)
		df := c.DiscountFactor(years)
		fixedLeg += s.FixedRate * yf * df
	}
	fixedLeg *= s.Notional

	// Floating leg telescopes to notional*(DF(effective)-DF(maturity))
	// under single-curve forecasting with zero spread: each quarterly
	// forward rate resets to exactly the curve's implied forward, so
	// consecutive discounted cashflows cancel pairwise.
	dfStart := c.DiscountFactor(curve.Act365Fixed(c.AsOf(), effective))
	dfEnd := c.DiscountFactor(curve.Act365Fixed(c.AsOf(), s.Maturity))
	floatLeg := s.Notional * (dfStart - dfEnd)

	payerNPV := floatLeg - fixedLeg
	if s.Side == instrument.ReceiveFixed {
		return -payerNPV
	}
	return payerNPV
}
