package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// marketCurve mirrors a realistic inverted-front-end USD curve as of
// late January 2026.
func marketCurve(t *testing.T) *curve.Builder {
	t.Helper()
	b := curve.NewBuilder()
	b.UpdateRates(map[tenor.Tenor]float64{
		tenor.M1: 0.0525, tenor.M3: 0.0520, tenor.M6: 0.0510, tenor.Y1: 0.0480,
		tenor.Y2: 0.0420, tenor.Y3: 0.0415, tenor.Y5: 0.0410, tenor.Y7: 0.0415,
		tenor.Y10: 0.0420, tenor.Y20: 0.0440, tenor.Y30: 0.0450,
	}, time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC))
	return b
}

func treasuryBond() instrument.Instrument {
	return instrument.FromBond(&instrument.Bond{
		ID:        "UST-2028-375",
		ISIN:      "US912828C570",
		Notional:  1_000_000,
		Currency:  "USD",
		Coupon:    0.0375,
		IssueDate: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC),
		Maturity:  time.Date(2028, 11, 15, 0, 0, 0, 0, time.UTC),
		Frequency: instrument.SemiAnnual,
		DayCount:  instrument.ActAct,
	})
}

func atMarketSwap() instrument.Instrument {
	return instrument.FromSwap(&instrument.Swap{
		ID:             "IRS-5Y-PAY-410",
		Notional:       10_000_000,
		Currency:       "USD",
		FixedRate:      0.0410,
		TenorLabel:     "5Y",
		TradeDate:      time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC),
		EffectiveDate:  time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
		Maturity:       time.Date(2031, 1, 28, 0, 0, 0, 0, time.UTC),
		Side:           instrument.PayFixed,
		FloatIndex:     "SOFR",
		FixedFrequency: instrument.Quarterly,
	})
}

func TestScenario_BondBaseCase(t *testing.T) {
	c := marketCurve(t)
	calc := NewCalculator(c, DefaultBumpSize)

	res, err := calc.Calculate(treasuryBond())
	require.NoError(t, err)

	assert.Greater(t, res.NPV, 800_000.0)
	assert.Less(t, res.NPV, 1_200_000.0)
	assert.Greater(t, res.DV01, 50.0)
	assert.Less(t, res.DV01, 1_000.0)
}

func TestScenario_AtMarketSwapNearZero(t *testing.T) {
	c := marketCurve(t)
	calc := NewCalculator(c, DefaultBumpSize)

	res, err := calc.Calculate(atMarketSwap())
	require.NoError(t, err)

	assert.Greater(t, res.NPV, -1_000_000.0)
	assert.Less(t, res.NPV, 1_000_000.0)
}

func TestScenario_PayFixedAboveMarketIsNegative(t *testing.T) {
	c := marketCurve(t)
	calc := NewCalculator(c, DefaultBumpSize)

	swap := atMarketSwap()
	rich := *swap.Swap
	rich.FixedRate = 0.06
	res, err := calc.Calculate(instrument.FromSwap(&rich))
	require.NoError(t, err)
	assert.Negative(t, res.NPV, "paying well above market must carry negative NPV")
}

func TestScenario_QuoteRestoreAfterCalculate(t *testing.T) {
	c := marketCurve(t)
	calc := NewCalculator(c, DefaultBumpSize)

	before := make(map[tenor.Tenor]float64, len(tenor.All))
	for _, tn := range tenor.All {
		before[tn] = c.GetQuote(tn).Value()
	}

	_, err := calc.Calculate(treasuryBond())
	require.NoError(t, err)

	for _, tn := range tenor.All {
		assert.Equal(t, before[tn], c.GetQuote(tn).Value(), "quote %s drifted", tn)
	}
}

func TestScenario_CentralDifferenceMatchesManualBump(t *testing.T) {
	c := marketCurve(t)
	calc := NewCalculator(c, DefaultBumpSize)
	bond := treasuryBond()

	res, err := calc.Calculate(bond)
	require.NoError(t, err)

	quotes := c.Quotes()
	g := quotes.NewGuard()
	quotes.BumpAll(DefaultBumpSize)
	up := calc.price(bond)
	g.Restore()

	g2 := quotes.NewGuard()
	quotes.BumpAll(-DefaultBumpSize)
	down := calc.price(bond)
	g2.Restore()

	assert.InDelta(t, (down-up)/2, res.DV01, 1e-6)
}
