package curve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

func flatRates(r float64) map[tenor.Tenor]float64 {
	out := make(map[tenor.Tenor]float64, len(tenor.All))
	for _, t := range tenor.All {
		out[t] = r
	}
	return out
}

func TestBuilder_UnbuiltDiscountsAtPar(t *testing.T) {
	b := NewBuilder()
	assert.False(t, b.Built())
	assert.Equal(t, 1.0, b.DiscountFactor(5))
	assert.Equal(t, 0.0, b.ZeroRate(5))
}

func TestBuilder_FlatCurveDiscountsBelowPar(t *testing.T) {
	b := NewBuilder()
	b.UpdateRates(flatRates(0.03), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, b.Built())

	df5 := b.DiscountFactor(5)
	df10 := b.DiscountFactor(10)
	assert.Less(t, df5, 1.0)
	assert.Less(t, df10, df5, "discount factor must decrease with maturity on a positive flat curve")
}

func TestBuilder_ZeroRateApproximatesFlatInput(t *testing.T) {
	b := NewBuilder()
	b.UpdateRates(flatRates(0.02), time.Now().UTC().Truncate(24*time.Hour))
	zr := b.ZeroRate(10)
	assert.InDelta(t, 0.02, zr, 0.01)
}

func TestBuilder_ExtrapolatesBeyondLastPillar(t *testing.T) {
	b := NewBuilder()
	b.UpdateRates(flatRates(0.025), time.Now().UTC())
	df30 := b.DiscountFactor(30)
	df40 := b.DiscountFactor(40)
	assert.Less(t, df40, df30)
}

func TestBuilder_RebuildIsLazy(t *testing.T) {
	b := NewBuilder()
	b.UpdateRates(flatRates(0.03), time.Now().UTC())
	df1 := b.DiscountFactor(5)

	// Mutate a single quote directly (as the risk calculator's
	// bump-and-reprice would) without calling UpdateRates.
	b.GetQuote(tenor.Y5).Set(0.10)

	df2 := b.DiscountFactor(5)
	assert.NotEqual(t, df1, df2, "discount factor must reflect the mutated quote on next access")
}

func TestBuilder_RestoredQuotesReproduceOriginalFit(t *testing.T) {
	b := NewBuilder()
	b.UpdateRates(flatRates(0.03), time.Now().UTC())
	df1 := b.DiscountFactor(7)

	q := b.GetQuote(tenor.Y7)
	orig := q.Value()
	q.Set(orig + 0.0001)
	_ = b.DiscountFactor(7)
	q.Set(orig)

	assert.Equal(t, df1, b.DiscountFactor(7), "restoring quotes must reproduce the original discount factors")
}
