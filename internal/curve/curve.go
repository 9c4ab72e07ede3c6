// Package curve bootstraps a discount curve from the live quote vector
// and answers discount-factor and zero-rate queries for the pricers. The
// curve is rebuilt lazily: a mutation to the underlying quotes does not
// recompute anything until the next DiscountFactor/ZeroRate call, which
// amortizes repeated bumps during a single bump-and-reprice pass into a
// single rebuild.
package curve

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/riskdesk/fi-risk-engine/internal/quote"
	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// Act365Fixed converts a day span into a year fraction using Actual/365
// (Fixed), the curve's own day-count basis regardless of the convention
// used by the instrument being priced against it.
func Act365Fixed(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365
}

// settlementLag is the spot-to-settlement gap applied when curve dates
// are not already settlement dates (2 business days, US Government Bond
// calendar).
const settlementLag = 2

// Builder owns the live quote vector and the curve derived from it.
type Builder struct {
	mu         sync.Mutex
	quotes     *quote.Vector
	asOf       time.Time
	built      bool
	fitted     bool
	fitVersion uint64
	predictor  interp.FittablePredictor
	xs, ys     []float64 // xs in years, ys = ln(discount factor)
}

// NewBuilder creates a curve builder over a fresh quote vector.
func NewBuilder() *Builder {
	return &Builder{quotes: quote.NewVector()}
}

// Quotes returns the underlying quote vector, shared with the risk
// calculator for bump-and-reprice.
func (b *Builder) Quotes() *quote.Vector { return b.quotes }

// AsOf returns the curve date of the most recent UpdateRates call.
func (b *Builder) AsOf() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asOf
}

// Built reports whether at least one tick has been applied.
func (b *Builder) Built() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.built
}

// UpdateRates applies a full or partial rate update to the quote vector
// and sets the evaluation date. The quote writes themselves invalidate
// any cached fit, so the next discount query refits. Unrecognized
// tenors are silently ignored by the caller (the stream coordinator is
// responsible for that validation); UpdateRates itself only ever writes
// to tenors already present in the vector.
func (b *Builder) UpdateRates(rates map[tenor.Tenor]float64, curveDate time.Time) {
	for t, r := range rates {
		if q := b.quotes.Get(t); q != nil {
			q.Set(r)
		}
	}
	b.mu.Lock()
	b.asOf = curveDate
	b.built = true
	b.mu.Unlock()
}

// GetQuote returns the live quote for tenor t.
func (b *Builder) GetQuote(t tenor.Tenor) *quote.Quote {
	return b.quotes.Get(t)
}

// rebuild refits the discount-factor interpolant against the current
// quote values. The short end (1M,3M,6M,1Y) is treated as simple-money
// deposit rates; the long end (2Y..30Y) is treated as OIS par rates
// whose discount factors solve recursively against the already-built
// curve, the usual deposit-helper/OIS-helper bootstrap split.
// Interpolation of ln(discount factor) uses a Fritsch-Butland monotone
// cubic, gonum's closest analogue to log-cubic discount interpolation.
func (b *Builder) rebuild() {
	version := b.quotes.Version()
	if b.fitted && b.fitVersion == version {
		return
	}
	xs := make([]float64, 0, len(tenor.All)+1)
	ys := make([]float64, 0, len(tenor.All)+1)
	xs = append(xs, 0)
	ys = append(ys, 0) // ln(DF(0)) = 0

	for _, t := range tenor.Short {
		years := tenor.Years[t]
		rate := b.quotes.Get(t).Value()
		df := 1.0 / (1.0 + rate*years)
		xs = append(xs, years)
		ys = append(ys, math.Log(df))
	}

	// Bootstrap the long end: solve each OIS par-rate helper for the
	// discount factor at its maturity given discount factors already
	// placed at shorter tenors (flat-forward assumption between the
	// most recent pillar and the new one, evaluated analytically since
	// OIS coupons here are taken as annual against the par rate).
	lastYears := xs[len(xs)-1]
	lastDF := math.Exp(ys[len(ys)-1])
	for _, t := range tenor.Long {
		years := tenor.Years[t]
		rate := b.quotes.Get(t).Value()
		periods := years - lastYears
		if periods <= 0 {
			periods = years
		}
		// Annuity of the previously-built pillars approximated as a
		// single flat-forward stub: DF(years) solves
		//   rate * periods * DF(years) + (DF(years) - lastDF) = 0
		// rearranged from the par-swap condition fixed = (1-DF)/annuity
		// with a one-period annuity over the new stub.
		df := lastDF / (1 + rate*periods)
		xs = append(xs, years)
		ys = append(ys, math.Log(df))
		lastYears, lastDF = years, df
	}

	pred := new(interp.FritschButland)
	if err := pred.Fit(xs, ys); err != nil {
		// Degenerate quote set (non-monotone input); fall back to
		// piecewise linear, which never fails to fit on sorted xs.
		lin := new(interp.PiecewiseLinear)
		_ = lin.Fit(xs, ys)
		b.predictor = lin
	} else {
		b.predictor = pred
	}
	b.xs, b.ys = xs, ys
	b.fitted = true
	b.fitVersion = version
}

// DiscountFactor returns DF(years): the discount factor for a cashflow
// years from the curve's as-of date. An unbuilt curve (no tick yet
// received) discounts at par, DF = 1, so early pricing calls degrade
// gracefully rather than panicking.
func (b *Builder) DiscountFactor(years float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.built {
		return 1.0
	}
	b.rebuild()
	if years <= 0 {
		return 1.0
	}
	last := b.xs[len(b.xs)-1]
	if years > last {
		// Extrapolation past the last pillar: hold the average forward
		// rate of the last pillar-to-pillar segment flat beyond it.
		slope := (b.ys[len(b.ys)-1] - b.ys[len(b.ys)-2]) / (b.xs[len(b.xs)-1] - b.xs[len(b.xs)-2])
		return math.Exp(b.ys[len(b.ys)-1] + slope*(years-last))
	}
	return math.Exp(b.predictor.Predict(years))
}

// ZeroRate returns the continuously-compounded zero rate to years. An
// unbuilt curve returns 0.
func (b *Builder) ZeroRate(years float64) float64 {
	if years <= 0 {
		return 0
	}
	df := b.DiscountFactor(years)
	if df <= 0 {
		return 0
	}
	return -math.Log(df) / years
}

// SettlementLagDays returns the curve's spot-to-settlement lag so
// pricers can derive an instrument's settlement date from AsOf.
func (b *Builder) SettlementLagDays() int { return settlementLag }
