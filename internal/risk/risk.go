// Package risk computes per-instrument NPV, parallel DV01, and key-rate
// durations by bump-and-reprice against the live curve, scoping every
// mutation with a quote.Guard so a panicking pricer can never leave the
// shared quote vector in a bumped state.
package risk

import (
	"fmt"

	"github.com/riskdesk/fi-risk-engine/internal/curve"
	"github.com/riskdesk/fi-risk-engine/internal/errs"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
	"github.com/riskdesk/fi-risk-engine/internal/pricing"
	"github.com/riskdesk/fi-risk-engine/internal/quote"
	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// DefaultBumpSize is the rate shock applied in each direction for the
// central difference, in absolute rate units: 1bp. Overridable via
// BUMP_SIZE.
const DefaultBumpSize = 0.0001

// Result is the computed risk for one instrument.
type Result struct {
	InstrumentID string
	NPV          float64
	DV01         float64
	KRD          map[tenor.Tenor]float64
}

// Calculator prices instruments and derives risk sensitivities from the
// shared curve.
type Calculator struct {
	curve     *curve.Builder
	bondPrice *pricing.BondPricer
	swapPrice *pricing.SwapPricer
	bumpSize  float64
}

// NewCalculator builds a Calculator over c, shocking quotes by bumpSize
// (defaults to DefaultBumpSize when 0 or negative).
func NewCalculator(c *curve.Builder, bumpSize float64) *Calculator {
	if bumpSize <= 0 {
		bumpSize = DefaultBumpSize
	}
	return &Calculator{
		curve:     c,
		bondPrice: pricing.NewBondPricer(),
		swapPrice: pricing.NewSwapPricer(),
		bumpSize:  bumpSize,
	}
}

func (c *Calculator) price(inst instrument.Instrument) float64 {
	if inst.Kind == instrument.KindBond {
		return c.bondPrice.NPV(inst.Bond, c.curve)
	}
	return c.swapPrice.NPV(inst.Swap, c.curve)
}

// Calculate prices inst and derives parallel DV01 and key-rate
// durations, returning a *errs.PricingError wrapping the underlying
// cause on failure (the pricers here do not themselves return errors,
// but Calculate recovers from a pricer panic so one bad instrument
// never takes down the stream coordinator's batch).
func (c *Calculator) Calculate(inst instrument.Instrument) (result Result, err error) {
	if !c.curve.Built() {
		// Not a per-instrument failure: no instrument can price before
		// the first tick, so the caller treats this as tick-level.
		return Result{}, errs.ErrCurveUnbuilt
	}

	id := inst.ID()
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewPricingError(id, fmt.Errorf("pricer panic: %v", r))
		}
	}()

	npv := c.price(inst)
	dv01 := c.parallelDV01(inst)
	krd := c.keyRateDurations(inst)

	return Result{
		InstrumentID: id,
		NPV:          npv,
		DV01:         dv01,
		KRD:          krd,
	}, nil
}

// bumpedPrice reprices inst with mutate applied to the quote vector,
// restoring the vector on every exit path: the deferred guard fires
// even when the pricer panics mid-reprice, so the recover in Calculate
// never observes a bumped vector.
func (c *Calculator) bumpedPrice(inst instrument.Instrument, mutate func(*quote.Vector)) float64 {
	quotes := c.curve.Quotes()
	g := quotes.NewGuard()
	defer g.Restore()
	mutate(quotes)
	return c.price(inst)
}

// parallelDV01 bumps every tenor up and down by bumpSize and takes the
// central difference (npv_down - npv_up) / 2, which cancels the
// second-order curvature a one-sided bump would pick up.
func (c *Calculator) parallelDV01(inst instrument.Instrument) float64 {
	npvUp := c.bumpedPrice(inst, func(v *quote.Vector) { v.BumpAll(c.bumpSize) })
	npvDown := c.bumpedPrice(inst, func(v *quote.Vector) { v.BumpAll(-c.bumpSize) })
	return (npvDown - npvUp) / 2
}

// keyRateDurations bumps each key-rate tenor individually and takes the
// same central-difference construction, isolating sensitivity to a
// single point on the curve.
func (c *Calculator) keyRateDurations(inst instrument.Instrument) map[tenor.Tenor]float64 {
	out := make(map[tenor.Tenor]float64, len(tenor.KeyRate))

	for _, t := range tenor.KeyRate {
		if c.curve.Quotes().Get(t) == nil {
			continue
		}
		npvUp := c.bumpedPrice(inst, func(v *quote.Vector) {
			q := v.Get(t)
			q.Set(q.Value() + c.bumpSize)
		})
		npvDown := c.bumpedPrice(inst, func(v *quote.Vector) {
			q := v.Get(t)
			q.Set(q.Value() - c.bumpSize)
		})
		out[t] = (npvDown - npvUp) / 2
	}
	return out
}
