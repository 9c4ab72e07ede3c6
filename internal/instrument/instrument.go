// Package instrument defines the Bond/Swap sum type priced by the risk
// worker. Instruments are immutable for the lifetime of the process; they
// are loaded once at startup by the portfolio loader.
package instrument

import "time"

// Frequency is a coupon/payment frequency.
type Frequency string

const (
	Annual     Frequency = "ANNUAL"
	SemiAnnual Frequency = "SEMI_ANNUAL"
	Quarterly  Frequency = "QUARTERLY"
	Monthly    Frequency = "MONTHLY"
)

// PeriodsPerYear returns how many coupon periods a year holds under f,
// defaulting to semi-annual for an unrecognized value.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Annual:
		return 1
	case Quarterly:
		return 4
	case Monthly:
		return 12
	default:
		return 2
	}
}

// DayCount is a day-count convention.
type DayCount string

const (
	ActAct    DayCount = "ACT/ACT"
	Act360    DayCount = "ACT/360"
	Act365    DayCount = "ACT/365"
	Thirty360 DayCount = "30/360"
)

// ParseDayCount maps the reference-data service's underscore-separated
// day-count names (ACT_ACT, ACT_360, 30_360) onto the convention set,
// defaulting to ACT/ACT for an unrecognized value the same way the
// pricing layer does for frequencies.
func ParseDayCount(s string) DayCount {
	switch s {
	case "ACT_360", "ACT/360":
		return Act360
	case "ACT_365", "ACT/365":
		return Act365
	case "30_360", "30/360":
		return Thirty360
	default:
		return ActAct
	}
}

// ParseFrequency maps a wire frequency name onto the Frequency set,
// defaulting to semi-annual.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case Annual, SemiAnnual, Quarterly, Monthly:
		return Frequency(s)
	default:
		return SemiAnnual
	}
}

// Kind tags the sum type.
type Kind int

const (
	KindBond Kind = iota
	KindSwap
)

// Side is the fixed-leg direction of a swap.
type Side string

const (
	PayFixed     Side = "PAY_FIXED"
	ReceiveFixed Side = "RECEIVE_FIXED"
)

// ParseSide maps the reference-data service's pay_receive field (PAY,
// RECEIVE) onto Side. The long-form names are accepted too. Returns
// false for anything else.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "PAY", string(PayFixed):
		return PayFixed, true
	case "RECEIVE", string(ReceiveFixed):
		return ReceiveFixed, true
	default:
		return "", false
	}
}

// Bond is a fixed-rate bond.
type Bond struct {
	ID          string
	ISIN        string
	Notional    float64
	Currency    string
	Coupon      float64
	Maturity    time.Time
	IssueDate   time.Time // zero value means "not set": default maturity - 5y
	Frequency   Frequency
	DayCount    DayCount
}

// EffectiveIssueDate returns IssueDate, defaulting to Maturity - 5 years
// when the bond has no explicit issue date.
func (b Bond) EffectiveIssueDate() time.Time {
	if b.IssueDate.IsZero() {
		return b.Maturity.AddDate(-5, 0, 0)
	}
	return b.IssueDate
}

// Swap is a vanilla fixed-for-floating interest rate swap.
type Swap struct {
	ID              string
	Notional        float64
	Currency        string
	FixedRate       float64
	TenorLabel      string
	TradeDate       time.Time
	Maturity        time.Time
	EffectiveDate   time.Time // zero value means "not set"
	Side            Side
	FloatIndex      string
	FixedFrequency  Frequency
}

// FloatingFrequency is the floating-leg reset frequency, quarterly by
// construction for every swap in the universe.
const FloatingFrequency = Quarterly

// Instrument is the tagged union of priceable instruments. Exactly one of
// Bond/Swap is populated, selected by Kind.
type Instrument struct {
	Kind Kind
	Bond *Bond
	Swap *Swap
}

// ID returns the common identifier regardless of kind.
func (i Instrument) ID() string {
	if i.Kind == KindBond {
		return i.Bond.ID
	}
	return i.Swap.ID
}

// Notional returns the common notional regardless of kind.
func (i Instrument) Notional() float64 {
	if i.Kind == KindBond {
		return i.Bond.Notional
	}
	return i.Swap.Notional
}

// FromBond wraps a Bond as an Instrument.
func FromBond(b *Bond) Instrument { return Instrument{Kind: KindBond, Bond: b} }

// FromSwap wraps a Swap as an Instrument.
func FromSwap(s *Swap) Instrument { return Instrument{Kind: KindSwap, Swap: s} }

// Portfolio is the in-memory universe of priced instruments, materialized
// once at startup and held for the process lifetime.
type Portfolio struct {
	Instruments []Instrument
}

// Len returns the instrument count.
func (p *Portfolio) Len() int { return len(p.Instruments) }
