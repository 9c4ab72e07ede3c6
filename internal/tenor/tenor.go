// Package tenor defines the closed set of symbolic terms recognized on the
// yield curve, and the short-end/long-end classification used when picking
// calibration instruments during bootstrap.
package tenor

// Tenor is a symbolic maturity label on the yield curve.
type Tenor string

const (
	M1  Tenor = "1M"
	M3  Tenor = "3M"
	M6  Tenor = "6M"
	Y1  Tenor = "1Y"
	Y2  Tenor = "2Y"
	Y3  Tenor = "3Y"
	Y5  Tenor = "5Y"
	Y7  Tenor = "7Y"
	Y10 Tenor = "10Y"
	Y20 Tenor = "20Y"
	Y30 Tenor = "30Y"
)

// All is the recognized tenor set, in curve order (short to long).
var All = []Tenor{M1, M3, M6, Y1, Y2, Y3, Y5, Y7, Y10, Y20, Y30}

// Short is the deposit-style short end of the curve (<= 1Y).
var Short = []Tenor{M1, M3, M6, Y1}

// Long is the OIS-swap-style long end of the curve (>= 2Y).
var Long = []Tenor{Y2, Y3, Y5, Y7, Y10, Y20, Y30}

// KeyRate is the subset of tenors used for key-rate duration.
var KeyRate = []Tenor{Y2, Y5, Y10, Y30}

// Years is the tenor's term expressed in years, used to place it on the
// curve's time axis and to build calibration-instrument periods.
var Years = map[Tenor]float64{
	M1: 1.0 / 12, M3: 3.0 / 12, M6: 6.0 / 12, Y1: 1,
	Y2: 2, Y3: 3, Y5: 5, Y7: 7, Y10: 10, Y20: 20, Y30: 30,
}

// Recognized reports whether t is in the closed tenor set.
func Recognized(t Tenor) bool {
	_, ok := Years[t]
	return ok
}

// IsShort reports whether t belongs to the deposit-style short end.
func IsShort(t Tenor) bool {
	switch t {
	case M1, M3, M6, Y1:
		return true
	default:
		return false
	}
}
