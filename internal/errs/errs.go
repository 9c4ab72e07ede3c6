// Package errs defines the error taxonomy used across the risk worker.
//
// Each kind is a distinct sentinel wrapped with context via fmt.Errorf's
// %w verb, so callers can classify a failure with errors.Is while still
// getting a descriptive message in logs.
package errs

import "errors"

var (
	// ErrConfig marks a startup-fatal configuration problem.
	ErrConfig = errors.New("config error")

	// ErrUpstreamUnavailable marks the reference-data service being
	// unreachable or returning a non-2xx status at startup.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrBus marks a non-transient message bus failure.
	ErrBus = errors.New("bus error")

	// ErrStore marks a persistent shared-store failure after retry.
	ErrStore = errors.New("store error")

	// ErrParse marks a malformed inbound message.
	ErrParse = errors.New("parse error")

	// ErrPricing marks a per-instrument pricing failure.
	ErrPricing = errors.New("pricing error")

	// ErrCurveUnbuilt marks a calculate() call made before the first
	// tick has arrived.
	ErrCurveUnbuilt = errors.New("curve unbuilt")
)

// PricingError wraps ErrPricing with the instrument that failed.
type PricingError struct {
	InstrumentID string
	Cause        error
}

func (e *PricingError) Error() string {
	return "pricing error for instrument " + e.InstrumentID + ": " + e.Cause.Error()
}

func (e *PricingError) Unwrap() error { return ErrPricing }

// NewPricingError builds a PricingError for the given instrument.
func NewPricingError(instrumentID string, cause error) *PricingError {
	return &PricingError{InstrumentID: instrumentID, Cause: cause}
}
