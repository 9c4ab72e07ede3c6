// Package quote holds the mutable rate quotes shared by the curve builder
// and every instrument pricer. Mutating a quote invalidates any curve
// derived from it; callers observe the new value on the next pricing call.
package quote

import (
	"sync"
	"sync/atomic"

	"github.com/riskdesk/fi-risk-engine/internal/tenor"
)

// Quote is a mutable holder of one rate value for one tenor. Every Set
// bumps the owning vector's version so a curve built from the vector
// knows its cached discount factors are stale.
type Quote struct {
	mu      sync.RWMutex
	value   float64
	version *atomic.Uint64
}

// Value returns the current rate.
func (q *Quote) Value() float64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.value
}

// Set overwrites the current rate and invalidates derived curves.
func (q *Quote) Set(v float64) {
	q.mu.Lock()
	q.value = v
	q.mu.Unlock()
	if q.version != nil {
		q.version.Add(1)
	}
}

// Vector is the full set of quotes for the recognized tenors. There is
// exactly one Vector per worker process; it is owned by the curve builder
// and borrowed by the risk calculator during bump-and-reprice.
type Vector struct {
	quotes  map[tenor.Tenor]*Quote
	version atomic.Uint64
}

// NewVector creates a vector with every recognized tenor initialized to 0.
func NewVector() *Vector {
	v := &Vector{quotes: make(map[tenor.Tenor]*Quote, len(tenor.All))}
	for _, t := range tenor.All {
		v.quotes[t] = &Quote{version: &v.version}
	}
	return v
}

// Version returns a counter incremented by every quote mutation. A
// curve caches the version it was last calibrated against and refits
// lazily when the two diverge.
func (v *Vector) Version() uint64 {
	return v.version.Load()
}

// Get returns the quote for t, or nil if t is not recognized.
func (v *Vector) Get(t tenor.Tenor) *Quote {
	return v.quotes[t]
}

// Snapshot captures the current value of every recognized tenor, for
// restoration after a bump-and-reprice pass.
func (v *Vector) Snapshot() map[tenor.Tenor]float64 {
	out := make(map[tenor.Tenor]float64, len(v.quotes))
	for t, q := range v.quotes {
		out[t] = q.Value()
	}
	return out
}

// Restore writes back every value from a prior Snapshot.
func (v *Vector) Restore(snap map[tenor.Tenor]float64) {
	for t, val := range snap {
		if q, ok := v.quotes[t]; ok {
			q.Set(val)
		}
	}
}

// BumpAll adds delta to every recognized tenor's quote.
func (v *Vector) BumpAll(delta float64) {
	for _, q := range v.quotes {
		q.Set(q.Value() + delta)
	}
}

// Guard scopes a mutation of the quote vector with guaranteed restoration
// on every exit path, including a panic inside the pricer that runs between
// Bump and the deferred Restore. Callers use it as:
//
//	g := quotes.NewGuard()
//	defer g.Restore()
//	... mutate quotes, price, mutate again ...
type Guard struct {
	v    *Vector
	snap map[tenor.Tenor]float64
}

// NewGuard snapshots the vector's current state.
func (v *Vector) NewGuard() *Guard {
	return &Guard{v: v, snap: v.Snapshot()}
}

// Restore writes the snapshot back, undoing any mutation made since the
// guard was created. Safe to call from a defer even when the mutation
// panicked.
func (g *Guard) Restore() {
	g.v.Restore(g.snap)
}
