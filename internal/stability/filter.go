// Package stability suppresses visual churn caused by tracking noise.
package stability

import (
	"time"

	"github.com/philipparndt/armeasure/internal/measurement"
)

// hysteresis is the relative movement below which a hit counts as unchanged
const hysteresis = 0.002

// Config holds the pacing parameters of the filter
type Config struct {
	CloseNodeTimeout  time.Duration // Hold time after snapping to an existing node
	NodesScaleTimeout time.Duration // Marker scale refresh interval
	DonutScaleTimeout time.Duration // Marker orientation refresh interval
}

// DefaultConfig returns the standard pacing
func DefaultConfig() Config {
	return Config{
		CloseNodeTimeout:  800 * time.Millisecond,
		NodesScaleTimeout: 100 * time.Millisecond,
		DonutScaleTimeout: 400 * time.Millisecond,
	}
}

// Filter decides whether a freshly resolved hit is a visible update. It
// remembers the last accepted resolution only.
type Filter struct {
	config Config

	hasPrev  bool
	prev     *measurement.HitResult
	prevKind measurement.Kind

	lastSnapChange time.Time

	// Scale and Orientation pace marker refreshes independently of Accept
	Scale       *Throttle
	Orientation *Throttle
}

// NewFilter creates a filter without history
func NewFilter(config Config) *Filter {
	return &Filter{
		config:      config,
		Scale:       NewThrottle(config.NodesScaleTimeout),
		Orientation: NewThrottle(config.DonutScaleTimeout),
	}
}

// Accept reports whether hit (with its resolution error) differs visibly from
// the last accepted one. Accepted results become the new reference.
func (f *Filter) Accept(now time.Time, hit *measurement.HitResult, err error) bool {
	kind := measurement.KindOf(err)

	if f.hasPrev && f.suppress(now, hit, kind) {
		return false
	}

	if snapped(hit) != snapped(f.prev) || !f.hasPrev {
		f.lastSnapChange = now
	}
	f.hasPrev = true
	f.prev = copyHit(hit)
	f.prevKind = kind
	return true
}

func (f *Filter) suppress(now time.Time, hit *measurement.HitResult, kind measurement.Kind) bool {
	if kind != f.prevKind {
		return false
	}

	switch {
	case hit == nil && f.prev == nil:
		return true
	case hit == nil || f.prev == nil:
		return false
	}

	if hit.Position.Distance(f.prev.Position) < hysteresis*hit.DistanceFromCamera {
		return true
	}
	if hit.IsSnappedToExisting && f.prev.IsSnappedToExisting &&
		now.Sub(f.lastSnapChange) < f.config.CloseNodeTimeout {
		return true
	}
	return false
}

// Reset forgets the last accepted resolution so the next one is always visible
func (f *Filter) Reset() {
	f.hasPrev = false
	f.prev = nil
	f.prevKind = measurement.KindNone
	f.lastSnapChange = time.Time{}
	f.Scale.Reset()
	f.Orientation.Reset()
}

// Last returns the last accepted hit, or nil
func (f *Filter) Last() *measurement.HitResult {
	return copyHit(f.prev)
}

func snapped(hit *measurement.HitResult) bool {
	return hit != nil && hit.IsSnappedToExisting
}

func copyHit(hit *measurement.HitResult) *measurement.HitResult {
	if hit == nil {
		return nil
	}
	c := *hit
	return &c
}
