package stability

import (
	"testing"
	"time"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func hitAt(x float64, distance float64, snapped bool) *measurement.HitResult {
	return &measurement.HitResult{
		Position:            geometry.NewVector3(x, 0, -distance),
		DistanceFromCamera:  distance,
		IsSnappedToExisting: snapped,
	}
}

func TestFilterAcceptsFirstResult(t *testing.T) {
	f := NewFilter(DefaultConfig())
	if !f.Accept(start, hitAt(0, 1, false), nil) {
		t.Error("first result must be accepted")
	}
}

func TestFilterHysteresis(t *testing.T) {
	f := NewFilter(DefaultConfig())
	distance := 1.5
	f.Accept(start, hitAt(0, distance, false), nil)

	if f.Accept(start.Add(time.Millisecond), hitAt(0.001*distance, distance, false), nil) {
		t.Error("movement of 0.001 x distance must be suppressed")
	}
	if !f.Accept(start.Add(2*time.Millisecond), hitAt(0.01*distance, distance, false), nil) {
		t.Error("movement of 0.01 x distance must be accepted")
	}
}

func TestFilterKeepsAcceptedReference(t *testing.T) {
	f := NewFilter(DefaultConfig())
	f.Accept(start, hitAt(0, 1, false), nil)

	// Each step is below the threshold, the accumulated drift is not
	f.Accept(start, hitAt(0.0015, 1, false), nil)
	if !f.Accept(start, hitAt(0.003, 1, false), nil) {
		t.Error("drift relative to the last accepted hit must be accepted")
	}
}

func TestFilterErrorKindChange(t *testing.T) {
	f := NewFilter(DefaultConfig())
	f.Accept(start, hitAt(0, 1, false), nil)

	if !f.Accept(start, hitAt(0, 1, false), measurement.ErrTooFar) {
		t.Error("a change of error state must be accepted")
	}
	if f.Accept(start, hitAt(0, 1, false), measurement.ErrTooFar) {
		t.Error("same error state and position must be suppressed")
	}
}

func TestFilterMissingHits(t *testing.T) {
	f := NewFilter(DefaultConfig())
	f.Accept(start, nil, measurement.ErrNoSurfaceFound)

	if f.Accept(start, nil, measurement.ErrNoSurfaceFound) {
		t.Error("repeated miss must be suppressed")
	}
	if !f.Accept(start, nil, measurement.ErrTooClose) {
		t.Error("different miss kind must be accepted")
	}
	if !f.Accept(start, hitAt(0, 1, false), nil) {
		t.Error("hit after miss must be accepted")
	}
}

func TestFilterCloseNodeTimeout(t *testing.T) {
	f := NewFilter(DefaultConfig())
	f.Accept(start, hitAt(0, 1, false), nil)

	if !f.Accept(start.Add(100*time.Millisecond), hitAt(0.5, 1, true), nil) {
		t.Fatal("snap transition must be accepted")
	}
	if f.Accept(start.Add(500*time.Millisecond), hitAt(0.8, 1, true), nil) {
		t.Error("snapped update within the close node timeout must be suppressed")
	}
	if !f.Accept(start.Add(1000*time.Millisecond), hitAt(0.8, 1, true), nil) {
		t.Error("snapped update after the close node timeout must be accepted")
	}
	if !f.Accept(start.Add(1010*time.Millisecond), hitAt(0.2, 1, false), nil) {
		t.Error("leaving the snapped state must be accepted")
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter(DefaultConfig())
	f.Accept(start, hitAt(0, 1, false), nil)
	f.Reset()

	if f.Last() != nil {
		t.Error("Reset must forget the last hit")
	}
	if !f.Accept(start, hitAt(0, 1, false), nil) {
		t.Error("identical hit after Reset must be accepted")
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(100 * time.Millisecond)

	if !th.Due(start) {
		t.Error("new throttle must be due")
	}
	if th.Due(start.Add(50 * time.Millisecond)) {
		t.Error("throttle must not be due within the interval")
	}
	if !th.Due(start.Add(100 * time.Millisecond)) {
		t.Error("throttle must be due after the interval")
	}
	th.Reset()
	if !th.Due(start.Add(101 * time.Millisecond)) {
		t.Error("throttle must be due after Reset")
	}
}
