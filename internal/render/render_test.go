package render

import (
	"math"
	"testing"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

func TestScales(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(float64) float64
		d        float64
		expected float64
	}{
		{"sphere", SphereScale, 1, 1.0},
		{"sphere clamped", SphereScale, 10, 3.0},
		{"line", LineScale, 2, 2.1},
		{"line clamped", LineScale, 7, 4.5},
		{"text", TextScale, 1, 0.008},
		{"text clamped", TextScale, 4, 0.022},
	}

	for _, tt := range tests {
		if got := tt.fn(tt.d); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("%s failed: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestTargetColor(t *testing.T) {
	hit := &measurement.HitResult{Alignment: measurement.AlignmentVertical}

	if got := TargetColor(hit, nil); got != ColorVertical {
		t.Errorf("vertical failed: got %v", got)
	}
	if got := TargetColor(hit, measurement.ErrTooFar); got != ColorError {
		t.Errorf("too far failed: got %v", got)
	}
	if got := TargetColor(nil, measurement.ErrNoSurfaceFound); got != ColorError {
		t.Errorf("miss failed: got %v", got)
	}
	hit.IsSnappedToExisting = true
	if got := TargetColor(hit, nil); got != ColorSnapped {
		t.Errorf("snapped failed: got %v", got)
	}
}

func TestNewTarget(t *testing.T) {
	hit := &measurement.HitResult{
		Position:           geometry.NewVector3(0, 0, -1),
		DistanceFromCamera: 1,
		Alignment:          measurement.AlignmentHorizontal,
	}

	target := NewTarget(hit, nil, true, false)
	if !target.Visible || target.Position != hit.Position {
		t.Errorf("target failed: got %+v", target)
	}
	if target.Scale == nil || *target.Scale != 1.0 {
		t.Errorf("scale failed: got %v", target.Scale)
	}
	if target.Orientation != nil {
		t.Error("orientation must be omitted when not due")
	}

	if miss := NewTarget(nil, measurement.ErrNoSurfaceFound, true, true); miss.Visible || miss.Scale != nil {
		t.Errorf("miss target failed: got %+v", miss)
	}
}

func TestLines(t *testing.T) {
	g := measurement.NewGroup(geometry.NewVector3(-1, 0, -2), geometry.NewVector3(1, 0, -2), measurement.UnitMeters)
	lines := Lines([]measurement.Group{g}, geometry.NewVector3(0, 0, 0))

	if len(lines) != 1 || lines[0].Label != "2.00 m" {
		t.Fatalf("Lines failed: got %+v", lines)
	}
	if math.Abs(lines[0].LineScale-2.1) > 1e-10 {
		t.Errorf("line scale failed: expected 2.1, got %v", lines[0].LineScale)
	}
}
