// Package hit turns raw raycast candidates from a tracking provider into one
// validated and classified surface hit.
package hit

import (
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Target selects which surface representation a raycast runs against
type Target int

const (
	// TargetExistingPlaneGeometry hits the precise geometry of detected planes
	TargetExistingPlaneGeometry Target = iota
	// TargetEstimatedPlane hits planes the provider estimates but has not anchored
	TargetEstimatedPlane
	// TargetInfinitePlane extends detected planes infinitely
	TargetInfinitePlane
)

// passes is the order in which raycast targets are tried
var passes = []Target{
	TargetExistingPlaneGeometry,
	TargetEstimatedPlane,
	TargetInfinitePlane,
}

func (t Target) String() string {
	switch t {
	case TargetExistingPlaneGeometry:
		return "existing"
	case TargetEstimatedPlane:
		return "estimated"
	case TargetInfinitePlane:
		return "infinite"
	default:
		return "unknown"
	}
}

// Anchor is the plane anchor a candidate was found on
type Anchor struct {
	ID        string
	Alignment measurement.Alignment
}

// Candidate is one raycast result. Transform is the world transform of the hit.
type Candidate struct {
	Transform geometry.Matrix4
	Anchor    *Anchor
}

// Position returns the world position of the candidate
func (c Candidate) Position() geometry.Vector3 {
	return c.Transform.Position()
}

// Tracker is the spatial tracking provider
type Tracker interface {
	// Ready reports whether the provider produces frames
	Ready() bool
	// CameraTransform returns the camera pose of the current frame
	CameraTransform() (geometry.Matrix4, bool)
	// Raycast returns candidates for a viewport location, nearest first
	Raycast(query geometry.Vector2, target Target) []Candidate
}
