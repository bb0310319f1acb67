package hit

import (
	"fmt"
	"math"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Alignment thresholds on the vertical basis component of a hit transform
const (
	verticalThreshold   = 0.15
	horizontalThreshold = 0.85
)

// Config holds the distance limits of the resolver
type Config struct {
	MinDistanceCamera float64 // Closer hits are rejected
	MaxDistanceCamera float64 // Farther hits are still returned but flagged
	IntersectDistance float64 // Snap radius relative to the camera distance
}

// DefaultConfig returns the limits used by mobile measuring apps
func DefaultConfig() Config {
	return Config{
		MinDistanceCamera: 0.05,
		MaxDistanceCamera: 1,
		IntersectDistance: 0.1,
	}
}

// Resolver selects one hit per query from the tracker's candidates
type Resolver struct {
	tracker Tracker
	config  Config
}

// NewResolver creates a resolver on top of a tracking provider
func NewResolver(tracker Tracker, config Config) *Resolver {
	return &Resolver{tracker: tracker, config: config}
}

// Resolve runs the raycast passes for query and validates the selected hit.
// Endpoints of groups are snap targets. A TooFar hit is returned together with
// ErrTooFar; every other error comes with a nil result.
func (r *Resolver) Resolve(query geometry.Vector2, groups []measurement.Group) (*measurement.HitResult, error) {
	if !r.tracker.Ready() {
		return nil, measurement.ErrNotReady
	}

	camera, ok := r.tracker.CameraTransform()
	if !ok {
		return nil, measurement.ErrCameraUnknown
	}
	cameraPos := camera.Position()

	candidate, ok := r.raycast(query, cameraPos)
	if !ok {
		return nil, fmt.Errorf("%w: %w", measurement.ErrNoSurfaceFound, measurement.ErrDetectionFailed)
	}

	position := candidate.Position()
	result := &measurement.HitResult{
		Position:           position,
		DistanceFromCamera: cameraPos.Distance(position),
		Alignment:          Classify(candidate),
	}
	if candidate.Anchor != nil {
		result.SourceAnchorID = candidate.Anchor.ID
	}

	if snapped, ok := Snap(position, r.config.IntersectDistance*result.DistanceFromCamera, groups); ok {
		result.Position = snapped
		result.DistanceFromCamera = cameraPos.Distance(snapped)
		result.IsSnappedToExisting = true
	}

	if result.DistanceFromCamera < r.config.MinDistanceCamera {
		return nil, measurement.ErrTooClose
	}
	if result.DistanceFromCamera > r.config.MaxDistanceCamera {
		return result, measurement.ErrTooFar
	}
	return result, nil
}

// raycast tries the passes in order and selects a candidate from the first
// pass that yields any usable one
func (r *Resolver) raycast(query geometry.Vector2, cameraPos geometry.Vector3) (Candidate, bool) {
	for _, target := range passes {
		if c, ok := r.selectCandidate(r.tracker.Raycast(query, target), cameraPos); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

// selectCandidate prefers the first candidate at least MinDistanceCamera away
// and falls back to the first one overall
func (r *Resolver) selectCandidate(candidates []Candidate, cameraPos geometry.Vector3) (Candidate, bool) {
	var first *Candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Position().IsFinite() {
			continue
		}
		if first == nil {
			first = c
		}
		if cameraPos.Distance(c.Position()) >= r.config.MinDistanceCamera {
			return *c, true
		}
	}
	if first == nil {
		return Candidate{}, false
	}
	return *first, true
}

// Classify returns the anchor alignment when the candidate lies on an anchor,
// otherwise it derives one from the vertical basis of the hit transform
func Classify(c Candidate) measurement.Alignment {
	if c.Anchor != nil {
		return c.Anchor.Alignment
	}
	return ClassifyTransform(c.Transform)
}

// ClassifyTransform classifies by ry = |col1.y|
func ClassifyTransform(m geometry.Matrix4) measurement.Alignment {
	ry := math.Abs(m[1][1])
	switch {
	case ry <= verticalThreshold:
		return measurement.AlignmentVertical
	case ry >= horizontalThreshold:
		return measurement.AlignmentHorizontal
	default:
		return measurement.AlignmentNone
	}
}

// Snap returns the first stored endpoint within radius of position, scanning
// groups in order and pointA before pointB
func Snap(position geometry.Vector3, radius float64, groups []measurement.Group) (geometry.Vector3, bool) {
	for _, g := range groups {
		if position.Distance(g.PointA) <= radius {
			return g.PointA, true
		}
		if position.Distance(g.PointB) <= radius {
			return g.PointB, true
		}
	}
	return geometry.Vector3{}, false
}
