// Package projection flattens stored measurements into viewport coordinates.
package projection

import (
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Viewport is the size of the rendered view in points
type Viewport struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies inside [0, width] x [0, height]
func (v Viewport) Contains(p geometry.Vector2) bool {
	return p.X >= 0 && p.X <= v.Width && p.Y >= 0 && p.Y <= v.Height
}

// Projector maps a world point into the viewport. It returns false for points
// behind the camera.
type Projector interface {
	Project(world geometry.Vector3, vp Viewport) (geometry.Vector2, bool)
}

// CameraProjector projects through a pinhole camera
type CameraProjector struct {
	Camera geometry.PinholeCamera
}

// Project implements Projector
func (c CameraProjector) Project(world geometry.Vector3, vp Viewport) (geometry.Vector2, bool) {
	return c.Camera.Project(world, vp.Width, vp.Height)
}

// Project flattens every group. Identity, distance, label and bounds are always
// set; an endpoint is only present when it projects inside the viewport.
func Project(groups []measurement.Group, vp Viewport, projector Projector) []measurement.MeasurementLine2D {
	lines := make([]measurement.MeasurementLine2D, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, measurement.MeasurementLine2D{
			ID:       g.ID,
			PlaneID:  g.PlaneID,
			Distance: g.DistanceMeters,
			Label:    g.Label,
			Bounds:   measurement.Bounds{Width: vp.Width, Height: vp.Height},
			Node1:    projectNode(g.PointA, g.AlignmentA, vp, projector),
			Node2:    projectNode(g.PointB, g.AlignmentB, vp, projector),
		})
	}
	return lines
}

func projectNode(p geometry.Vector3, a measurement.Alignment, vp Viewport, projector Projector) *measurement.Node2D {
	screen, ok := projector.Project(p, vp)
	if !ok || !vp.Contains(screen) {
		return nil
	}
	return &measurement.Node2D{X: screen.X, Y: screen.Y, A: a}
}

// LabelPosition returns where the label of a projected line sits: the midpoint
// of both nodes, or the only visible node
func LabelPosition(l measurement.MeasurementLine2D) (geometry.Vector2, bool) {
	switch {
	case l.Node1 != nil && l.Node2 != nil:
		return geometry.NewVector2((l.Node1.X+l.Node2.X)/2, (l.Node1.Y+l.Node2.Y)/2), true
	case l.Node1 != nil:
		return geometry.NewVector2(l.Node1.X, l.Node1.Y), true
	case l.Node2 != nil:
		return geometry.NewVector2(l.Node2.X, l.Node2.Y), true
	default:
		return geometry.Vector2{}, false
	}
}

// Hit returns the line whose label is nearest to location, within radius
func Hit(lines []measurement.MeasurementLine2D, location geometry.Vector2, radius float64) (measurement.MeasurementLine2D, bool) {
	var best measurement.MeasurementLine2D
	bestDistance := radius
	found := false
	for _, l := range lines {
		pos, ok := LabelPosition(l)
		if !ok {
			continue
		}
		if d := pos.Distance(location); d <= bestDistance {
			best, bestDistance, found = l, d, true
		}
	}
	return best, found
}
