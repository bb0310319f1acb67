// Package render produces the directives a scene renderer needs to display
// the crosshair target and committed measurements.
package render

import (
	"image/color"
	"math"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Marker colours
var (
	ColorHorizontal  = color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
	ColorVertical    = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	ColorMeasurement = color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}
	ColorError       = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	ColorSnapped     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// SphereScale is the endpoint marker scale at camera distance d
func SphereScale(d float64) float64 {
	return 0.5 + 0.5*math.Min(d, 5)
}

// LineScale is the line thickness scale at camera distance d
func LineScale(d float64) float64 {
	return 0.5 + 0.8*math.Min(d, 5)
}

// TextScale is the label scale at camera distance d
func TextScale(d float64) float64 {
	return 0.001 + 0.007*math.Min(d, 3)
}

// AlignmentColor is the colour of a surface with the given alignment
func AlignmentColor(a measurement.Alignment) color.RGBA {
	switch a {
	case measurement.AlignmentHorizontal:
		return ColorHorizontal
	case measurement.AlignmentVertical:
		return ColorVertical
	default:
		return ColorMeasurement
	}
}

// TargetColor is the crosshair colour for a resolved hit. A usable hit that
// is too far still shows the error colour.
func TargetColor(hit *measurement.HitResult, err error) color.RGBA {
	switch {
	case hit == nil || err != nil:
		return ColorError
	case hit.IsSnappedToExisting:
		return ColorSnapped
	default:
		return AlignmentColor(hit.Alignment)
	}
}

// Target tells the renderer where and how to draw the crosshair target.
// Scale and Orientation are only set when their refresh is due.
type Target struct {
	Visible     bool
	Position    geometry.Vector3
	Color       color.RGBA
	Scale       *float64
	Orientation *measurement.Alignment
	Err         error
}

// NewTarget builds the directive for a hit. scaleDue and orientationDue come
// from the refresh throttles.
func NewTarget(hit *measurement.HitResult, err error, scaleDue, orientationDue bool) Target {
	t := Target{
		Visible: hit != nil,
		Color:   TargetColor(hit, err),
		Err:     err,
	}
	if hit == nil {
		return t
	}

	t.Position = hit.Position
	if scaleDue {
		s := SphereScale(hit.DistanceFromCamera)
		t.Scale = &s
	}
	if orientationDue {
		a := hit.Alignment
		t.Orientation = &a
	}
	return t
}

// Line describes one committed measurement for the renderer
type Line struct {
	ID        string
	From      geometry.Vector3
	To        geometry.Vector3
	Label     string
	Color     color.RGBA
	LineScale float64
	TextScale float64
}

// Lines returns directives for groups seen from cameraPos
func Lines(groups []measurement.Group, cameraPos geometry.Vector3) []Line {
	out := make([]Line, 0, len(groups))
	for _, g := range groups {
		d := cameraPos.Distance(g.Midpoint())
		out = append(out, Line{
			ID:        g.ID,
			From:      g.PointA,
			To:        g.PointB,
			Label:     g.Label,
			Color:     ColorMeasurement,
			LineScale: LineScale(d),
			TextScale: TextScale(d),
		})
	}
	return out
}
