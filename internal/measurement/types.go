package measurement

import (
	"math"

	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Alignment classifies the surface a point was anchored to
type Alignment int

const (
	AlignmentNone Alignment = iota
	AlignmentHorizontal
	AlignmentVertical
)

func (a Alignment) String() string {
	switch a {
	case AlignmentHorizontal:
		return "horizontal"
	case AlignmentVertical:
		return "vertical"
	default:
		return "none"
	}
}

// ParseAlignment accepts the names produced by String. Unknown names map to none.
func ParseAlignment(s string) Alignment {
	switch s {
	case "horizontal":
		return AlignmentHorizontal
	case "vertical":
		return AlignmentVertical
	default:
		return AlignmentNone
	}
}

// HitResult is one resolved surface hit. It is recomputed every tick and
// never persisted.
type HitResult struct {
	Position            geometry.Vector3
	DistanceFromCamera  float64
	Alignment           Alignment
	IsSnappedToExisting bool
	SourceAnchorID      string // Plane anchor the hit came from, empty if none
}

// Group is a committed measurement between two points. Only Label (and the
// plane tag, through an explicit edit) may change after creation.
type Group struct {
	ID             string
	PlaneID        string // Empty when the group did not come from a plane
	PointA         geometry.Vector3
	PointB         geometry.Vector3
	AlignmentA     Alignment
	AlignmentB     Alignment
	DistanceMeters float64
	Label          string
}

// NewGroup builds a group between two points with the distance derived from them.
// The id is assigned by the store.
func NewGroup(a, b geometry.Vector3, unit Unit) Group {
	distance := a.Distance(b)
	return Group{
		PointA:         a,
		PointB:         b,
		DistanceMeters: distance,
		Label:          FormatLabel(distance, unit),
	}
}

// Midpoint returns the point halfway between both endpoints
func (g Group) Midpoint() geometry.Vector3 {
	return g.PointA.Lerp(g.PointB, 0.5)
}

// Scope selects which groups a bulk operation touches
type Scope int

const (
	ScopeAll Scope = iota
	ScopePoints
	ScopePlanes
)

// ParseScope accepts "all", "points" and "planes". Empty means all.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "", "all":
		return ScopeAll, true
	case "points":
		return ScopePoints, true
	case "planes":
		return ScopePlanes, true
	default:
		return ScopeAll, false
	}
}

// Matches reports whether a group falls within the scope
func (s Scope) Matches(g Group) bool {
	switch s {
	case ScopePoints:
		return g.PlaneID == ""
	case ScopePlanes:
		return g.PlaneID != ""
	default:
		return true
	}
}

func (s Scope) String() string {
	switch s {
	case ScopePoints:
		return "points"
	case ScopePlanes:
		return "planes"
	default:
		return "all"
	}
}

// Plane describes a tracked planar surface
type Plane struct {
	ID           string
	Center       geometry.Vector3
	Normal       geometry.Vector3
	ExtentWidth  float64
	ExtentHeight float64
	Alignment    Alignment
	// Orientation is the anchor's world transform when the provider reports one.
	// Its local X axis spans the width and local Z axis spans the height.
	Orientation *geometry.Matrix4
}

// PlaneCorners are the four world-space corners of a plane's extent
type PlaneCorners struct {
	TopLeft     geometry.Vector3
	TopRight    geometry.Vector3
	BottomLeft  geometry.Vector3
	BottomRight geometry.Vector3
}

// PlaneInfo is a plane together with its computed corners
type PlaneInfo struct {
	Plane
	Corners PlaneCorners
}

// Vertical reports whether the plane is a wall-like surface. Unclassified
// planes count as vertical when their normal is closer to the horizon.
func (p Plane) Vertical() bool {
	switch p.Alignment {
	case AlignmentVertical:
		return true
	case AlignmentHorizontal:
		return false
	default:
		return math.Abs(p.Normal.Y) < 0.5
	}
}
