// Package plane converts detected planes into corner geometry and edge
// measurements.
package plane

import (
	"math"

	"github.com/google/uuid"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

var (
	worldX  = geometry.NewVector3(1, 0, 0)
	worldUp = geometry.NewVector3(0, 1, 0)
	worldZ  = geometry.NewVector3(0, 0, 1)
)

// Provider lists the planes currently detected by the tracking provider
type Provider interface {
	Planes() []measurement.Plane
}

// Edges selects which plane edges become measurements
type Edges struct {
	Left   bool
	Top    bool
	Right  bool
	Bottom bool
}

// AllEdges selects the full outline
func AllEdges() Edges {
	return Edges{Left: true, Top: true, Right: true, Bottom: true}
}

// axes returns the unit width axis and the unit height axis of p. The height
// axis points from the top edge toward the bottom edge.
func axes(p measurement.Plane) (width, height geometry.Vector3) {
	if p.Orientation != nil {
		return p.Orientation.Column(0).Normalize(), p.Orientation.Column(2).Normalize()
	}

	if !p.Vertical() {
		return worldX, worldZ
	}

	width = worldUp.Cross(p.Normal)
	if width.Length() < 1e-9 {
		width = worldX
	}
	return width.Normalize(), worldUp.Mul(-1)
}

// Corners computes the four corners of the plane's extent
func Corners(p measurement.Plane) measurement.PlaneCorners {
	w, h := axes(p)
	halfW := w.Mul(p.ExtentWidth / 2)
	halfH := h.Mul(p.ExtentHeight / 2)

	return measurement.PlaneCorners{
		TopLeft:     p.Center.Sub(halfW).Sub(halfH),
		TopRight:    p.Center.Add(halfW).Sub(halfH),
		BottomLeft:  p.Center.Sub(halfW).Add(halfH),
		BottomRight: p.Center.Add(halfW).Add(halfH),
	}
}

// Info returns the plane together with its corners
func Info(p measurement.Plane) measurement.PlaneInfo {
	return measurement.PlaneInfo{Plane: p, Corners: Corners(p)}
}

// edge is one side of the outline as a pair of corners
type edge struct {
	a, b geometry.Vector3
}

func selectEdges(c measurement.PlaneCorners, e Edges) []edge {
	var out []edge
	if e.Left {
		out = append(out, edge{c.TopLeft, c.BottomLeft})
	}
	if e.Top {
		out = append(out, edge{c.TopLeft, c.TopRight})
	}
	if e.Right {
		out = append(out, edge{c.TopRight, c.BottomRight})
	}
	if e.Bottom {
		out = append(out, edge{c.BottomLeft, c.BottomRight})
	}
	return out
}

// Aggregator commits edge measurements of planes into a store
type Aggregator struct {
	store *store.Store
	unit  measurement.Unit
	newID func() string
}

// NewAggregator creates an aggregator that labels edges in unit
func NewAggregator(s *store.Store, unit measurement.Unit) *Aggregator {
	return &Aggregator{
		store: s,
		unit:  unit,
		newID: uuid.NewString,
	}
}

// Aggregate commits one group per requested edge of p. With setID the groups
// are tagged with planeID, or a fresh id when planeID is empty, so they can be
// removed together later. Without setID the groups carry no plane id.
func (a *Aggregator) Aggregate(p measurement.Plane, edges Edges, planeID string, setID bool) (measurement.PlaneInfo, []measurement.Group) {
	info := Info(p)

	tag := ""
	if setID {
		tag = planeID
		if tag == "" {
			tag = a.newID()
		}
	}

	var committed []measurement.Group
	for _, e := range selectEdges(info.Corners, edges) {
		g := measurement.NewGroup(e.a, e.b, a.unit)
		g.PlaneID = tag
		g.AlignmentA = p.Alignment
		g.AlignmentB = p.Alignment
		committed = append(committed, a.store.Add(g))
	}
	return info, committed
}

// AlignmentFilter restricts plane listings
type AlignmentFilter int

const (
	FilterAll AlignmentFilter = iota
	FilterVertical
	FilterHorizontal
)

// ParseAlignmentFilter accepts "all", "vertical" and "horizontal". Empty means all.
func ParseAlignmentFilter(s string) (AlignmentFilter, bool) {
	switch s {
	case "", "all":
		return FilterAll, true
	case "vertical":
		return FilterVertical, true
	case "horizontal":
		return FilterHorizontal, true
	default:
		return FilterAll, false
	}
}

func (f AlignmentFilter) matches(p measurement.Plane) bool {
	switch f {
	case FilterVertical:
		return p.Vertical()
	case FilterHorizontal:
		return !p.Vertical()
	default:
		return true
	}
}

// Filter returns planes whose width and height both reach minDimension and
// whose orientation passes the alignment filter
func Filter(planes []measurement.Plane, minDimension float64, alignment AlignmentFilter) []measurement.PlaneInfo {
	out := make([]measurement.PlaneInfo, 0, len(planes))
	for _, p := range planes {
		if math.Min(p.ExtentWidth, p.ExtentHeight) < minDimension {
			continue
		}
		if !alignment.matches(p) {
			continue
		}
		out = append(out, Info(p))
	}
	return out
}

// Find returns the plane with the given id
func Find(planes []measurement.Plane, id string) (measurement.Plane, bool) {
	for _, p := range planes {
		if p.ID == id {
			return p, true
		}
	}
	return measurement.Plane{}, false
}
