package measurement

import (
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Node is a 3D endpoint on the wire. A is the numeric alignment.
type Node struct {
	X float64   `json:"x"`
	Y float64   `json:"y"`
	Z float64   `json:"z"`
	A Alignment `json:"a"`
}

// Node2D is a projected endpoint on the wire
type Node2D struct {
	X float64   `json:"x"`
	Y float64   `json:"y"`
	A Alignment `json:"a"`
}

// Point is a plain 3D coordinate on the wire
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Bounds is the viewport size a 2D measurement was projected into
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MeasurementLine is the external shape of a Group
type MeasurementLine struct {
	ID       string  `json:"id"`
	PlaneID  string  `json:"planeId"`
	Node1    Node    `json:"node1"`
	Node2    Node    `json:"node2"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label"`
}

// MeasurementLine2D is a group projected into a screenshot. Endpoints outside
// the viewport are omitted, not null.
type MeasurementLine2D struct {
	ID       string  `json:"id"`
	PlaneID  string  `json:"planeId"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label"`
	Bounds   Bounds  `json:"bounds"`
	Node1    *Node2D `json:"node1,omitempty"`
	Node2    *Node2D `json:"node2,omitempty"`
}

// ARPlane is the external shape of a PlaneInfo. X, Y, Z is the top left
// corner, the origin of the plane's extent.
type ARPlane struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	NX          float64 `json:"nx"`
	NY          float64 `json:"ny"`
	NZ          float64 `json:"nz"`
	TopLeft     Point   `json:"topLeft"`
	TopRight    Point   `json:"topRight"`
	BottomLeft  Point   `json:"bottomLeft"`
	BottomRight Point   `json:"bottomRight"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Vertical    bool    `json:"vertical"`
}

func toPoint(v geometry.Vector3) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

func toNode(v geometry.Vector3, a Alignment) Node {
	return Node{X: v.X, Y: v.Y, Z: v.Z, A: a}
}

func (n Node) vector() geometry.Vector3 {
	return geometry.NewVector3(n.X, n.Y, n.Z)
}

// ToLine converts a group into its wire shape
func ToLine(g Group) MeasurementLine {
	return MeasurementLine{
		ID:       g.ID,
		PlaneID:  g.PlaneID,
		Node1:    toNode(g.PointA, g.AlignmentA),
		Node2:    toNode(g.PointB, g.AlignmentB),
		Distance: g.DistanceMeters,
		Label:    g.Label,
	}
}

// ToLines converts groups in order
func ToLines(groups []Group) []MeasurementLine {
	lines := make([]MeasurementLine, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, ToLine(g))
	}
	return lines
}

// FromLine converts a wire line back into a group. The distance is taken
// verbatim so that a round trip never changes it.
func FromLine(l MeasurementLine) Group {
	return Group{
		ID:             l.ID,
		PlaneID:        l.PlaneID,
		PointA:         l.Node1.vector(),
		PointB:         l.Node2.vector(),
		AlignmentA:     l.Node1.A,
		AlignmentB:     l.Node2.A,
		DistanceMeters: l.Distance,
		Label:          l.Label,
	}
}

// ToARPlane converts a plane into its wire shape
func ToARPlane(p PlaneInfo) ARPlane {
	return ARPlane{
		ID:          p.ID,
		X:           p.Corners.TopLeft.X,
		Y:           p.Corners.TopLeft.Y,
		Z:           p.Corners.TopLeft.Z,
		NX:          p.Normal.X,
		NY:          p.Normal.Y,
		NZ:          p.Normal.Z,
		TopLeft:     toPoint(p.Corners.TopLeft),
		TopRight:    toPoint(p.Corners.TopRight),
		BottomLeft:  toPoint(p.Corners.BottomLeft),
		BottomRight: toPoint(p.Corners.BottomRight),
		Width:       p.ExtentWidth,
		Height:      p.ExtentHeight,
		Vertical:    p.Vertical(),
	}
}
