package scenario

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

var (
	wallColor  = color.RGBA{R: 0xc8, G: 0xb8, B: 0x9a, A: 0xff}
	floorColor = color.RGBA{R: 0x7a, G: 0x8c, B: 0xa8, A: 0xff}
	edgeColor  = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// vertex is a projected point with its camera-space depth
type vertex struct {
	x, y, depth float64
}

// frame is a color buffer with a depth buffer of the same size
type frame struct {
	img   *image.RGBA
	depth []float64
}

func newFrame(width, height int) *frame {
	depth := make([]float64, width*height)
	for i := range depth {
		depth[i] = math.Inf(1)
	}
	return &frame{img: image.NewRGBA(image.Rect(0, 0, width, height)), depth: depth}
}

// plot writes col when depth is nearer than what the pixel already holds
func (f *frame) plot(x, y int, depth float64, col color.RGBA) {
	b := f.img.Bounds()
	if x < 0 || y < 0 || x >= b.Max.X || y >= b.Max.Y {
		return
	}
	idx := y*b.Max.X + x
	if depth < f.depth[idx] {
		f.depth[idx] = depth
		f.img.SetRGBA(x, y, col)
	}
}

// fillTriangle rasterizes a triangle over its bounding box using edge
// functions, interpolating depth barycentrically
func (f *frame) fillTriangle(a, b, c vertex, col color.RGBA) {
	area := edge(a, b, c.x, c.y)
	if math.Abs(area) < 1e-9 {
		return
	}

	bounds := f.img.Bounds()
	minX := int(math.Max(0, math.Floor(math.Min(a.x, math.Min(b.x, c.x)))))
	maxX := int(math.Min(float64(bounds.Max.X-1), math.Ceil(math.Max(a.x, math.Max(b.x, c.x)))))
	minY := int(math.Max(0, math.Floor(math.Min(a.y, math.Min(b.y, c.y)))))
	maxY := int(math.Min(float64(bounds.Max.Y-1), math.Ceil(math.Max(a.y, math.Max(b.y, c.y)))))

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(b, c, px, py) / area
			w1 := edge(c, a, px, py) / area
			w2 := edge(a, b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			f.plot(x, y, w0*a.depth+w1*b.depth+w2*c.depth, col)
		}
	}
}

// drawLine walks from a to b with Bresenham steps. A small depth bias keeps
// outlines on top of the faces they border.
func (f *frame) drawLine(a, b vertex, col color.RGBA) {
	x0, y0 := int(math.Round(a.x)), int(math.Round(a.y))
	x1, y1 := int(math.Round(b.x)), int(math.Round(b.y))

	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := math.Max(float64(dx), float64(-dy))

	err := dx + dy
	for i := 0.0; ; i++ {
		t := 0.0
		if steps > 0 {
			t = i / steps
		}
		f.plot(x0, y0, a.depth+t*(b.depth-a.depth)-0.01, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func edge(a, b vertex, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// shade darkens col with distance from the camera
func shade(col color.RGBA, depth float64) color.RGBA {
	k := 1 / (1 + 0.15*depth)
	return color.RGBA{
		R: uint8(float64(col.R) * k),
		G: uint8(float64(col.G) * k),
		B: uint8(float64(col.B) * k),
		A: col.A,
	}
}

// renderPlanes draws every plane fully in front of the camera as a shaded
// quad with an outline
func renderPlanes(f *frame, camera geometry.PinholeCamera, planes []measurement.Plane) {
	view, err := camera.Transform.Inverse()
	if err != nil {
		return
	}
	b := f.img.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())

	project := func(p geometry.Vector3) (vertex, bool) {
		screen, ok := camera.Project(p, width, height)
		if !ok {
			return vertex{}, false
		}
		return vertex{x: screen.X, y: screen.Y, depth: -view.TransformPoint(p).Z}, true
	}

	for _, p := range planes {
		c := plane.Corners(p)
		var quad [4]vertex
		visible := true
		for i, corner := range []geometry.Vector3{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft} {
			v, ok := project(corner)
			if !ok {
				visible = false
				break
			}
			quad[i] = v
		}
		if !visible {
			continue
		}

		base := floorColor
		if p.Vertical() {
			base = wallColor
		}
		centerDepth := -view.TransformPoint(p.Center).Z
		col := shade(base, centerDepth)

		f.fillTriangle(quad[0], quad[1], quad[2], col)
		f.fillTriangle(quad[0], quad[2], quad[3], col)
		for i := range quad {
			f.drawLine(quad[i], quad[(i+1)%4], edgeColor)
		}
	}
}
