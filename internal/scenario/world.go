package scenario

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"

	"github.com/philipparndt/armeasure/internal/hit"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/internal/projection"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// estimatedMargin widens plane extents for the estimated plane pass
const estimatedMargin = 1.5

var background = color.RGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xff}

// World is a static scene of planes seen through a movable pinhole camera.
// It acts as tracking provider and scene renderer for a session.
type World struct {
	mu       sync.Mutex
	ready    bool
	camera   geometry.PinholeCamera
	viewport projection.Viewport
	planes   []measurement.Plane
	aim      *geometry.Vector3

	transientVisible bool
}

// NewWorld builds the scene of a script with the camera at the origin
func NewWorld(s *Script) *World {
	planes := make([]measurement.Plane, 0, len(s.Planes))
	for _, p := range s.Planes {
		planes = append(planes, p.Plane())
	}
	return &World{
		ready:            true,
		camera:           geometry.NewPinholeCamera(geometry.Identity(), s.FOV*math.Pi/180),
		viewport:         projection.Viewport{Width: s.Viewport.Width, Height: s.Viewport.Height},
		planes:           planes,
		transientVisible: true,
	}
}

// PoseTransform returns the camera transform for a pose
func PoseTransform(p Pose) geometry.Matrix4 {
	pos := p.Position
	rotation := geometry.RotationY(p.Yaw * math.Pi / 180).Mul(geometry.RotationX(p.Pitch * math.Pi / 180))
	return geometry.Translation(pos[0], pos[1], pos[2]).Mul(rotation)
}

// SetPose moves the camera
func (w *World) SetPose(p Pose) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.camera.Transform = PoseTransform(p)
}

// SetAim forces the raycast to return a single hit at point. Nil restores
// plane intersection.
func (w *World) SetAim(point *geometry.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.aim = point
}

// SetReady switches tracking on or off
func (w *World) SetReady(ready bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready = ready
}

// TransientVisible reports whether transient markers are shown
func (w *World) TransientVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transientVisible
}

// Ready implements hit.Tracker
func (w *World) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

// CameraTransform implements hit.Tracker
func (w *World) CameraTransform() (geometry.Matrix4, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.camera.Transform, w.ready
}

// Planes implements plane.Provider
func (w *World) Planes() []measurement.Plane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]measurement.Plane(nil), w.planes...)
}

// Raycast implements hit.Tracker. Existing geometry hits planes within their
// extent, estimated planes within a widened extent without an anchor, and
// infinite planes anywhere in front of the camera.
func (w *World) Raycast(query geometry.Vector2, target hit.Target) []hit.Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.aim != nil {
		if target != hit.TargetExistingPlaneGeometry {
			return nil
		}
		return []hit.Candidate{{Transform: surfaceTransform(*w.aim, geometry.NewVector3(0, 1, 0))}}
	}

	origin, dir := w.camera.Ray(query, w.viewport.Width, w.viewport.Height)

	type found struct {
		t float64
		c hit.Candidate
	}
	var hits []found
	for _, p := range w.planes {
		point, t, ok := geometry.IntersectPlane(origin, dir, p.Center, p.Normal)
		if !ok {
			continue
		}

		anchor := &hit.Anchor{ID: p.ID, Alignment: p.Alignment}
		switch target {
		case hit.TargetExistingPlaneGeometry:
			if !withinExtent(p, point, 1) {
				continue
			}
		case hit.TargetEstimatedPlane:
			if !withinExtent(p, point, estimatedMargin) {
				continue
			}
			anchor = nil
		}
		hits = append(hits, found{t: t, c: hit.Candidate{Transform: surfaceTransform(point, p.Normal), Anchor: anchor}})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	candidates := make([]hit.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, h.c)
	}
	return candidates
}

// withinExtent reports whether point lies inside the plane's rectangle scaled
// by margin
func withinExtent(p measurement.Plane, point geometry.Vector3, margin float64) bool {
	c := plane.Corners(p)
	widthAxis := c.TopRight.Sub(c.TopLeft)
	heightAxis := c.BottomLeft.Sub(c.TopLeft)
	offset := point.Sub(p.Center)

	if w := widthAxis.Length(); w > 0 {
		if math.Abs(offset.Dot(widthAxis)/w) > w/2*margin {
			return false
		}
	}
	if h := heightAxis.Length(); h > 0 {
		if math.Abs(offset.Dot(heightAxis)/h) > h/2*margin {
			return false
		}
	}
	return true
}

// surfaceTransform builds a hit transform whose Y axis is the surface normal
func surfaceTransform(point, normal geometry.Vector3) geometry.Matrix4 {
	y := normal.Normalize()
	ref := geometry.NewVector3(1, 0, 0)
	if math.Abs(y.X) > 0.9 {
		ref = geometry.NewVector3(0, 0, 1)
	}
	z := ref.Cross(y).Normalize()
	x := y.Cross(z)
	return geometry.FromColumns(x, y, z, point)
}

// SetTransientVisible implements session.Renderer
func (w *World) SetTransientVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transientVisible = visible
}

// Snapshot implements session.Renderer. Planes are drawn over a plain
// background; transient markers are never part of the frame.
func (w *World) Snapshot() (image.Image, error) {
	w.mu.Lock()
	vp := w.viewport
	camera := w.camera
	planes := append([]measurement.Plane(nil), w.planes...)
	w.mu.Unlock()

	f := newFrame(int(math.Round(vp.Width)), int(math.Round(vp.Height)))
	draw.Draw(f.img, f.img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	renderPlanes(f, camera, planes)
	return f.img, nil
}

// Viewport implements session.Renderer
func (w *World) Viewport() projection.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

// Project implements projection.Projector
func (w *World) Project(world geometry.Vector3, vp projection.Viewport) (geometry.Vector2, bool) {
	w.mu.Lock()
	camera := w.camera
	w.mu.Unlock()
	return camera.Project(world, vp.Width, vp.Height)
}
