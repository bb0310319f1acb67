package geometry

import (
	"math"
)

// nearPlane is the closest camera-space depth that still projects onto the screen
const nearPlane = 0.001

// PinholeCamera is a perspective camera described by its world transform.
// The camera looks down its local -Z axis with +Y up, matching the
// convention of mobile tracking providers.
type PinholeCamera struct {
	Transform Matrix4
	FOV       float64 // Vertical field of view in radians
}

// NewPinholeCamera creates a camera at the given pose
func NewPinholeCamera(transform Matrix4, fov float64) PinholeCamera {
	if fov <= 0 {
		fov = math.Pi / 3
	}
	return PinholeCamera{Transform: transform, FOV: fov}
}

// Position returns the camera position in world space
func (c PinholeCamera) Position() Vector3 {
	return c.Transform.Position()
}

// Project maps a world point to viewport coordinates. The second return value
// is false when the point lies behind the camera.
func (c PinholeCamera) Project(point Vector3, width, height float64) (Vector2, bool) {
	view, err := c.Transform.Inverse()
	if err != nil {
		return Vector2{}, false
	}
	local := view.TransformPoint(point)

	depth := -local.Z
	if depth <= nearPlane {
		return Vector2{}, false
	}

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	ndcX := local.X / (depth * fovScale * aspect)
	ndcY := local.Y / (depth * fovScale)

	return Vector2{
		X: ndcX*(width/2) + width/2,
		Y: -ndcY*(height/2) + height/2,
	}, true
}

// Ray returns the world-space ray through a viewport location
func (c PinholeCamera) Ray(location Vector2, width, height float64) (origin, direction Vector3) {
	ndcX := (2.0 * location.X / width) - 1.0
	ndcY := 1.0 - (2.0 * location.Y / height)

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	right := c.Transform.Column(0).Normalize()
	up := c.Transform.Column(1).Normalize()
	forward := c.Transform.Column(2).Normalize().Mul(-1)

	dir := forward.Add(right.Mul(ndcX * fovScale * aspect)).Add(up.Mul(ndcY * fovScale))
	return c.Position(), dir.Normalize()
}

// IntersectPlane intersects a ray with the infinite plane through point with
// the given normal. It returns the hit point and the distance along the ray.
func IntersectPlane(origin, direction, point, normal Vector3) (Vector3, float64, bool) {
	denom := normal.Dot(direction)
	if math.Abs(denom) < 1e-9 {
		return Vector3{}, 0, false
	}
	t := point.Sub(origin).Dot(normal) / denom
	if t < 0 {
		return Vector3{}, 0, false
	}
	return origin.Add(direction.Mul(t)), t, true
}
