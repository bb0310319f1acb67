package session

import (
	"fmt"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/picture"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/internal/projection"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// AddPointResult is the outcome of AddPoint
type AddPointResult struct {
	Err            error
	Measurement    *measurement.MeasurementLine
	CameraDistance *float64
}

// AddPlaneResult is the outcome of AddPlane
type AddPlaneResult struct {
	Err          error
	Measurements []measurement.MeasurementLine
	Plane        *measurement.ARPlane
}

// PictureResult is the outcome of TakePicture
type PictureResult struct {
	Err          error
	Measurements []measurement.MeasurementLine2D
}

// PlaneRequest selects a plane and the edges to measure on it
type PlaneRequest struct {
	PlaneID string // Empty means the plane under the crosshair
	Edges   plane.Edges
	SetID   bool // Tag the groups with a plane id for later bulk removal
	Vibrate bool
}

// AddPoint places a point at the cached hit. The first point becomes pending
// and only the camera distance is reported. The second one commits a
// measurement and, with setCurrent, starts the next one at the same spot.
// A hit that is too far is still used and ErrTooFar is reported with it.
func (s *Session) AddPoint(setCurrent bool) AddPointResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.cached
	if h == nil {
		return AddPointResult{Err: measurement.ErrNoSurfaceFound}
	}
	softErr := s.cachedErr
	s.dropCache()

	if s.pending == nil {
		s.pending = &pendingPoint{Position: h.Position, Alignment: h.Alignment}
		distance := h.DistanceFromCamera
		return AddPointResult{Err: softErr, CameraDistance: &distance}
	}

	g := measurement.NewGroup(s.pending.Position, h.Position, s.unit)
	g.AlignmentA = s.pending.Alignment
	g.AlignmentB = h.Alignment
	stored := s.store.Add(g)

	if setCurrent {
		s.pending = &pendingPoint{Position: h.Position, Alignment: h.Alignment}
	} else {
		s.pending = nil
	}

	line := measurement.ToLine(stored)
	return AddPointResult{Err: softErr, Measurement: &line}
}

// ClearCurrent discards the pending point
func (s *Session) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
}

// RemoveLast discards the pending point when scope covers points. Otherwise
// it removes the most recent group in scope; for planes every group of that
// plane goes.
func (s *Session) RemoveLast(scope measurement.Scope) []measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil && scope != measurement.ScopePlanes {
		s.pending = nil
		return nil
	}

	last, ok := s.store.Last(scope)
	if !ok {
		return nil
	}
	if scope == measurement.ScopePlanes {
		return measurement.ToLines(s.store.RemoveByPlane(last.PlaneID))
	}
	if removed := s.store.Remove(last.ID); removed != nil {
		return []measurement.MeasurementLine{measurement.ToLine(*removed)}
	}
	return nil
}

// Clear removes all groups in scope. Clearing points also drops the pending point.
func (s *Session) Clear(scope measurement.Scope) []measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope != measurement.ScopePlanes {
		s.pending = nil
	}
	return measurement.ToLines(s.store.Clear(scope))
}

// RemoveMeasurement removes one group. Unknown ids return nil.
func (s *Session) RemoveMeasurement(id string) *measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Remove(id)
	if removed == nil {
		return nil
	}
	line := measurement.ToLine(*removed)
	return &line
}

// RemovePlane removes every group tagged with planeID
func (s *Session) RemovePlane(planeID string) []measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return measurement.ToLines(s.store.RemoveByPlane(planeID))
}

// EditMeasurement relabels a group. Unknown ids return nil.
func (s *Session) EditMeasurement(id, text string, clearPlaneID bool) *measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.store.Edit(id, text, clearPlaneID)
	if updated == nil {
		return nil
	}
	line := measurement.ToLine(*updated)
	return &line
}

// AddPlane measures the requested edges of a detected plane
func (s *Session) AddPlane(req PlaneRequest) AddPlaneResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.Tracking {
		return AddPlaneResult{Err: measurement.ErrNotReady}
	}

	anchorID := req.PlaneID
	if anchorID == "" {
		if s.cached == nil {
			return AddPlaneResult{Err: measurement.ErrNoSurfaceFound}
		}
		anchorID = s.cached.SourceAnchorID
	}

	// An unknown plane is a no-op, like every other command on an absent id
	p, ok := plane.Find(s.tracker.Planes(), anchorID)
	if !ok {
		s.logger.Printf("session: plane %q not found", anchorID)
		return AddPlaneResult{}
	}

	info, groups := s.aggregator.Aggregate(p, req.Edges, req.PlaneID, req.SetID)
	if req.Vibrate {
		s.vibrate()
	}

	ar := measurement.ToARPlane(info)
	return AddPlaneResult{
		Measurements: measurement.ToLines(groups),
		Plane:        &ar,
	}
}

func (s *Session) vibrate() {
	if s.haptics == nil {
		return
	}
	if err := s.haptics.Vibrate(); err != nil {
		s.logger.Printf("session: failed to vibrate: %v", err)
	}
}

// Measurements returns all committed measurements in insertion order
func (s *Session) Measurements() []measurement.MeasurementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return measurement.ToLines(s.store.List())
}

// Planes lists detected planes whose width and height reach minDimension
func (s *Session) Planes(minDimension float64, alignment plane.AlignmentFilter) []measurement.ARPlane {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.Tracking {
		return []measurement.ARPlane{}
	}

	infos := plane.Filter(s.tracker.Planes(), minDimension, alignment)
	out := make([]measurement.ARPlane, 0, len(infos))
	for _, info := range infos {
		out = append(out, measurement.ToARPlane(info))
	}
	return out
}

// TakePicture captures the scene without transient markers, annotates it with
// the projected measurements and writes it to path as PNG
func (s *Session) TakePicture(path string) PictureResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer == nil {
		return PictureResult{Err: fmt.Errorf("%w: no renderer", measurement.ErrExportFailed)}
	}

	s.renderer.SetTransientVisible(false)
	defer s.renderer.SetTransientVisible(true)

	img, err := s.renderer.Snapshot()
	if err != nil {
		return PictureResult{Err: fmt.Errorf("%w: %w", measurement.ErrExportFailed, err)}
	}

	lines := projection.Project(s.store.List(), s.renderer.Viewport(), s.renderer)
	if err := picture.WritePNG(path, picture.Annotate(img, lines)); err != nil {
		return PictureResult{Err: err}
	}
	return PictureResult{Measurements: lines}
}

// Tap reports the measurement whose label is under location, if any
func (s *Session) Tap(location geometry.Vector2, radius float64) (measurement.MeasurementLine2D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer == nil {
		return measurement.MeasurementLine2D{}, false
	}

	lines := projection.Project(s.store.List(), s.renderer.Viewport(), s.renderer)
	line, ok := projection.Hit(lines, location, radius)
	if ok {
		s.status.TextTap(line, location)
	}
	return line, ok
}
