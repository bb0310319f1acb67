package scenario

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/plane"
	"github.com/philipparndt/armeasure/internal/render"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// tapRadius is how far from a label a tap still selects it, in points
const tapRadius = 44

// Event is the observable outcome of one script action
type Event struct {
	Step    int     `json:"step"`
	Action  string  `json:"action"`
	Error   *string `json:"error"`
	Visible *bool   `json:"visible,omitempty"`
	Result  any     `json:"result,omitempty"`
}

// TickResult summarises a visible tick
type TickResult struct {
	Position  measurement.Point `json:"position"`
	Color     string            `json:"color"`
	Scale     *float64          `json:"scale,omitempty"`
	Alignment string            `json:"alignment,omitempty"`
	Lines     []LineResult      `json:"lines"`
}

// LineResult is the rendering directive of one committed measurement
type LineResult struct {
	ID        string            `json:"id"`
	From      measurement.Point `json:"from"`
	To        measurement.Point `json:"to"`
	Label     string            `json:"label"`
	Color     string            `json:"color"`
	LineScale float64           `json:"lineScale"`
	TextScale float64           `json:"textScale"`
}

// Runner replays a script against a session
type Runner struct {
	Script  *Script
	World   *World
	Session *session.Session

	// Start is the clock value of the first tick, Interval the tick spacing
	Start    time.Time
	Interval time.Duration

	now time.Time
}

// NewRunner creates a runner that advances the clock by interval per tick
func NewRunner(script *Script, world *World, s *session.Session, interval time.Duration) *Runner {
	return &Runner{
		Script:   script,
		World:    world,
		Session:  s,
		Start:    time.Unix(0, 0).UTC(),
		Interval: interval,
	}
}

// Run executes every step in order and calls emit for each event. It stops
// early when ctx is done.
func (r *Runner) Run(ctx context.Context, emit func(Event)) error {
	r.now = r.Start
	for i, step := range r.Script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(i+1, step, emit); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *Runner) query(step Step) geometry.Vector2 {
	if step.Query != nil {
		return geometry.NewVector2(step.Query[0], step.Query[1])
	}
	vp := r.World.Viewport()
	return geometry.NewVector2(vp.Width/2, vp.Height/2)
}

func (r *Runner) step(n int, step Step, emit func(Event)) error {
	changed := false
	if step.Tracking != nil {
		r.World.SetReady(*step.Tracking)
		changed = true
	}
	if step.Camera != nil {
		r.World.SetPose(*step.Camera)
		changed = true
	}
	if step.Aim != nil {
		v := step.Aim.Vector()
		r.World.SetAim(&v)
		changed = true
	}

	ticks := step.Ticks
	if ticks == 0 && changed {
		ticks = 1
	}
	query := r.query(step)
	for i := 0; i < ticks; i++ {
		r.now = r.now.Add(r.Interval)
		target, visible := r.Session.Tick(r.now, query)
		ev := tickEvent(n, target, visible)
		if result, ok := ev.Result.(TickResult); ok {
			result.Lines = lineResults(r.Session.RenderLines())
			ev.Result = result
		}
		emit(ev)
	}

	if step.Do == "" {
		return nil
	}
	result, err := r.command(step, query)
	if err != nil {
		return err
	}
	emit(Event{Step: n, Action: step.Do, Error: errorOf(result), Result: result})
	return nil
}

func tickEvent(n int, target render.Target, visible bool) Event {
	e := Event{Step: n, Action: "tick", Visible: &visible, Error: measurement.Message(target.Err)}
	if !target.Visible {
		return e
	}

	result := TickResult{
		Position: toPoint(target.Position),
		Color:    hexColor(target.Color),
		Scale:    target.Scale,
	}
	if target.Orientation != nil {
		result.Alignment = target.Orientation.String()
	}
	e.Result = result
	return e
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func toPoint(v geometry.Vector3) measurement.Point {
	return measurement.Point{X: v.X, Y: v.Y, Z: v.Z}
}

// lineResults converts committed line directives for tick events
func lineResults(lines []render.Line) []LineResult {
	out := make([]LineResult, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineResult{
			ID:        l.ID,
			From:      toPoint(l.From),
			To:        toPoint(l.To),
			Label:     l.Label,
			Color:     hexColor(l.Color),
			LineScale: l.LineScale,
			TextScale: l.TextScale,
		})
	}
	return out
}

// errorOf lifts the error field out of command responses
func errorOf(result any) *string {
	switch r := result.(type) {
	case session.AddPointResponse:
		return r.Error
	case session.AddPlaneResponse:
		return r.Error
	case session.PictureResponse:
		return r.Error
	default:
		return nil
	}
}

func edgesOf(names []string) plane.Edges {
	if len(names) == 0 {
		return plane.AllEdges()
	}
	var e plane.Edges
	for _, name := range names {
		switch name {
		case "left":
			e.Left = true
		case "top":
			e.Top = true
		case "right":
			e.Right = true
		case "bottom":
			e.Bottom = true
		}
	}
	return e
}

func (r *Runner) command(step Step, query geometry.Vector2) (any, error) {
	s := r.Session
	scope, _ := measurement.ParseScope(step.Scope)

	switch step.Do {
	case DoAddPoint:
		return s.AddPoint(step.SetCurrent).Response(), nil
	case DoAddPlane:
		return s.AddPlane(session.PlaneRequest{
			PlaneID: step.PlaneID,
			Edges:   edgesOf(step.Edges),
			SetID:   step.SetID,
			Vibrate: step.Vibrate,
		}).Response(), nil
	case DoClear:
		return s.Clear(scope), nil
	case DoClearCurrent:
		s.ClearCurrent()
		return nil, nil
	case DoRemoveLast:
		return s.RemoveLast(scope), nil
	case DoRemoveMeasurement:
		return s.RemoveMeasurement(step.ID), nil
	case DoRemovePlane:
		return s.RemovePlane(step.PlaneID), nil
	case DoEdit:
		return s.EditMeasurement(step.ID, step.Text, step.ClearPlaneID), nil
	case DoList:
		return s.Measurements(), nil
	case DoPlanes:
		alignment, ok := plane.ParseAlignmentFilter(step.Alignment)
		if !ok {
			return nil, fmt.Errorf("unknown alignment %q", step.Alignment)
		}
		return s.Planes(step.MinDimension, alignment), nil
	case DoTakePicture:
		return s.TakePicture(step.Path).Response(), nil
	case DoTap:
		line, ok := s.Tap(query, tapRadius)
		if !ok {
			return nil, nil
		}
		return line, nil
	case DoInterrupt:
		s.Interrupt()
		return nil, nil
	case DoTorch:
		s.SetTorch(step.On)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command %q", step.Do)
	}
}
