package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/hit"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

const room = `
name: room
viewport: {width: 400, height: 300}
fov: 90
planes:
  - id: wall
    center: [0, 0.5, -2]
    normal: [0, 0, 1]
    width: 4
    height: 3
    alignment: vertical
  - id: floor
    center: [0, -1, -1]
    normal: [0, 1, 0]
    width: 2
    height: 2
    alignment: horizontal
`

func parse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return s
}

func TestParseDefaults(t *testing.T) {
	s := parse(t, "name: empty\n")
	if s.Viewport.Width != 390 || s.Viewport.Height != 844 || s.FOV != 60 {
		t.Errorf("defaults failed: got %+v fov %v", s.Viewport, s.FOV)
	}
}

func TestParseRejectsMalformedScripts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", "colour: red\n", "colour"},
		{"unknown command", "steps:\n  - do: jump\n", "unknown command"},
		{"unknown scope", "steps:\n  - do: clear\n    scope: some\n", "unknown scope"},
		{"duplicate plane", "planes:\n  - {id: a, normal: [0, 1, 0]}\n  - {id: a, normal: [0, 1, 0]}\n", "duplicate"},
		{"zero normal", "planes:\n  - {id: a}\n", "normal"},
		{"bad edge", "steps:\n  - do: add_plane\n    edges: [middle]\n", "unknown edge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWorldRaycastPasses(t *testing.T) {
	w := NewWorld(parse(t, room))
	center := geometry.NewVector2(200, 150)

	existing := w.Raycast(center, hit.TargetExistingPlaneGeometry)
	if len(existing) != 1 || existing[0].Anchor == nil || existing[0].Anchor.ID != "wall" {
		t.Fatalf("existing pass failed: got %+v", existing)
	}
	if p := existing[0].Position(); p.Distance(geometry.NewVector3(0, 0, -2)) > 1e-9 {
		t.Errorf("wall hit failed: got %v", p)
	}
	if a := hit.Classify(existing[0]); a != measurement.AlignmentVertical {
		t.Errorf("alignment failed: got %v", a)
	}

	// Turned left by 50 degrees the center ray leaves the wall extent at x = -2.38
	w.SetPose(Pose{Yaw: 50})
	if got := w.Raycast(center, hit.TargetExistingPlaneGeometry); len(got) != 0 {
		t.Errorf("existing pass should miss, got %+v", got)
	}
	estimated := w.Raycast(center, hit.TargetEstimatedPlane)
	if len(estimated) != 1 || estimated[0].Anchor != nil {
		t.Errorf("estimated pass failed: got %+v", estimated)
	}
	if got := w.Raycast(center, hit.TargetInfinitePlane); len(got) != 1 || got[0].Anchor.ID != "wall" {
		t.Errorf("infinite pass failed: got %+v", got)
	}
}

func TestWorldRaycastOrdersByDistance(t *testing.T) {
	w := NewWorld(parse(t, room))
	w.SetPose(Pose{Pitch: -45})

	got := w.Raycast(geometry.NewVector2(200, 150), hit.TargetInfinitePlane)
	if len(got) != 2 || got[0].Anchor.ID != "floor" {
		t.Fatalf("expected floor first, got %+v", got)
	}
	if p := got[0].Position(); p.Distance(geometry.NewVector3(0, -1, -1)) > 1e-9 {
		t.Errorf("floor hit failed: got %v", p)
	}
}

func TestWorldNotReady(t *testing.T) {
	w := NewWorld(parse(t, room))
	w.SetReady(false)
	if _, ok := w.CameraTransform(); ok || w.Ready() {
		t.Error("camera must be unknown while tracking is off")
	}
}

func TestRunnerReplaysSession(t *testing.T) {
	picturePath := filepath.Join(t.TempDir(), "room.png")
	src := room + `
steps:
  - aim: [0, 0, -1]
    do: add_point
  - aim: [1, 0, -1]
    do: add_point
  - do: add_plane
    plane_id: wall
    edges: [top, bottom]
    set_id: true
  - do: list
  - do: take_picture
    path: ` + picturePath + `
  - do: remove_plane
    plane_id: wall
  - do: remove_measurement
    id: "42"
`
	script := parse(t, src)
	world := NewWorld(script)
	cfg := config.Default()
	cfg.MaxDistanceCamera = 5
	s := session.New(session.Options{
		Config:   cfg,
		Tracker:  world,
		Renderer: world,
		Logger:   log.New(&bytes.Buffer{}, "", 0),
	})

	var events []Event
	runner := NewRunner(script, world, s, 33*time.Millisecond)
	if err := runner.Run(context.Background(), func(e Event) { events = append(events, e) }); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var commands []Event
	for _, e := range events {
		if e.Action != "tick" {
			commands = append(commands, e)
		}
	}
	if len(commands) != 7 {
		t.Fatalf("expected 7 command events, got %d", len(commands))
	}

	second := commands[1].Result.(session.AddPointResponse)
	if second.Measurement == nil || math.Abs(second.Measurement.Distance-1) > 1e-10 || second.Measurement.Label != "1.00 m" {
		t.Errorf("measurement failed: %+v", second.Measurement)
	}

	planeResp := commands[2].Result.(session.AddPlaneResponse)
	if planeResp.Error != nil || len(planeResp.Measurements) != 2 || !planeResp.Plane.Vertical {
		t.Errorf("add_plane failed: %+v", planeResp)
	}

	if list := commands[3].Result.([]measurement.MeasurementLine); len(list) != 3 {
		t.Errorf("list failed: expected 3, got %d", len(list))
	}

	pic := commands[4].Result.(session.PictureResponse)
	if pic.Error != nil || len(pic.Measurements) != 3 {
		t.Errorf("take_picture failed: %+v", pic)
	}
	if _, err := os.Stat(picturePath); err != nil {
		t.Errorf("picture not written: %v", err)
	}
	if !world.TransientVisible() {
		t.Error("transient markers must be visible again after the picture")
	}

	if removed := commands[5].Result.([]measurement.MeasurementLine); len(removed) != 2 {
		t.Errorf("remove_plane failed: removed %d", len(removed))
	}
	if removed := commands[6].Result.(*measurement.MeasurementLine); removed != nil {
		t.Errorf("remove_measurement of an absent id must be nil, got %+v", removed)
	}

	if _, err := json.Marshal(events); err != nil {
		t.Errorf("events must marshal: %v", err)
	}
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	script := parse(t, room+"steps:\n  - do: list\n")
	world := NewWorld(script)
	s := session.New(session.Options{Tracker: world, Logger: log.New(&bytes.Buffer{}, "", 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(script, world, s, time.Millisecond).Run(ctx, func(Event) {}); err == nil {
		t.Error("expected context error")
	}
}

func TestWorldSnapshotDrawsPlanes(t *testing.T) {
	world := NewWorld(parse(t, room))
	world.SetPose(Pose{Position: Vec{0, 0, 1}})

	img, err := world.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("Snapshot size failed: got %v", b)
	}

	wall := img.At(200, 150)
	floor := img.At(200, 290)
	corner := img.At(2, 2)
	if wall == background || floor == background {
		t.Errorf("planes not drawn: wall %v, floor %v", wall, floor)
	}
	if wall == floor {
		t.Errorf("wall and floor must differ, both %v", wall)
	}
	if corner != background {
		t.Errorf("empty area failed: expected %v, got %v", background, corner)
	}
}

func TestShadeDarkensWithDepth(t *testing.T) {
	near := shade(wallColor, 1)
	far := shade(wallColor, 5)
	if far.R >= near.R || near.R >= wallColor.R {
		t.Errorf("shade failed: %v, %v, %v", wallColor, near, far)
	}
}

func TestRunnerTickCarriesCommittedLines(t *testing.T) {
	script := parse(t, room+`
steps:
  - aim: [0, 0, -1]
    do: add_point
  - aim: [1, 0, -1]
    do: add_point
  - aim: [0.5, 0.5, -1]
`)
	world := NewWorld(script)
	cfg := config.Default()
	cfg.MaxDistanceCamera = 5
	s := session.New(session.Options{Config: cfg, Tracker: world, Logger: log.New(&bytes.Buffer{}, "", 0)})

	var last *TickResult
	err := NewRunner(script, world, s, 33*time.Millisecond).Run(context.Background(), func(e Event) {
		if r, ok := e.Result.(TickResult); ok {
			last = &r
		}
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if last == nil {
		t.Fatal("expected a visible tick")
	}
	if len(last.Lines) != 1 {
		t.Fatalf("lines failed: expected 1, got %d", len(last.Lines))
	}

	line := last.Lines[0]
	expectedScale := 0.5 + 0.8*math.Sqrt(1.25)
	if line.ID != "1" || line.Label != "1.00 m" || line.Color != "#ff8000" {
		t.Errorf("line failed: got %+v", line)
	}
	if line.From.X != 0 || line.To.X != 1 || math.Abs(line.LineScale-expectedScale) > 1e-10 {
		t.Errorf("line geometry failed: expected scale %v, got %+v", expectedScale, line)
	}
}
