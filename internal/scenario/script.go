// Package scenario replays recorded measuring sessions from YAML scripts. A
// script describes the detected planes, camera poses and the commands a user
// issued; the package provides the tracker and renderer the session runs on.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// Vec is a point or direction written as [x, y, z]
type Vec [3]float64

// Vector converts to geometry
func (v Vec) Vector() geometry.Vector3 {
	return geometry.NewVector3(v[0], v[1], v[2])
}

// Script is a recorded session
type Script struct {
	Name     string      `yaml:"name"`
	Viewport Viewport    `yaml:"viewport"`
	FOV      float64     `yaml:"fov"` // Vertical field of view in degrees
	Planes   []PlaneSpec `yaml:"planes"`
	Steps    []Step      `yaml:"steps"`
}

// Viewport is the screen size in points
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PlaneSpec is a detected plane
type PlaneSpec struct {
	ID        string  `yaml:"id"`
	Center    Vec     `yaml:"center"`
	Normal    Vec     `yaml:"normal"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	Alignment string  `yaml:"alignment"`
}

// Plane converts to the measurement model
func (p PlaneSpec) Plane() measurement.Plane {
	return measurement.Plane{
		ID:           p.ID,
		Center:       p.Center.Vector(),
		Normal:       p.Normal.Vector().Normalize(),
		ExtentWidth:  p.Width,
		ExtentHeight: p.Height,
		Alignment:    measurement.ParseAlignment(p.Alignment),
	}
}

// Pose is a camera pose. Yaw turns left around world Y, pitch tilts up.
type Pose struct {
	Position Vec     `yaml:"position"`
	Yaw      float64 `yaml:"yaw"`   // Degrees
	Pitch    float64 `yaml:"pitch"` // Degrees
}

// Step is one entry of a script. Camera, Aim and Tracking change the world;
// Ticks runs the hit pipeline; Do issues a command.
type Step struct {
	Camera   *Pose       `yaml:"camera"`
	Aim      *Vec        `yaml:"aim"`      // Forces a single raycast hit at this point
	Tracking *bool       `yaml:"tracking"` // Switches the tracker on or off
	Query    *[2]float64 `yaml:"query"`    // Screen location, viewport center by default
	Ticks    int         `yaml:"ticks"`

	Do           string   `yaml:"do"`
	SetCurrent   bool     `yaml:"set_current"`
	Scope        string   `yaml:"scope"`
	ID           string   `yaml:"id"`
	Text         string   `yaml:"text"`
	ClearPlaneID bool     `yaml:"clear_plane_id"`
	PlaneID      string   `yaml:"plane_id"`
	Edges        []string `yaml:"edges"`
	SetID        bool     `yaml:"set_id"`
	Vibrate      bool     `yaml:"vibrate"`
	MinDimension float64  `yaml:"min"`
	Alignment    string   `yaml:"alignment"`
	Path         string   `yaml:"path"`
	On           bool     `yaml:"on"`
}

// Commands understood in Step.Do
const (
	DoAddPoint          = "add_point"
	DoAddPlane          = "add_plane"
	DoClear             = "clear"
	DoClearCurrent      = "clear_current"
	DoRemoveLast        = "remove_last"
	DoRemoveMeasurement = "remove_measurement"
	DoRemovePlane       = "remove_plane"
	DoEdit              = "edit"
	DoList              = "list"
	DoPlanes            = "planes"
	DoTakePicture       = "take_picture"
	DoTap               = "tap"
	DoInterrupt         = "interrupt"
	DoTorch             = "torch"
)

var knownCommands = map[string]bool{
	DoAddPoint: true, DoAddPlane: true, DoClear: true, DoClearCurrent: true,
	DoRemoveLast: true, DoRemoveMeasurement: true, DoRemovePlane: true,
	DoEdit: true, DoList: true, DoPlanes: true, DoTakePicture: true,
	DoTap: true, DoInterrupt: true, DoTorch: true,
}

// Load reads and validates a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return script, nil
}

// Parse decodes a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var script Script
	if err := dec.Decode(&script); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	script.applyDefaults()
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

func (s *Script) applyDefaults() {
	if s.Viewport.Width == 0 {
		s.Viewport.Width = 390
	}
	if s.Viewport.Height == 0 {
		s.Viewport.Height = 844
	}
	if s.FOV == 0 {
		s.FOV = 60
	}
}

// Validate reports the first malformed entry
func (s *Script) Validate() error {
	if s.Viewport.Width < 0 || s.Viewport.Height < 0 {
		return fmt.Errorf("viewport must not be negative")
	}
	if s.FOV <= 0 || s.FOV >= 180 {
		return fmt.Errorf("fov must be within (0, 180), got %v", s.FOV)
	}

	ids := make(map[string]bool)
	for i, p := range s.Planes {
		if p.ID == "" {
			return fmt.Errorf("plane %d: id is required", i)
		}
		if ids[p.ID] {
			return fmt.Errorf("plane %d: duplicate id %q", i, p.ID)
		}
		ids[p.ID] = true
		if p.Normal.Vector().Length() == 0 {
			return fmt.Errorf("plane %q: normal must not be zero", p.ID)
		}
		if p.Width < 0 || p.Height < 0 {
			return fmt.Errorf("plane %q: extent must not be negative", p.ID)
		}
	}

	for i, step := range s.Steps {
		if step.Do != "" && !knownCommands[step.Do] {
			return fmt.Errorf("step %d: unknown command %q", i+1, step.Do)
		}
		if step.Ticks < 0 {
			return fmt.Errorf("step %d: ticks must not be negative", i+1)
		}
		if _, ok := measurement.ParseScope(step.Scope); !ok {
			return fmt.Errorf("step %d: unknown scope %q", i+1, step.Scope)
		}
		for _, e := range step.Edges {
			switch e {
			case "left", "top", "right", "bottom":
			default:
				return fmt.Errorf("step %d: unknown edge %q", i+1, e)
			}
		}
	}
	return nil
}
