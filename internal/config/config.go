// Package config loads the engine settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/philipparndt/armeasure/internal/hit"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/stability"
)

// Config holds every tunable of a measuring session
type Config struct {
	Units string `env:"ARMEASURE_UNITS" envDefault:"m"`

	MinDistanceCamera float64 `env:"ARMEASURE_MIN_DISTANCE_CAMERA" envDefault:"0.05"`
	MaxDistanceCamera float64 `env:"ARMEASURE_MAX_DISTANCE_CAMERA" envDefault:"1"`
	IntersectDistance float64 `env:"ARMEASURE_INTERSECT_DISTANCE" envDefault:"0.1"`

	CloseNodeTimeout  time.Duration `env:"ARMEASURE_CLOSE_NODE_TIMEOUT" envDefault:"800ms"`
	NodesScaleTimeout time.Duration `env:"ARMEASURE_NODES_SCALE_TIMEOUT" envDefault:"100ms"`
	DonutScaleTimeout time.Duration `env:"ARMEASURE_DONUT_SCALE_TIMEOUT" envDefault:"400ms"`

	TorchOnDelay  time.Duration `env:"ARMEASURE_TORCH_ON_DELAY" envDefault:"300ms"`
	TorchOffDelay time.Duration `env:"ARMEASURE_TORCH_OFF_DELAY" envDefault:"1s"`

	TickInterval time.Duration `env:"ARMEASURE_TICK_INTERVAL" envDefault:"33ms"`
	DBPath       string        `env:"ARMEASURE_DB_PATH"`
	HTTPAddr     string        `env:"ARMEASURE_HTTP_ADDR" envDefault:":3000"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration without any environment overrides
func Default() Config {
	var cfg Config
	// Only defaults are read, so parsing an empty environment cannot fail
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate rejects values the engine cannot work with
func (c Config) Validate() error {
	var errs []error
	if !measurement.Unit(c.Units).Valid() {
		errs = append(errs, fmt.Errorf("units must be m or ft, got %q", c.Units))
	}
	if c.MinDistanceCamera < 0 {
		errs = append(errs, fmt.Errorf("min distance must not be negative, got %v", c.MinDistanceCamera))
	}
	if c.MaxDistanceCamera <= c.MinDistanceCamera {
		errs = append(errs, fmt.Errorf("max distance %v must exceed min distance %v", c.MaxDistanceCamera, c.MinDistanceCamera))
	}
	if c.IntersectDistance < 0 {
		errs = append(errs, fmt.Errorf("intersect distance must not be negative, got %v", c.IntersectDistance))
	}
	for name, d := range map[string]time.Duration{
		"close node timeout":  c.CloseNodeTimeout,
		"nodes scale timeout": c.NodesScaleTimeout,
		"donut scale timeout": c.DonutScaleTimeout,
		"torch on delay":      c.TorchOnDelay,
		"torch off delay":     c.TorchOffDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", name, d))
		}
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %v", c.TickInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Unit returns the label unit
func (c Config) Unit() measurement.Unit {
	return measurement.Unit(c.Units)
}

// Hit returns the resolver limits
func (c Config) Hit() hit.Config {
	return hit.Config{
		MinDistanceCamera: c.MinDistanceCamera,
		MaxDistanceCamera: c.MaxDistanceCamera,
		IntersectDistance: c.IntersectDistance,
	}
}

// Stability returns the filter pacing
func (c Config) Stability() stability.Config {
	return stability.Config{
		CloseNodeTimeout:  c.CloseNodeTimeout,
		NodesScaleTimeout: c.NodesScaleTimeout,
		DonutScaleTimeout: c.DonutScaleTimeout,
	}
}
