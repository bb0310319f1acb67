package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/scenario"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/internal/storage/sqlite"
	"github.com/philipparndt/armeasure/internal/store"
)

// loadConfig reads the environment and applies flags the user set explicitly
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("units") {
		cfg.Units = units
	}
	if flags.Changed("max-distance") {
		cfg.MaxDistanceCamera = maxDistance
	}
	if flags.Changed("addr") {
		cfg.HTTPAddr = serveAddr
	}
	return cfg, cfg.Validate()
}

// engine is a scene script wired to a fresh session
type engine struct {
	script  *scenario.Script
	world   *scenario.World
	session *session.Session
}

// newEngine loads a script and builds a session on top of it. With db the
// store starts from the persisted measurements.
func newEngine(ctx context.Context, path string, cfg config.Config, db *sqlite.Store, logger *log.Logger) (*engine, error) {
	script, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	groups := store.New()
	if db != nil {
		saved, err := db.LoadGroups(ctx)
		if err != nil {
			return nil, err
		}
		groups.Restore(saved)
		logger.Printf("restored %d measurements from %s", len(saved), cfg.DBPath)
	}

	world := scenario.NewWorld(script)
	return &engine{
		script: script,
		world:  world,
		session: session.New(session.Options{
			Config:   cfg,
			Tracker:  world,
			Renderer: world,
			Torch:    &logTorch{logger: logger},
			Haptics:  &logHaptics{logger: logger},
			Listener: &logListener{logger: logger},
			Store:    groups,
			Logger:   logger,
		}),
	}, nil
}

// openDB opens the configured database, or returns nil when none is set
func openDB(cfg config.Config) (*sqlite.Store, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
