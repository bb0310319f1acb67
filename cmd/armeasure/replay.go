package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/scenario"
	"github.com/philipparndt/armeasure/internal/session"
	"github.com/philipparndt/armeasure/internal/storage/sqlite"
)

var quietTicks bool

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Run a scene script and print every event as JSON",
	Long: `Replay executes the steps of a scene script against a fresh session and
writes one JSON object per tick and command to stdout. With --db the session
starts from the stored measurements and the final state is saved back.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&quietTicks, "quiet", "q", false, "Only print command events")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	return replay(ctx, cmd.OutOrStdout(), args[0], cfg, db, logger)
}

// replay runs one script to completion. db may be nil.
func replay(ctx context.Context, out io.Writer, path string, cfg config.Config, db *sqlite.Store, logger *log.Logger) error {
	e, err := newEngine(ctx, path, cfg, db, logger)
	if err != nil {
		return err
	}
	defer e.session.Close()

	enc := json.NewEncoder(out)
	var encodeErr error
	runner := scenario.NewRunner(e.script, e.world, e.session, cfg.TickInterval)
	err = runner.Run(ctx, func(ev scenario.Event) {
		if db != nil && ev.Action == scenario.DoTakePicture {
			recordPicture(ctx, db, e.script, ev, logger)
		}
		if quietTicks && ev.Action == "tick" {
			return
		}
		if err := enc.Encode(ev); err != nil && encodeErr == nil {
			encodeErr = err
		}
	})
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	if encodeErr != nil {
		return fmt.Errorf("write events: %w", encodeErr)
	}

	if db != nil {
		if err := db.SaveGroups(ctx, e.session.Store().List()); err != nil {
			return err
		}
		logger.Printf("saved %d measurements to %s", e.session.Store().Len(), cfg.DBPath)
	}
	return nil
}

func recordPicture(ctx context.Context, db *sqlite.Store, script *scenario.Script, ev scenario.Event, logger *log.Logger) {
	pic, ok := ev.Result.(session.PictureResponse)
	if !ok || pic.Error != nil {
		return
	}
	path := script.Steps[ev.Step-1].Path
	if err := db.RecordPicture(ctx, path, time.Now(), pic.Measurements); err != nil {
		logger.Printf("failed to record picture %s: %v", path, err)
	}
}
