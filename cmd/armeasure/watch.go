package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/pkg/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [script]",
	Short: "Replay a scene script every time it changes",
	Long: `Watch replays the script once and then again after every save. Each run
starts from an empty session; --db is ignored so that edits never pile up
measurements in the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Quiet period before a change triggers a replay")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.DBPath = ""

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w, err := watcher.New(watchDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(args[0]); err != nil {
		return err
	}

	run := func(path string) {
		if err := replay(ctx, cmd.OutOrStdout(), path, cfg, nil, logger); err != nil {
			logger.Printf("replay failed: %v", err)
		}
	}

	run(args[0])
	logger.Printf("watching %s", args[0])
	if err := w.Run(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
