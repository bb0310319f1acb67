package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/scenario"
	"github.com/philipparndt/armeasure/internal/server"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

var (
	serveAddr  string
	pictureDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve [script]",
	Short: "Serve the command API for a scene",
	Long: `Serve replays the script to set up the scene and then exposes the session
over HTTP under /api/v1 while ticking it at the configured interval.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides ARMEASURE_HTTP_ADDR)")
	serveCmd.Flags().StringVar(&pictureDir, "pictures", "", "Directory pictures are written to")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine(ctx, args[0], cfg, db, logger)
	if err != nil {
		return err
	}
	defer e.session.Close()

	runner := scenario.NewRunner(e.script, e.world, e.session, cfg.TickInterval)
	if err := runner.Run(ctx, func(scenario.Event) {}); err != nil {
		return err
	}

	opts := server.Options{PictureDir: pictureDir, Logger: logger}
	if db != nil {
		opts.Storage = db
	}
	srv := server.New(e.session, opts)

	go tick(ctx, e, cfg.TickInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		errCh <- srv.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// tick drives the session from the viewport center until ctx is done
func tick(ctx context.Context, e *engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	vp := e.world.Viewport()
	center := geometry.NewVector2(vp.Width/2, vp.Height/2)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.session.Tick(now, center)
		}
	}
}
