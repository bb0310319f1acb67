package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/version"
)

var (
	dbPath      string
	units       string
	maxDistance float64
)

var rootCmd = &cobra.Command{
	Use:   "armeasure",
	Short: "Replay, serve and inspect AR distance measurements",
	Long: `armeasure drives the measuring engine against scripted scenes.
A scene script describes planes, camera poses and the commands a user would
issue; the engine resolves hits, commits measurements and exports pictures
exactly as it does on a device.

Settings come from ARMEASURE_* environment variables and can be overridden
with flags.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database for measurements (overrides ARMEASURE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&units, "units", "", "Label units, m or ft (overrides ARMEASURE_UNITS)")
	rootCmd.PersistentFlags().Float64Var(&maxDistance, "max-distance", 0, "Maximum camera distance in meters (overrides ARMEASURE_MAX_DISTANCE_CAMERA)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
