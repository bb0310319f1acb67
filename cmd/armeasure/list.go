package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/internal/measurement"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored measurements and pictures",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errors.New("no database given, use --db or ARMEASURE_DB_PATH")
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	groups, err := db.LoadGroups(cmd.Context())
	if err != nil {
		return err
	}
	pictures, err := db.Pictures(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Measurements (%d)\n", len(groups))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLANE\tFROM\tTO\tDISTANCE\tLABEL")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f m\t%s\n",
			g.ID, planeOrDash(g), g.PointA, g.PointB, g.DistanceMeters, g.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nPictures (%d)\n", len(pictures))
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAKEN\tMEASUREMENTS\tVISIBLE\tPATH")
	for _, p := range pictures {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.TakenAt.Local().Format(time.DateTime), p.MeasurementCount, p.VisibleCount, p.Path)
	}
	return tw.Flush()
}

func planeOrDash(g measurement.Group) string {
	if g.PlaneID == "" {
		return "-"
	}
	return g.PlaneID
}
