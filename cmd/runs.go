package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/lisa-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer func() { _ = runs.Close() }()

		recs, err := runs.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No runs recorded yet")
			return nil
		}

		fmt.Printf("%-10s %-12s %-6s %6s %5s %5s %5s %8s %-9s %s\n",
			"Field", "Contiguity", "Units", "Hot", "Cold", "Out", "NonS", "Duration", "Status", "Created At")
		fmt.Println(strings.Repeat("-", 92))

		for _, r := range recs {
			fmt.Printf("%-10s %-12s %-6d %6d %5d %5d %5d %6dms %-9s %s\n",
				r.Field, r.Contiguity, r.Units,
				r.Hotspots, r.Coldspots, r.Outliers, r.NonSig,
				r.DurationMs, string(r.Status), r.CreatedAt.Format("2006-01-02 15:04"))
		}

		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
