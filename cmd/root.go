package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lisa",
	Short: "Local Moran's I cluster analysis for polygon data",
	Long:  "Computes Local Indicators of Spatial Association (LISA) over a shapefile attribute, classifies each unit as hotspot, coldspot, outlier, or non-significant, and writes GeoJSON, CSV, and a cluster map.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
