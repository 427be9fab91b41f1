package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
	"github.com/sells-group/lisa-cli/internal/moran"
	"github.com/sells-group/lisa-cli/internal/render"
	"github.com/sells-group/lisa-cli/internal/shapeio"
	"github.com/sells-group/lisa-cli/internal/store"
	"github.com/sells-group/lisa-cli/internal/weights"
)

var runCmd = &cobra.Command{
	Use:   "run <source> <field> <queen|rook>",
	Short: "Run LISA analysis on a shapefile attribute",
	Long: `Reads polygon units from a shapefile (or zipped shapefile), computes Local
Moran's I for the given attribute field under the chosen contiguity rule,
infers significance by conditional permutation, and writes three artifacts:
a GeoJSON file (geometry preserved), a CSV file (geometry dropped), and a
cluster map image.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, field := args[0], args[1]

		rule, err := weights.ParseRule(args[2])
		if err != nil {
			return err
		}

		// Flags override config defaults.
		permutations, _ := cmd.Flags().GetInt("permutations")
		if !cmd.Flags().Changed("permutations") {
			permutations = cfg.Lisa.Permutations
		}
		alpha, _ := cmd.Flags().GetFloat64("alpha")
		if !cmd.Flags().Changed("alpha") {
			alpha = cfg.Lisa.Alpha
		}
		seed, _ := cmd.Flags().GetInt64("seed")
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Lisa.Seed
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Lisa.Workers
		}
		geojsonOut := stringFlagOr(cmd, "geojson-out", cfg.Lisa.GeoJSONOut)
		csvOut := stringFlagOr(cmd, "csv-out", cfg.Lisa.CSVOut)
		mapOut := stringFlagOr(cmd, "map-out", cfg.Lisa.MapOut)
		noRender, _ := cmd.Flags().GetBool("no-render")
		noStore, _ := cmd.Flags().GetBool("no-store")

		log := zap.L().With(
			zap.String("command", "run"),
			zap.String("source", source),
			zap.String("field", field),
			zap.String("contiguity", string(rule)),
		)
		log.Info("starting LISA analysis",
			zap.Int("permutations", permutations),
			zap.Float64("alpha", alpha),
			zap.Int64("seed", seed),
		)

		var runs *store.Store
		var rec *model.RunRecord
		if !noStore {
			runs, err = store.New(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = runs.Close() }()

			rec, err = runs.CreateRun(ctx, source, field, string(rule), permutations, alpha, seed)
			if err != nil {
				return err
			}
		}

		start := time.Now()
		analysis, err := execute(ctx, source, field, rule, moran.Params{
			Field:        field,
			Rule:         rule,
			Permutations: permutations,
			Alpha:        alpha,
			Seed:         seed,
			Workers:      workers,
		}, geojsonOut, csvOut, mapOut, noRender)
		if err != nil {
			if rec != nil {
				if ferr := runs.FailRun(ctx, rec.ID, err.Error()); ferr != nil {
					log.Warn("could not record run failure", zap.Error(ferr))
				}
			}
			return err
		}

		if rec != nil {
			if err := runs.FinishRun(ctx, rec.ID,
				len(analysis.Results), analysis.Hotspots, analysis.Coldspots,
				analysis.Outliers, analysis.NonSig, time.Since(start).Milliseconds(),
			); err != nil {
				log.Warn("could not record run completion", zap.Error(err))
			}
		}

		fmt.Printf("Results saved as GeoJSON to %s\n", geojsonOut)
		fmt.Printf("Results saved as CSV to %s\n", csvOut)
		if !noRender {
			fmt.Printf("Cluster map saved to %s\n", mapOut)
		}
		return nil
	},
}

// execute runs the pipeline and writes artifacts. No artifact is written
// unless the whole computation succeeds.
func execute(ctx context.Context, source, field string, rule weights.Rule, params moran.Params, geojsonOut, csvOut, mapOut string, noRender bool) (*moran.Analysis, error) {
	ds, err := shapeio.Load(source)
	if err != nil {
		return nil, err
	}
	if !ds.HasField(field) {
		return nil, eris.Wrapf(moran.ErrFieldNotFound, "field %q not in source attributes", field)
	}

	analysis, err := moran.Run(ctx, ds.Units, params)
	if err != nil {
		return nil, err
	}

	if err := shapeio.WriteGeoJSON(geojsonOut, field, analysis.Results); err != nil {
		return nil, err
	}
	if err := shapeio.WriteCSV(csvOut, field, analysis.Results); err != nil {
		return nil, err
	}
	if !noRender {
		if err := render.SaveMap(mapOut, field, analysis.Results); err != nil {
			return nil, err
		}
	}
	return analysis, nil
}

func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func init() {
	runCmd.Flags().Int("permutations", moran.DefaultPermutations, "number of conditional permutations")
	runCmd.Flags().Float64("alpha", moran.DefaultAlpha, "significance threshold")
	runCmd.Flags().Int64("seed", 42, "base random seed (unit i draws from seed+i)")
	runCmd.Flags().Int("workers", 0, "parallel permutation workers (0 = all CPUs)")
	runCmd.Flags().String("geojson-out", "", "GeoJSON output path (default from config)")
	runCmd.Flags().String("csv-out", "", "CSV output path (default from config)")
	runCmd.Flags().String("map-out", "", "cluster map output path (default from config)")
	runCmd.Flags().Bool("no-render", false, "skip rendering the cluster map")
	runCmd.Flags().Bool("no-store", false, "skip recording the run in the history store")
	rootCmd.AddCommand(runCmd)
}
