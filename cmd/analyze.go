package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/pipeline"
	"github.com/tgordon67/frac-focus/internal/store"
)

var (
	analyzeOutDir string
	analyzeNoDB   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Run the full pipeline over registry export files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		var st store.Store
		var runID string
		if !analyzeNoDB {
			st, err = store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			run, err := st.CreateRun(ctx, args)
			if err != nil {
				return err
			}
			runID = run.ID
		}

		result, err := p.Run(ctx, args)
		if err != nil {
			if st != nil {
				if ferr := st.FailRun(ctx, runID, err); ferr != nil {
					zap.L().Error("record run failure", zap.Error(ferr))
				}
			}
			return eris.Wrap(err, "pipeline run")
		}

		outDir := analyzeOutDir
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if err := p.WriteOutputs(result, outDir); err != nil {
			return err
		}

		if st != nil {
			if err := st.SaveDetail(ctx, runID, result.Details); err != nil {
				return err
			}
			for _, table := range result.Aggregates {
				if err := st.SaveAggregates(ctx, runID, table.Grouping.Name, table.Grouping.Keys, table.Rows); err != nil {
					return err
				}
			}
			if err := st.CompleteRun(ctx, runID, &result.Summary); err != nil {
				return err
			}
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", runID),
			zap.Int64("rows_read", result.Summary.RowsRead),
			zap.Int("disclosures", result.Summary.Disclosures),
			zap.Int("excluded", result.Summary.Excluded),
			zap.Int("quarters", result.Summary.Quarters),
			zap.Float64("total_proppant_lbs", result.Summary.TotalProppantLbs),
			zap.String("output_dir", outDir),
		)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOutDir, "out", "", "output directory (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoDB, "no-db", false, "skip persisting the run to the store")
	rootCmd.AddCommand(analyzeCmd)
}
