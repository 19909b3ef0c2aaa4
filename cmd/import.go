package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/aggregate"
	"github.com/tgordon67/frac-focus/internal/model"
	"github.com/tgordon67/frac-focus/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <quarterly_detail.csv>",
	Short: "Load a previously written detail table into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		details, err := aggregate.ReadDetailCSV(args[0])
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
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
		if err := st.SaveDetail(ctx, run.ID, details); err != nil {
			if ferr := st.FailRun(ctx, run.ID, err); ferr != nil {
				zap.L().Error("record import failure", zap.Error(ferr))
			}
			return err
		}

		summary := summarizeDetails(details)
		if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
			return err
		}

		zap.L().Info("detail table imported",
			zap.String("run_id", run.ID),
			zap.Int("rows", len(details)),
		)
		return nil
	},
}

// summarizeDetails rebuilds headline counts from an imported detail table.
func summarizeDetails(details []model.DetailRow) *model.RunSummary {
	var summary model.RunSummary
	seen := make(map[string]struct{})
	quarters := make(map[string]struct{})
	for _, r := range details {
		if _, ok := seen[r.DisclosureID]; !ok {
			seen[r.DisclosureID] = struct{}{}
			summary.Disclosures++
			if r.Excluded {
				summary.Excluded++
			}
		}
		if !r.Excluded {
			quarters[r.Quarter] = struct{}{}
			summary.TotalProppantLbs += r.ProppantLbs
			summary.TotalWaterGal += r.WaterGal
		}
	}
	summary.Quarters = len(quarters)
	return &summary
}

func init() {
	rootCmd.AddCommand(importCmd)
}
