package main

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/aggregate"
	"github.com/tgordon67/frac-focus/internal/estimate"
	"github.com/tgordon67/frac-focus/internal/model"
	"github.com/tgordon67/frac-focus/internal/pipeline"
)

var (
	atlasBy        string
	atlasOut       string
	atlasDetail    string
	atlasBacksolve []string
)

var atlasCmd = &cobra.Command{
	Use:   "atlas <file>...",
	Short: "Supplier market share and revenue estimates",
	Long:  "Runs the pipeline over registry exports (or reads a previously written detail table with --detail) and compares supplier-attributed proppant volume against the total market.",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		details, err := atlasDetails(cmd, args)
		if err != nil {
			return err
		}

		var keys []string
		switch atlasBy {
		case "basin":
			keys = []string{"basin"}
		case "state":
			keys = []string{"state"}
		case "county":
			keys = []string{"state", "county"}
		default:
			return eris.Errorf("atlas: unknown grouping %q", atlasBy)
		}

		pricing := estimate.PricingFromConfig(cfg.Atlas)
		rows := estimate.MarketShare(details, keys, pricing)

		if len(atlasBacksolve) > 0 {
			return runBacksolve(rows)
		}

		out := os.Stdout
		if atlasOut != "" {
			f, err := os.Create(atlasOut)
			if err != nil {
				return eris.Wrapf(err, "atlas: create %s", atlasOut)
			}
			defer f.Close()
			out = f
		}
		return writeMarketCSV(out, keys, rows)
	},
}

// atlasDetails produces the detail rows to estimate from: either a saved
// detail table or a fresh pipeline run over registry files.
func atlasDetails(cmd *cobra.Command, args []string) ([]model.DetailRow, error) {
	if atlasDetail != "" {
		return aggregate.ReadDetailCSV(atlasDetail)
	}
	if len(args) == 0 {
		return nil, eris.New("atlas: provide registry files or --detail")
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	result, err := p.Run(cmd.Context(), args)
	if err != nil {
		return nil, err
	}
	return result.Details, nil
}

// runBacksolve infers realized price per ton from reported revenue figures
// given as repeated quarter=dollars flags.
func runBacksolve(rows []estimate.MarketRow) error {
	reported := make(map[string]float64, len(atlasBacksolve))
	for _, pair := range atlasBacksolve {
		q, v, ok := strings.Cut(pair, "=")
		if !ok {
			return eris.Errorf("atlas: malformed backsolve pair %q, want QUARTER=DOLLARS", pair)
		}
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return eris.Wrapf(err, "atlas: parse revenue %q", v)
		}
		reported[q] = amount
	}

	volumes := make(map[string]float64)
	for _, r := range rows {
		volumes[r.Quarter] += r.SupplierTons
	}

	prices, err := estimate.BacksolvePricing(volumes, reported)
	if err != nil {
		return err
	}

	quarters := make([]string, 0, len(prices))
	for q := range prices {
		quarters = append(quarters, q)
	}
	sort.Strings(quarters)

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"Quarter", "Supplier_tons", "Reported_revenue", "Implied_price_per_ton"}); err != nil {
		return eris.Wrap(err, "atlas: write header")
	}
	for _, q := range quarters {
		if err := w.Write([]string{
			q,
			strconv.FormatFloat(volumes[q], 'f', -1, 64),
			strconv.FormatFloat(reported[q], 'f', -1, 64),
			strconv.FormatFloat(prices[q], 'f', 2, 64),
		}); err != nil {
			return eris.Wrap(err, "atlas: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "atlas: flush")
}

func writeMarketCSV(f *os.File, keys []string, rows []estimate.MarketRow) error {
	header := []string{"Quarter"}
	for _, k := range keys {
		header = append(header, aggregate.ColumnTitle(k))
	}
	header = append(header,
		"Market_tons", "Supplier_tons", "Share_pct",
		"Market_wells", "Supplier_wells",
		"Contract_tons", "Spot_tons", "Blended_price_per_ton", "Revenue_MM",
	)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "atlas: write header")
	}
	for _, r := range rows {
		rec := []string{r.Quarter}
		rec = append(rec, r.Keys...)
		rec = append(rec,
			strconv.FormatFloat(r.MarketTons, 'f', -1, 64),
			strconv.FormatFloat(r.SupplierTons, 'f', -1, 64),
			strconv.FormatFloat(r.SharePct, 'f', 2, 64),
			strconv.Itoa(r.MarketWells),
			strconv.Itoa(r.SupplierWells),
			strconv.FormatFloat(r.ContractTons, 'f', -1, 64),
			strconv.FormatFloat(r.SpotTons, 'f', -1, 64),
			strconv.FormatFloat(r.BlendedPricePerT, 'f', 2, 64),
			strconv.FormatFloat(r.RevenueMM, 'f', 4, 64),
		)
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "atlas: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "atlas: flush")
	}

	zap.L().Info("market estimate written",
		zap.String("grouping", atlasBy),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func init() {
	atlasCmd.Flags().StringVar(&atlasBy, "by", "basin", "grouping: basin, state, or county")
	atlasCmd.Flags().StringVar(&atlasDetail, "detail", "", "use a previously written quarterly_detail.csv instead of running the pipeline")
	atlasCmd.Flags().StringVar(&atlasOut, "out", "", "output CSV path (default stdout)")
	atlasCmd.Flags().StringSliceVar(&atlasBacksolve, "backsolve", nil, "reported revenue as QUARTER=DOLLARS pairs; infers realized price per ton")
	rootCmd.AddCommand(atlasCmd)
}
