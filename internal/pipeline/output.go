package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tgordon67/frac-focus/internal/aggregate"
)

// WriteOutputs writes every output artifact of a run into dir: one CSV per
// rollup, the detail table, and the validation report.
func (p *Pipeline) WriteOutputs(result *Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create output dir %s", dir)
	}

	for _, table := range result.Aggregates {
		name := table.Grouping.Name
		if table.Grouping.Name == aggregate.BasinCounties.Name {
			name = basinSlug(p.cfg.Regions.FilterBasin) + "_by_county"
		}
		path := filepath.Join(dir, name+".csv")
		if err := aggregate.WriteAggregateCSV(path, table.Grouping, table.Rows); err != nil {
			return err
		}
	}

	detailPath := filepath.Join(dir, "quarterly_detail.csv")
	if err := aggregate.WriteDetailCSV(detailPath, result.Details); err != nil {
		return err
	}

	reportPath := filepath.Join(dir, "validation_report.txt")
	if err := os.WriteFile(reportPath, []byte(result.Report.Render()), 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write validation report")
	}

	zap.L().Info("outputs written",
		zap.String("component", "pipeline"),
		zap.String("dir", dir),
		zap.Int("tables", len(result.Aggregates)+1),
	)
	return nil
}

// basinSlug turns "Permian Basin" into "permian" for output filenames.
func basinSlug(basin string) string {
	s := strings.ToLower(strings.TrimSpace(basin))
	s = strings.TrimSuffix(s, " basin")
	return strings.ReplaceAll(s, " ", "_")
}
