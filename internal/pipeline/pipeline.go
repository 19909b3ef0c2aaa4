// Package pipeline orchestrates a full disclosure processing run: ingest,
// normalize, quantity calculation, quarterly allocation, basin
// classification, aggregation, and validation.
package pipeline

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgordon67/frac-focus/internal/aggregate"
	"github.com/tgordon67/frac-focus/internal/allocate"
	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/ingest"
	"github.com/tgordon67/frac-focus/internal/model"
	"github.com/tgordon67/frac-focus/internal/normalize"
	"github.com/tgordon67/frac-focus/internal/quantity"
	"github.com/tgordon67/frac-focus/internal/region"
	"github.com/tgordon67/frac-focus/internal/supplier"
	"github.com/tgordon67/frac-focus/internal/validate"
)

// Pipeline wires the processing stages together.
type Pipeline struct {
	cfg        *config.Config
	classifier *region.Classifier
	matcher    *supplier.Matcher
}

// AggregateTable is one produced rollup with its grouping definition.
type AggregateTable struct {
	Grouping aggregate.Grouping
	Rows     []model.AggregateRow
}

// Result is everything a run produces.
type Result struct {
	Details    []model.DetailRow
	Aggregates []AggregateTable
	Report     *validate.Report
	Stats      normalize.Stats
	Summary    model.RunSummary
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config) (*Pipeline, error) {
	var classifier *region.Classifier
	var err error
	if cfg.Regions.Path != "" {
		classifier, err = region.Load(cfg.Regions.Path)
		if err != nil {
			return nil, err
		}
	} else {
		classifier = region.Default()
	}

	return &Pipeline{
		cfg:        cfg,
		classifier: classifier,
		matcher:    supplier.NewMatcher(cfg.Atlas),
	}, nil
}

// Run executes the full pipeline over the input files.
func (p *Pipeline) Run(ctx context.Context, inputs []string) (*Result, error) {
	if len(inputs) == 0 {
		return nil, eris.New("pipeline: no input files")
	}

	started := time.Now()
	records, err := p.ingestAll(ctx, inputs)
	if err != nil {
		return nil, err
	}

	normStats := records.stats
	disclosures := normalize.Group(records.rows)

	// Row-count floor: grouping can never produce more disclosures than
	// surviving ingredient rows. A violation means dedup collapsed rows it
	// must not have, so the run aborts rather than emit silently shrunken
	// aggregates.
	if len(records.rows) < len(disclosures) {
		return nil, eris.Errorf("pipeline: %d rows grouped into %d disclosures; row count fell below disclosure count",
			len(records.rows), len(disclosures))
	}

	details, err := p.process(ctx, disclosures)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Details: details,
		Stats:   normStats,
	}

	result.Aggregates = []AggregateTable{
		{Grouping: aggregate.ByBasin, Rows: aggregate.Aggregate(details, aggregate.ByBasin)},
		{Grouping: aggregate.ByState, Rows: aggregate.Aggregate(details, aggregate.ByState)},
		{Grouping: aggregate.ByCounty, Rows: aggregate.Aggregate(details, aggregate.ByCounty)},
	}
	if basin := p.cfg.Regions.FilterBasin; basin != "" {
		filtered := aggregate.FilterBasin(details, basin)
		result.Aggregates = append(result.Aggregates, AggregateTable{
			Grouping: aggregate.BasinCounties,
			Rows:     aggregate.Aggregate(filtered, aggregate.BasinCounties),
		})
	}

	result.Report = validate.New(p.cfg.Pipeline).Run(details, normStats, time.Now().UTC())
	result.Summary = summarize(normStats, details)

	zap.L().Info("pipeline run complete",
		zap.String("component", "pipeline"),
		zap.Int64("rows_read", normStats.RowsRead),
		zap.Int64("rows_kept", normStats.Kept),
		zap.Int("disclosures", result.Summary.Disclosures),
		zap.Int("detail_rows", len(details)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

type ingested struct {
	rows  []model.IngredientRecord
	stats normalize.Stats
}

// ingestAll streams every input file through one shared Normalizer, so the
// dedup set spans files.
func (p *Pipeline) ingestAll(ctx context.Context, inputs []string) (*ingested, error) {
	normalizer := normalize.New(p.cfg.Pipeline)
	opts := ingest.Options{
		ChunkSize: p.cfg.Pipeline.ChunkSize,
		Encoding:  p.cfg.Pipeline.Encoding,
	}

	var records []model.IngredientRecord
	for _, path := range inputs {
		err := ingest.ReadFile(ctx, path, opts, func(rows []ingest.Row) error {
			records = append(records, normalizer.Normalize(rows)...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("ingested input",
			zap.String("component", "pipeline"),
			zap.String("path", path),
			zap.Int("records_so_far", len(records)),
		)
	}
	return &ingested{rows: records, stats: normalizer.Stats()}, nil
}

// process computes quantity, allocation, classification, and supplier
// attribution for every disclosure, sharded across workers. Output order is
// deterministic regardless of scheduling.
func (p *Pipeline) process(ctx context.Context, disclosures map[string]*model.Disclosure) ([]model.DetailRow, error) {
	ids := make([]string, 0, len(disclosures))
	for id := range disclosures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	workers := p.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}

	calc := quantity.New(p.cfg.Pipeline)
	alloc := allocate.New(p.cfg.Pipeline)
	perDisclosure := make([][]model.DetailRow, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		shard := w
		g.Go(func() error {
			for i := shard; i < len(ids); i += workers {
				if err := ctx.Err(); err != nil {
					return eris.Wrap(err, "pipeline: process canceled")
				}
				d := disclosures[ids[i]]
				rows, err := p.processOne(d, calc, alloc)
				if err != nil {
					return err
				}
				perDisclosure[i] = rows
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var details []model.DetailRow
	for _, rows := range perDisclosure {
		details = append(details, rows...)
	}
	return details, nil
}

// processOne turns one disclosure into its detail rows and enforces the
// conservation invariant on the allocation.
func (p *Pipeline) processOne(d *model.Disclosure, calc quantity.Calculator, alloc allocate.Allocator) ([]model.DetailRow, error) {
	res := calc.Compute(d)
	isAtlas := p.matcher.MatchDisclosure(d)
	basin := p.classifier.Classify(d.StateName, d.CountyName)

	base := model.DetailRow{
		DisclosureID:       d.ID,
		StateName:          d.StateName,
		CountyName:         d.CountyName,
		Basin:              basin,
		APINumber:          d.APINumber,
		JobStart:           d.JobStart,
		DurationDays:       d.DurationDays,
		CalcMethod:         res.Method,
		MassCompleteness:   res.MassCompleteness,
		PercentSum:         res.PercentSum,
		ReportedMassLbs:    res.ReportedMassLbs,
		ProxyMassLbs:       res.ProxyMassLbs,
		ImplausiblePercent: res.ImplausiblePercent,
		IsAtlas:            isAtlas,
	}

	if res.Excluded {
		row := base
		row.Quarter = model.QuarterOf(d.JobStart).Label()
		row.Excluded = true
		row.ExcludeReason = res.ExcludeReason
		return []model.DetailRow{row}, nil
	}

	var waterGal float64
	if d.WaterVolumeGal != nil {
		waterGal = *d.WaterVolumeGal
	}

	allocation := alloc.Allocate(d, res.ProppantLbs, waterGal)

	var propSum, waterSum float64
	rows := make([]model.DetailRow, 0, len(allocation.Shares))
	for _, share := range allocation.Shares {
		row := base
		row.Quarter = share.Quarter.Label()
		row.ProppantLbs = share.ProppantLbs
		row.WaterGal = share.WaterGal
		row.OutlierLongJob = allocation.OutlierLongJob
		rows = append(rows, row)
		propSum += share.ProppantLbs
		waterSum += share.WaterGal
	}

	tol := p.cfg.Pipeline.ConservationTolerance
	if tol <= 0 {
		tol = 1e-6
	}
	if !conserved(propSum, res.ProppantLbs, tol) || !conserved(waterSum, waterGal, tol) {
		return nil, eris.Errorf("pipeline: allocation for %s not conserved: proppant %.6f != %.6f or water %.6f != %.6f",
			d.ID, propSum, res.ProppantLbs, waterSum, waterGal)
	}
	return rows, nil
}

func conserved(got, want, tol float64) bool {
	scale := math.Max(1, math.Abs(want))
	return math.Abs(got-want) <= tol*scale
}

func summarize(stats normalize.Stats, details []model.DetailRow) model.RunSummary {
	summary := model.RunSummary{
		RowsRead: stats.RowsRead,
		RowsKept: stats.Kept,
	}

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
	return summary
}
