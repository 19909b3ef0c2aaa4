// Package normalize turns raw source rows into canonical ingredient records:
// date parsing, proppant filtering, range repair, and deduplication.
package normalize

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/ingest"
	"github.com/tgordon67/frac-focus/internal/model"
)

// Stats counts what normalization did to the input. Every dropped or repaired
// row is accounted for here and surfaced in the validation report.
type Stats struct {
	RowsRead          int64
	BadStartDate      int64
	EndDateDefaulted  int64
	NonProppant       int64
	NegativeClipped   int64
	WaterCeilingDrops int64
	Duplicates        int64
	Kept              int64
}

// Normalizer converts raw rows to IngredientRecords. The dedup set is global
// across all input files of a run, so it must be fed every chunk of every
// file through the same instance.
type Normalizer struct {
	cfg   config.PipelineConfig
	seen  map[uint64]struct{}
	stats Stats
}

// New creates a Normalizer with the given pipeline configuration.
func New(cfg config.PipelineConfig) *Normalizer {
	return &Normalizer{cfg: cfg, seen: make(map[uint64]struct{})}
}

// Stats returns the running counters.
func (n *Normalizer) Stats() Stats { return n.stats }

// dateLayouts covers the formats FracFocus has shipped.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Normalize processes one chunk of raw rows and returns the surviving
// canonical records.
func (n *Normalizer) Normalize(rows []ingest.Row) []model.IngredientRecord {
	out := make([]model.IngredientRecord, 0, len(rows))

	for _, raw := range rows {
		n.stats.RowsRead++

		// Proppant filter first: everything downstream is proppant-only.
		if !strings.Contains(strings.ToLower(raw.Purpose), "proppant") {
			n.stats.NonProppant++
			continue
		}

		start, ok := parseDate(raw.JobStartDate)
		if !ok {
			n.stats.BadStartDate++
			continue
		}

		rec := model.IngredientRecord{
			DisclosureID:   raw.DisclosureID,
			IngredientID:   raw.IngredientID,
			Purpose:        raw.Purpose,
			IngredientName: raw.IngredientName,
			SupplierName:   raw.Supplier,
			TradeName:      raw.TradeName,
			JobStart:       start,
			StateName:      raw.StateName,
			CountyName:     raw.CountyName,
			APINumber:      raw.APINumber,
		}

		if end, ok := parseDate(raw.JobEndDate); ok {
			rec.JobEnd = end
		} else {
			rec.JobEnd = start
			rec.EndDefaulted = true
			n.stats.EndDateDefaulted++
		}

		if pct := parseFloat(raw.PercentHFJob); pct != nil {
			if *pct < 0 {
				// The row may still carry a valid reported mass, so clip rather than drop.
				zero := 0.0
				rec.PercentOfJobMass = &zero
				rec.PercentClipped = true
				n.stats.NegativeClipped++
			} else {
				rec.PercentOfJobMass = pct
			}
		}

		rec.ReportedMass = parseFloat(raw.MassIngredient)

		if vol := parseFloat(raw.WaterVolumeGal); vol != nil && *vol > 0 {
			if n.cfg.WaterCeilingGal > 0 && *vol >= n.cfg.WaterCeilingGal {
				n.stats.WaterCeilingDrops++
				continue
			}
			rec.WaterVolumeGal = vol
			mass := *vol * n.cfg.WaterDensityLbsPerGal
			rec.TotalFluidMassLbs = &mass
		}

		if n.isDuplicate(raw, rec) {
			n.stats.Duplicates++
			continue
		}

		n.stats.Kept++
		out = append(out, rec)
	}

	return out
}

// isDuplicate records and tests the row's dedup key. The natural key for an
// ingredient entry is (DisclosureID, IngredientID); collapsing on
// DisclosureID alone would discard every ingredient but one per disclosure.
// Rows without an ingredient id fall back to full-row equality.
func (n *Normalizer) isDuplicate(raw ingest.Row, rec model.IngredientRecord) bool {
	h := fnv.New64a()
	if rec.IngredientID != "" {
		fmt.Fprintf(h, "k\x1f%s\x1f%s", rec.DisclosureID, rec.IngredientID)
	} else {
		fmt.Fprintf(h, "r\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s",
			raw.DisclosureID, raw.Purpose, raw.IngredientName, raw.Supplier, raw.TradeName,
			raw.PercentHFJob, raw.MassIngredient, raw.JobStartDate, raw.JobEndDate,
			raw.WaterVolumeGal, raw.StateName, raw.CountyName)
	}
	key := h.Sum64()
	if _, dup := n.seen[key]; dup {
		return true
	}
	n.seen[key] = struct{}{}
	return false
}

// Group builds ephemeral Disclosure views from normalized records.
// Disclosure-level fields come from the first record seen for each id.
func Group(records []model.IngredientRecord) map[string]*model.Disclosure {
	disclosures := make(map[string]*model.Disclosure)
	for _, rec := range records {
		d, ok := disclosures[rec.DisclosureID]
		if !ok {
			d = &model.Disclosure{
				ID:                rec.DisclosureID,
				JobStart:          rec.JobStart,
				JobEnd:            rec.JobEnd,
				WaterVolumeGal:    rec.WaterVolumeGal,
				TotalFluidMassLbs: rec.TotalFluidMassLbs,
				StateName:         rec.StateName,
				CountyName:        rec.CountyName,
				APINumber:         rec.APINumber,
			}
			days := int(rec.JobEnd.Sub(rec.JobStart).Hours() / 24)
			if days < 0 {
				days = 0
				d.DurationClamped = true
			}
			d.DurationDays = days
			disclosures[rec.DisclosureID] = d
		}
		d.Records = append(d.Records, rec)
	}
	return disclosures
}
