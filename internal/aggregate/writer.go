package aggregate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tgordon67/frac-focus/internal/model"
)

// detailHeader is the audit-trail table schema.
var detailHeader = []string{
	"DisclosureId", "Quarter", "Proppant_lbs", "Water_gal",
	"StateName", "CountyName", "Basin", "APINumber",
	"JobStartDate", "JobDurationDays",
	"CalcMethod", "MassCompleteness", "PercentSum",
	"ReportedMass_lbs", "ProxyMass_lbs",
	"Outlier_LongJob", "Flag_ImplausiblePercent", "Is_Atlas",
	"Excluded", "ExcludeReason",
}

// WriteAggregateCSV writes one grouped table. The file is written to a
// temporary sibling and renamed into place, so a failed run never leaves a
// truncated table behind.
func WriteAggregateCSV(path string, g Grouping, rows []model.AggregateRow) error {
	header := []string{"Quarter"}
	for _, k := range g.Keys {
		header = append(header, ColumnTitle(k))
	}
	header = append(header,
		"Proppant_lbs", "Proppant_tons", "Proppant_MM_lbs",
		"Water_gal", "Water_MM_gal", "Well_count",
		"Avg_Proppant_per_Well_lbs", "Avg_Water_per_Well_gal",
	)

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{r.Quarter}
		rec = append(rec, r.Keys...)
		rec = append(rec,
			ffloat(r.ProppantLbs), ffloat(r.ProppantTons()), ffloat(r.ProppantMMLbs()),
			ffloat(r.WaterGal), ffloat(r.WaterMMGal()), strconv.Itoa(r.WellCount),
			ffloat(r.AvgProppantPerWellLbs()), ffloat(r.AvgWaterPerWellGal()),
		)
		records = append(records, rec)
	}

	return writeCSVAtomic(path, header, records)
}

// WriteDetailCSV writes the disclosure-level audit trail.
func WriteDetailCSV(path string, rows []model.DetailRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.DisclosureID, r.Quarter, ffloat(r.ProppantLbs), ffloat(r.WaterGal),
			r.StateName, r.CountyName, r.Basin, r.APINumber,
			r.JobStart.Format("2006-01-02"), strconv.Itoa(r.DurationDays),
			string(r.CalcMethod), ffloat(r.MassCompleteness), ffloat(r.PercentSum),
			fptr(r.ReportedMassLbs), fptr(r.ProxyMassLbs),
			fbool(r.OutlierLongJob), fbool(r.ImplausiblePercent), fbool(r.IsAtlas),
			fbool(r.Excluded), string(r.ExcludeReason),
		})
	}
	return writeCSVAtomic(path, detailHeader, records)
}

// ReadDetailCSV parses a detail table written by WriteDetailCSV.
func ReadDetailCSV(path string) ([]model.DetailRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("aggregate: %s is empty", path)
	}
	if len(records[0]) != len(detailHeader) {
		return nil, eris.Errorf("aggregate: %s has %d columns, want %d", path, len(records[0]), len(detailHeader))
	}

	rows := make([]model.DetailRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		start, err := time.Parse("2006-01-02", rec[8])
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: parse start date %q", rec[8])
		}
		duration, _ := strconv.Atoi(rec[9])
		rows = append(rows, model.DetailRow{
			DisclosureID:       rec[0],
			Quarter:            rec[1],
			ProppantLbs:        pfloat(rec[2]),
			WaterGal:           pfloat(rec[3]),
			StateName:          rec[4],
			CountyName:         rec[5],
			Basin:              rec[6],
			APINumber:          rec[7],
			JobStart:           start,
			DurationDays:       duration,
			CalcMethod:         model.CalcMethod(rec[10]),
			MassCompleteness:   pfloat(rec[11]),
			PercentSum:         pfloat(rec[12]),
			ReportedMassLbs:    pfloatPtr(rec[13]),
			ProxyMassLbs:       pfloatPtr(rec[14]),
			OutlierLongJob:     rec[15] == "true",
			ImplausiblePercent: rec[16] == "true",
			IsAtlas:            rec[17] == "true",
			Excluded:           rec[18] == "true",
			ExcludeReason:      model.ExcludeReason(rec[19]),
		})
	}
	return rows, nil
}

// writeCSVAtomic writes header+records to a temp file in the target
// directory and renames it into place.
func writeCSVAtomic(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "aggregate: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "aggregate: create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return eris.Wrap(err, "aggregate: write header")
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return eris.Wrap(err, "aggregate: write records")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "aggregate: flush")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "aggregate: close temp file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrapf(err, "aggregate: rename into %s", path)
	}
	return nil
}

func ffloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fptr(v *float64) string {
	if v == nil {
		return ""
	}
	return ffloat(*v)
}

func fbool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func pfloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func pfloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
