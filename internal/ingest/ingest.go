// Package ingest reads raw disclosure-ingredient rows from tabular source
// files. Field-name mapping from heterogeneous source schemas happens here;
// everything downstream sees only canonical Row fields.
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one raw source row with canonical field names. All values are
// unparsed strings; the normalizer owns type conversion.
type Row struct {
	DisclosureID   string
	IngredientID   string
	Purpose        string
	IngredientName string
	Supplier       string
	TradeName      string
	PercentHFJob   string
	MassIngredient string
	JobStartDate   string
	JobEndDate     string
	WaterVolumeGal string
	StateName      string
	CountyName     string
	APINumber      string
}

// Options configures source file reading.
type Options struct {
	ChunkSize int    // rows per callback invocation; <= 0 means 10000
	Encoding  string // "utf-8" (default) or "windows-1252"
}

// ChunkFunc receives successive chunks of rows. Returning an error stops the read.
type ChunkFunc func(rows []Row) error

// ReadFile streams rows from a CSV or XLSX file in bounded chunks.
func ReadFile(ctx context.Context, path string, opts Options, fn ChunkFunc) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(ctx, path, opts, fn)
	case ".xlsx":
		return readXLSX(ctx, path, opts, fn)
	default:
		return eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

// columnAliases maps normalized source column names to canonical Row fields.
// FracFocus has shipped several spellings across registry versions.
var columnAliases = map[string]string{
	"disclosureid":         "disclosure_id",
	"uploadkey":            "disclosure_id",
	"ingredientsid":        "ingredient_id",
	"ingredientid":         "ingredient_id",
	"purpose":              "purpose",
	"ingredientname":       "ingredient_name",
	"supplier":             "supplier",
	"suppliername":         "supplier",
	"tradename":            "trade_name",
	"percenthfjob":         "percent_hf_job",
	"massingredient":       "mass_ingredient",
	"jobstartdate":         "job_start_date",
	"jobenddate":           "job_end_date",
	"totalbasewatervolume": "water_volume_gal",
	"statename":            "state_name",
	"countyname":           "county_name",
	"apinumber":            "api_number",
}

// normalizeCol lowercases and strips spaces/underscores for header matching.
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// mapHeader resolves a source header to canonical-field -> column-index.
func mapHeader(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		if canonical, ok := columnAliases[normalizeCol(col)]; ok {
			if _, seen := m[canonical]; !seen {
				m[canonical] = i
			}
		}
	}
	return m
}

// getCol returns the trimmed value of a canonical column, or "" if absent.
func getCol(record []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// rowFromRecord builds a canonical Row from one source record.
func rowFromRecord(record []string, colIdx map[string]int) Row {
	return Row{
		DisclosureID:   getCol(record, colIdx, "disclosure_id"),
		IngredientID:   getCol(record, colIdx, "ingredient_id"),
		Purpose:        getCol(record, colIdx, "purpose"),
		IngredientName: getCol(record, colIdx, "ingredient_name"),
		Supplier:       getCol(record, colIdx, "supplier"),
		TradeName:      getCol(record, colIdx, "trade_name"),
		PercentHFJob:   getCol(record, colIdx, "percent_hf_job"),
		MassIngredient: getCol(record, colIdx, "mass_ingredient"),
		JobStartDate:   getCol(record, colIdx, "job_start_date"),
		JobEndDate:     getCol(record, colIdx, "job_end_date"),
		WaterVolumeGal: getCol(record, colIdx, "water_volume_gal"),
		StateName:      getCol(record, colIdx, "state_name"),
		CountyName:     getCol(record, colIdx, "county_name"),
		APINumber:      getCol(record, colIdx, "api_number"),
	}
}

func chunkSize(opts Options) int {
	if opts.ChunkSize <= 0 {
		return 10000
	}
	return opts.ChunkSize
}
