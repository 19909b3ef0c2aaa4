package aggregate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgordon67/frac-focus/internal/model"
)

func TestWriteAggregateCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quarterly_by_basin.csv")

	rows := Aggregate(sampleRows(), ByBasin)
	require.NoError(t, WriteAggregateCSV(path, ByBasin, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Quarter,Basin,Proppant_lbs,Proppant_tons")
	assert.Contains(t, content, "2024Q1,Permian Basin,3000,1.5")

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAggregateCSVByteIdentical(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.csv")
	p2 := filepath.Join(dir, "b.csv")

	require.NoError(t, WriteAggregateCSV(p1, ByCounty, Aggregate(sampleRows(), ByCounty)))
	require.NoError(t, WriteAggregateCSV(p2, ByCounty, Aggregate(sampleRows(), ByCounty)))

	a, err := os.ReadFile(p1)
	require.NoError(t, err)
	b, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDetailRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detail.csv")

	mass := 90_000.0
	rows := []model.DetailRow{
		{
			DisclosureID:     "d1",
			Quarter:          "2024Q1",
			ProppantLbs:      1000,
			WaterGal:         500,
			StateName:        "Texas",
			CountyName:       "Midland",
			Basin:            "Permian Basin",
			APINumber:        "42-329-12345",
			JobStart:         mustDate(t, "2024-02-10"),
			DurationDays:     4,
			CalcMethod:       model.MethodReportedMass,
			MassCompleteness: 0.8,
			PercentSum:       9.5,
			ReportedMassLbs:  &mass,
			IsAtlas:          true,
		},
		{
			DisclosureID:  "d2",
			Quarter:       "2024Q1",
			JobStart:      mustDate(t, "2024-02-11"),
			CalcMethod:    model.MethodNone,
			Excluded:      true,
			ExcludeReason: model.ExcludeMissingVolume,
		},
	}

	require.NoError(t, WriteDetailCSV(path, rows))
	got, err := ReadDetailCSV(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadDetailCSVMissing(t *testing.T) {
	_, err := ReadDetailCSV("/nonexistent/detail.csv")
	assert.Error(t, err)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
