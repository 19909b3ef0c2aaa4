package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgordon67/frac-focus/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, []string{"registry.csv"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunRunning, run.Status)

	summary := &model.RunSummary{
		RowsRead:         100,
		RowsKept:         90,
		Disclosures:      10,
		TotalProppantLbs: 5_000_000,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, summary))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, got.Status)
	assert.Equal(t, []string{"registry.csv"}, got.Inputs)
	require.NotNil(t, got.Summary)
	assert.Equal(t, int64(100), got.Summary.RowsRead)
	assert.Equal(t, 5_000_000.0, got.Summary.TotalProppantLbs)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLiteFailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, []string{"bad.csv"})
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, errors.New("row count shrank")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, got.Status)
	assert.Contains(t, got.Error, "row count shrank")
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.Error(t, err)

	err = s.CompleteRun(ctx, "missing", &model.RunSummary{})
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.CreateRun(ctx, []string{"a.csv"})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteSaveDetailAndAggregates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, []string{"a.csv"})
	require.NoError(t, err)

	details := []model.DetailRow{
		{
			DisclosureID: "d1",
			Quarter:      "2024Q1",
			ProppantLbs:  1000,
			WaterGal:     500,
			StateName:    "Texas",
			CountyName:   "Midland",
			Basin:        "Permian Basin",
			JobStart:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			DurationDays: 5,
			CalcMethod:   model.MethodReportedMass,
		},
		{
			DisclosureID:  "d2",
			Quarter:       "2024Q1",
			JobStart:      time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
			CalcMethod:    model.MethodNone,
			Excluded:      true,
			ExcludeReason: model.ExcludeMissingVolume,
		},
	}
	require.NoError(t, s.SaveDetail(ctx, run.ID, details))

	aggs := []model.AggregateRow{
		{Quarter: "2024Q1", Keys: []string{"Permian Basin"}, ProppantLbs: 1000, WaterGal: 500, WellCount: 1},
	}
	require.NoError(t, s.SaveAggregates(ctx, run.ID, "quarterly_by_basin", []string{"basin"}, aggs))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM disclosure_detail WHERE run_id = ?`, run.ID).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM quarterly_aggregates WHERE run_id = ?`, run.ID).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLiteSaveDetailEmpty(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.SaveDetail(context.Background(), "r1", nil))
	assert.NoError(t, s.SaveAggregates(context.Background(), "r1", "quarterly_by_basin", nil, nil))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configStore("mysql", ""))
	assert.Error(t, err)
}

func TestOpenSQLiteDefault(t *testing.T) {
	s, err := Open(context.Background(), configStore("", filepath.Join(t.TempDir(), "d.db")))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
