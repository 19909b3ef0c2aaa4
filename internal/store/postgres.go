package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tgordon67/frac-focus/internal/db"
	"github.com/tgordon67/frac-focus/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	inputs       JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	summary      JSONB,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS disclosure_detail (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	disclosure_id  TEXT NOT NULL,
	quarter        TEXT NOT NULL,
	proppant_lbs   DOUBLE PRECISION NOT NULL,
	water_gal      DOUBLE PRECISION NOT NULL,
	state_name     TEXT,
	county_name    TEXT,
	basin          TEXT,
	api_number     TEXT,
	job_start      DATE NOT NULL,
	duration_days  INTEGER NOT NULL,
	calc_method    TEXT NOT NULL,
	excluded       BOOLEAN NOT NULL DEFAULT false,
	exclude_reason TEXT,
	PRIMARY KEY (run_id, disclosure_id, quarter)
);

CREATE TABLE IF NOT EXISTS quarterly_aggregates (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	grouping     TEXT NOT NULL,
	quarter      TEXT NOT NULL,
	group_keys   TEXT NOT NULL,
	proppant_lbs DOUBLE PRECISION NOT NULL,
	water_gal    DOUBLE PRECISION NOT NULL,
	well_count   INTEGER NOT NULL,
	PRIMARY KEY (run_id, grouping, quarter, group_keys)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_detail_quarter ON disclosure_detail(quarter);
CREATE INDEX IF NOT EXISTS idx_detail_basin ON disclosure_detail(basin);
CREATE INDEX IF NOT EXISTS idx_aggregates_grouping ON quarterly_aggregates(grouping, quarter);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, inputs []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal inputs")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, inputs, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, string(inputsJSON), string(model.RunRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Inputs:    inputs,
		Status:    model.RunRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunCompleted), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunFailed), cause.Error(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, inputs, status, COALESCE(error, ''), summary, started_at, completed_at
		 FROM runs WHERE id = $1`,
		runID,
	)

	var r model.Run
	var inputsJSON string
	var summaryJSON *string
	var completedAt *time.Time

	err := row.Scan(&r.ID, &inputsJSON, &r.Status, &r.Error, &summaryJSON, &r.StartedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal inputs")
	}
	if summaryJSON != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(*summaryJSON), r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	r.CompletedAt = completedAt
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, inputs, status, COALESCE(error, ''), summary, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var inputsJSON string
		var summaryJSON *string
		var completedAt *time.Time
		if err := rows.Scan(&r.ID, &inputsJSON, &r.Status, &r.Error, &summaryJSON, &r.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal inputs")
		}
		if summaryJSON != nil {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal([]byte(*summaryJSON), r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		r.CompletedAt = completedAt
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var detailColumns = []string{
	"run_id", "disclosure_id", "quarter", "proppant_lbs", "water_gal",
	"state_name", "county_name", "basin", "api_number",
	"job_start", "duration_days", "calc_method", "excluded", "exclude_reason",
}

// SaveDetail bulk-loads the audit trail via COPY. Detail tables run to
// millions of rows per load.
func (s *PostgresStore) SaveDetail(ctx context.Context, runID string, rows []model.DetailRow) error {
	copyRows := make([][]any, 0, len(rows))
	for _, r := range rows {
		copyRows = append(copyRows, []any{
			runID, r.DisclosureID, r.Quarter, r.ProppantLbs, r.WaterGal,
			r.StateName, r.CountyName, r.Basin, r.APINumber,
			r.JobStart, r.DurationDays, string(r.CalcMethod), r.Excluded, string(r.ExcludeReason),
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "disclosure_detail", detailColumns, copyRows)
	return err
}

var aggregateColumns = []string{
	"run_id", "grouping", "quarter", "group_keys", "proppant_lbs", "water_gal", "well_count",
}

// SaveAggregates upserts one rollup table, so re-running a load replaces the
// prior rows instead of duplicating them.
func (s *PostgresStore) SaveAggregates(ctx context.Context, runID, table string, keys []string, rows []model.AggregateRow) error {
	_ = keys // key names are encoded positionally in group_keys

	upsertRows := make([][]any, 0, len(rows))
	for _, r := range rows {
		upsertRows = append(upsertRows, []any{
			runID, table, r.Quarter, strings.Join(r.Keys, "|"),
			r.ProppantLbs, r.WaterGal, r.WellCount,
		})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "quarterly_aggregates",
		Columns:      aggregateColumns,
		ConflictKeys: []string{"run_id", "grouping", "quarter", "group_keys"},
	}, upsertRows)
	return err
}
