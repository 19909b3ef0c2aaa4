package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tgordon67/frac-focus/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	inputs       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	summary      TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS disclosure_detail (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	disclosure_id  TEXT NOT NULL,
	quarter        TEXT NOT NULL,
	proppant_lbs   REAL NOT NULL,
	water_gal      REAL NOT NULL,
	state_name     TEXT,
	county_name    TEXT,
	basin          TEXT,
	api_number     TEXT,
	job_start      TEXT NOT NULL,
	duration_days  INTEGER NOT NULL,
	calc_method    TEXT NOT NULL,
	excluded       INTEGER NOT NULL DEFAULT 0,
	exclude_reason TEXT,
	PRIMARY KEY (run_id, disclosure_id, quarter)
);

CREATE TABLE IF NOT EXISTS quarterly_aggregates (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	grouping     TEXT NOT NULL,
	quarter      TEXT NOT NULL,
	group_keys   TEXT NOT NULL,
	proppant_lbs REAL NOT NULL,
	water_gal    REAL NOT NULL,
	well_count   INTEGER NOT NULL,
	PRIMARY KEY (run_id, grouping, quarter, group_keys)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_detail_quarter ON disclosure_detail(quarter);
CREATE INDEX IF NOT EXISTS idx_detail_basin ON disclosure_detail(basin);
CREATE INDEX IF NOT EXISTS idx_aggregates_grouping ON quarterly_aggregates(grouping, quarter);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, inputs []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal inputs")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, inputs, status, started_at) VALUES (?, ?, ?, ?)`,
		id, string(inputsJSON), string(model.RunRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Inputs:    inputs,
		Status:    model.RunRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, completed_at = ? WHERE id = ?`,
		string(model.RunCompleted), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunFailed), cause.Error(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, status, error, summary, started_at, completed_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inputs, status, error, summary, started_at, completed_at FROM runs
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveDetail(ctx context.Context, runID string, rows []model.DetailRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin detail tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO disclosure_detail
		 (run_id, disclosure_id, quarter, proppant_lbs, water_gal, state_name, county_name,
		  basin, api_number, job_start, duration_days, calc_method, excluded, exclude_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare detail insert")
	}
	defer stmt.Close()

	for _, r := range rows {
		excluded := 0
		if r.Excluded {
			excluded = 1
		}
		if _, err := stmt.ExecContext(ctx,
			runID, r.DisclosureID, r.Quarter, r.ProppantLbs, r.WaterGal,
			r.StateName, r.CountyName, r.Basin, r.APINumber,
			r.JobStart.Format("2006-01-02"), r.DurationDays,
			string(r.CalcMethod), excluded, string(r.ExcludeReason),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert detail %s/%s", r.DisclosureID, r.Quarter)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit detail")
}

func (s *SQLiteStore) SaveAggregates(ctx context.Context, runID, table string, keys []string, rows []model.AggregateRow) error {
	if len(rows) == 0 {
		return nil
	}
	_ = keys // key names are encoded positionally in group_keys

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin aggregate tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quarterly_aggregates
		 (run_id, grouping, quarter, group_keys, proppant_lbs, water_gal, well_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare aggregate insert")
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID, table, r.Quarter, strings.Join(r.Keys, "|"),
			r.ProppantLbs, r.WaterGal, r.WellCount,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert aggregate %s/%s", table, r.Quarter)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit aggregates")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputsJSON string
	var errMsg, summaryJSON sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&r.ID, &inputsJSON, &r.Status, &errMsg, &summaryJSON, &r.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal inputs")
	}
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
