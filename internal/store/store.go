// Package store persists pipeline runs and their output tables.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tgordon67/frac-focus/internal/config"
	"github.com/tgordon67/frac-focus/internal/model"
)

// Store defines the persistence interface for the disclosure pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputs []string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Output tables
	SaveDetail(ctx context.Context, runID string, rows []model.DetailRow) error
	SaveAggregates(ctx context.Context, runID, table string, keys []string, rows []model.AggregateRow) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
