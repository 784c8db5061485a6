package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-directory/internal/query"
	"github.com/jwalitptl/clinic-directory/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db       *sqlx.DB
	composer *query.Composer
	metrics  *metrics.Metrics
	clock    *Clock
}

// NewBaseRepository creates a new base repository. Repositories built from
// the same base share one clock. m may be nil.
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) (BaseRepository, error) {
	composer, err := query.NewComposer(db.DriverName())
	if err != nil {
		return BaseRepository{}, err
	}
	return BaseRepository{
		db:       db,
		composer: composer,
		metrics:  m,
		clock:    NewClock(),
	}, nil
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// observe records the outcome of one store operation.
func (r *BaseRepository) observe(op string, start time.Time, err error) {
	r.metrics.ObserveDB(op, start, err)
}
