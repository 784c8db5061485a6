package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type fixedIDs struct {
	ids []string
	n   int
}

func (f *fixedIDs) Next(_ time.Time) string {
	id := f.ids[f.n%len(f.ids)]
	f.n++
	return id
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Setup(context.Background(), db, true))
	return db
}

func newTestBase(t *testing.T) (*sqlx.DB, BaseRepository) {
	t.Helper()

	db := newTestDB(t)
	base, err := NewBaseRepository(db, nil)
	require.NoError(t, err)
	return db, base
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(1) FROM "+table))
	return n
}
