package sqlxrepos_test

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/trezcool/goose"
	_ "modernc.org/sqlite"

	"github.com/trezcool/apsas/core/session"
	"github.com/trezcool/apsas/storage/database"
	"github.com/trezcool/apsas/storage/database/sqlxrepos"
	testutil "github.com/trezcool/apsas/tests"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "apsas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, database.Migrate(db.DB))
	return db
}

func TestSessionRepository(t *testing.T) {
	testutil.SessionRepositoryTests(t, func(t *testing.T) session.Repository {
		return sqlxrepos.NewSessionRepository(openDB(t))
	})
}
