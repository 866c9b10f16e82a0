package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core/session"
)

// SessionRepositoryTests runs the behaviour every session.Repository must have.
// newRepo returns an empty repository.
func SessionRepositoryTests(t *testing.T, newRepo func(t *testing.T) session.Repository) {
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		s := session.Session{ID: uuid.New(), SelectedClassID: null.IntFrom(3), CreatedAt: at, UpdatedAt: at}
		created, err := repo.CreateSession(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, s, created)

		got, err := repo.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, null.IntFrom(3), got.SelectedClassID)
		assert.False(t, got.SelectedTemplateID.Valid)
		assert.True(t, at.Equal(got.CreatedAt))
	})

	t.Run("update keeps creation date", func(t *testing.T) {
		repo := newRepo(t)
		s := session.Session{ID: uuid.New(), SelectedClassID: null.IntFrom(3), CreatedAt: at, UpdatedAt: at}
		_, err := repo.CreateSession(ctx, s)
		require.NoError(t, err)

		later := at.Add(time.Hour)
		upd := session.Session{ID: s.ID, SelectedGradingGroupID: null.IntFrom(7), SelectedSubmissionID: null.IntFrom(70), UpdatedAt: later}
		updated, err := repo.UpdateSession(ctx, upd)
		require.NoError(t, err)
		assert.False(t, updated.SelectedClassID.Valid)
		assert.Equal(t, null.IntFrom(7), updated.SelectedGradingGroupID)
		assert.Equal(t, null.IntFrom(70), updated.SelectedSubmissionID)
		assert.True(t, at.Equal(updated.CreatedAt))
		assert.True(t, later.Equal(updated.UpdatedAt))

		got, err := repo.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Selection(), got.Selection())
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		s := session.Session{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
		_, err := repo.CreateSession(ctx, s)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteSession(ctx, s.ID))
		_, err = repo.GetSession(ctx, s.ID)
		assert.Equal(t, session.ErrNotFound, err)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		id := uuid.New()
		_, err := repo.GetSession(ctx, id)
		assert.Equal(t, session.ErrNotFound, err)
		_, err = repo.UpdateSession(ctx, session.Session{ID: id, UpdatedAt: at})
		assert.Equal(t, session.ErrNotFound, err)
		assert.Equal(t, session.ErrNotFound, repo.DeleteSession(ctx, id))
	})
}
