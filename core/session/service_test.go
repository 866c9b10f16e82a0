package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/session"
	inmemdb "github.com/trezcool/apsas/storage/database/inmem"
	testutil "github.com/trezcool/apsas/tests"
)

func newService(t *testing.T) *session.Service {
	t.Helper()
	validate, _ := core.NewValidator()
	svc := session.NewService(inmemdb.NewSessionRepository(inmemdb.Open()), validate)
	svc.SetClock(func() time.Time { return testutil.Now })
	return svc
}

func TestService_lifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, session.Selection{ClassID: core.IntPtr(1)})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID.String())
	assert.Equal(t, null.IntFrom(1), created.SelectedClassID)
	assert.Equal(t, testutil.Now, created.CreatedAt)

	got, err := svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created, got)

	later := testutil.Now.Add(time.Minute)
	svc.SetClock(func() time.Time { return later })
	updated, err := svc.Update(ctx, created.ID.String(), session.Selection{
		TemplateID:     core.IntPtr(30),
		GradingGroupID: core.IntPtr(1),
	})
	require.NoError(t, err)
	assert.False(t, updated.SelectedClassID.Valid)
	assert.Equal(t, null.IntFrom(30), updated.SelectedTemplateID)
	assert.Equal(t, null.IntFrom(1), updated.SelectedGradingGroupID)
	assert.Equal(t, testutil.Now, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))
	_, err = svc.Get(ctx, created.ID.String())
	assert.Equal(t, session.ErrNotFound, err)
}

func TestService_errors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		do   func() error
	}{
		{name: "get malformed id", do: func() error { _, err := svc.Get(ctx, "not-a-uuid"); return err }},
		{name: "get unknown id", do: func() error { _, err := svc.Get(ctx, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"); return err }},
		{name: "update malformed id", do: func() error { _, err := svc.Update(ctx, "42", session.Selection{}); return err }},
		{name: "delete unknown id", do: func() error { return svc.Delete(ctx, "6ba7b810-9dad-11d1-80b4-00c04fd430c8") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, session.ErrNotFound, tt.do())
		})
	}

	t.Run("invalid selection", func(t *testing.T) {
		_, err := svc.Create(ctx, session.Selection{SubmissionID: core.IntPtr(0)})
		require.Error(t, err)
		verrs, ok := errors.Cause(err).(validator.ValidationErrors)
		require.True(t, ok)
		assert.Equal(t, "selectedSubmissionId", verrs[0].Field())
	})
}
