// Package session replaces the ambient browser storage keys of the dashboard
// with an explicit, persisted handoff object.
package session

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSession(ctx context.Context, id uuid.UUID) (Session, error)
		// UpdateSession saves the selections of s and its UpdatedAt.
		UpdateSession(ctx context.Context, s Session) (Session, error)
		DeleteSession(ctx context.Context, id uuid.UUID) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		now      func() time.Time
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate, now: time.Now}
}

func (svc *Service) SetClock(now func() time.Time) {
	svc.now = now
}

// parseID maps malformed ids to ErrNotFound: no session can have them.
func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return uid, nil
}

func (svc *Service) Create(ctx context.Context, sel Selection) (Session, error) {
	if err := svc.validate.Struct(sel); err != nil {
		return Session{}, err
	}
	now := svc.now().UTC()
	s := Session{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	sel.apply(&s)
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) Get(ctx context.Context, id string) (Session, error) {
	uid, err := parseID(id)
	if err != nil {
		return Session{}, err
	}
	return svc.repo.GetSession(ctx, uid)
}

// Update replaces the selections of the session.
func (svc *Service) Update(ctx context.Context, id string, sel Selection) (Session, error) {
	uid, err := parseID(id)
	if err != nil {
		return Session{}, err
	}
	if err := svc.validate.Struct(sel); err != nil {
		return Session{}, err
	}
	s := Session{ID: uid, UpdatedAt: svc.now().UTC()}
	sel.apply(&s)
	return svc.repo.UpdateSession(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	return svc.repo.DeleteSession(ctx, uid)
}
