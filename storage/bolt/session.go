package boltdb

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/trezcool/apsas/core/session"
)

type sessionRepository struct {
	db *bbolt.DB
}

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.db}
}

func put(b *bbolt.Bucket, s session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.Put(s.ID[:], data)
}

func get(b *bbolt.Bucket, id uuid.UUID) (session.Session, error) {
	data := b.Get(id[:])
	if data == nil {
		return session.Session{}, session.ErrNotFound
	}
	var s session.Session
	err := json.Unmarshal(data, &s)
	return s, err
}

func (repo *sessionRepository) CreateSession(_ context.Context, s session.Session) (session.Session, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(sessionBucket), s)
	})
	if err != nil {
		return session.Session{}, err
	}
	return s, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id uuid.UUID) (s session.Session, err error) {
	err = repo.db.View(func(tx *bbolt.Tx) error {
		s, err = get(tx.Bucket(sessionBucket), id)
		return err
	})
	return s, err
}

func (repo *sessionRepository) UpdateSession(_ context.Context, s session.Session) (session.Session, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		orig, err := get(b, s.ID)
		if err != nil {
			return err
		}
		s.CreatedAt = orig.CreatedAt
		return put(b, s)
	})
	if err != nil {
		return session.Session{}, err
	}
	return s, nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id uuid.UUID) error {
	return repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if b.Get(id[:]) == nil {
			return session.ErrNotFound
		}
		return b.Delete(id[:])
	})
}
