// Package boltdb keeps local state of the command line tools in a bbolt file.
package boltdb

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var sessionBucket = []byte("Sessions")

type DB struct {
	db *bbolt.DB
}

// Open opens (or creates) the state file at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating state directory")
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening state file")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
