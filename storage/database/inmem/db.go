package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/apsas/core/session"
)

type (
	DB struct {
		session *sessionTable
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[uuid.UUID]*session.Session
	}
)

func Open() *DB {
	return &DB{
		session: &sessionTable{table: make(map[uuid.UUID]*session.Session)},
	}
}
