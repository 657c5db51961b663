package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/user"
)

// DB is an in-memory database for tests and local hacking.
type DB struct {
	user *userTable
}

type userTable struct {
	sync.RWMutex
	table map[string]*user.User
}

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
	}
}
