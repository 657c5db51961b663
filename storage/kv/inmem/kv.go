package kvinmem

import (
	"context"
	"sync"

	"github.com/trezcool/shule/core"
)

// Keeper is an in-memory core.Keeper, used in tests and local dev.
type Keeper struct {
	mu    sync.RWMutex
	table map[string]string
}

var _ core.Keeper = (*Keeper)(nil) // interface compliance check

func New() *Keeper {
	return &Keeper{table: make(map[string]string)}
}

func (k *Keeper) Get(_ context.Context, key string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if val, ok := k.table[key]; ok {
		return val, nil
	}
	return "", core.ErrKeyNotFound
}

func (k *Keeper) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.table[key] = value
	return nil
}

func (k *Keeper) Remove(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.table, key)
	return nil
}
