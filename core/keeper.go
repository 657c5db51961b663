package core

import (
	"context"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by Keeper.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Keeper is any persisted key-value storage capability. Session, credential
// and theme state are kept under fixed keys; implementations live in storage/kv.
type Keeper interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
