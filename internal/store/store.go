// Package store defines the contract every diary backend implements.
//
// Backends live in subpackages (firestoredb, redisstore, sqlstore, jsonstore,
// memstore); internal/backend picks one from configuration.
package store

import (
	"context"
	"errors"

	"github.com/Makepad-fr/dreams/internal/model"
)

// ErrNotFound is returned by Update when the id does not exist.
var ErrNotFound = errors.New("item not found")

// Store is a collection of diary entries held by a backend.
//
// Delete of a missing id is not an error. Names reaching a Store are
// already normalized.
type Store interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, name string) (model.Item, error)
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Watcher is implemented by backends that can push full snapshots of the
// collection whenever it changes. The channel is closed once ctx is done or
// the feed fails.
type Watcher interface {
	Watch(ctx context.Context) (<-chan []model.Item, error)
}
