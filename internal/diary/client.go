// Package diary is the Store Client: the one binding between the
// application surfaces (TUI, CLI, HTTP) and a store backend.
package diary

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

const defaultTimeout = 10 * time.Second

// Client validates names, applies a per-call timeout and logs every remote
// failure before returning it. Nothing is retried.
type Client struct {
	store   store.Store
	timeout time.Duration
}

func New(s store.Store, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{store: s, timeout: timeout}
}

// ListAll fetches the whole collection.
func (c *Client) ListAll(ctx context.Context) (items []model.Item, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	items, err = c.store.List(ctx)
	if err != nil {
		log.Error().Err(err).Str("op", "list").Msg("failed to get items")

		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	return items, nil
}

// Create stores a new entry. A blank name fails with model.ErrEmptyName
// without touching the store.
func (c *Client) Create(ctx context.Context, name string) (model.Item, error) {
	name, err := model.NormalizeName(name)
	if err != nil {
		return model.Item{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	it, err := c.store.Create(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("op", "create").Msg("failed to create item")

		return model.Item{}, fmt.Errorf("failed to create item: %w", err)
	}

	log.Debug().Str("op", "create").Str("id", it.ID).Msg("item created")

	return it, nil
}

// Update replaces the name of entry id. A blank name fails with
// model.ErrEmptyName without touching the store.
func (c *Client) Update(ctx context.Context, id, name string) error {
	name, err := model.NormalizeName(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.Update(ctx, id, name); err != nil {
		log.Error().Err(err).Str("op", "update").Str("id", id).Msg("failed to update item")

		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// Delete removes entry id.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("op", "delete").Str("id", id).Msg("failed to delete item")

		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}

// Get finds entry id in a full listing; the collection has no point reads.
func (c *Client) Get(ctx context.Context, id string) (model.Item, error) {
	items, err := c.ListAll(ctx)
	if err != nil {
		return model.Item{}, err
	}
	if i := model.IndexOf(items, id); i >= 0 {
		return items[i], nil
	}
	return model.Item{}, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
}

// Watch subscribes to the backend changefeed. ok is false when the backend
// has none. The channel closes when ctx ends.
func (c *Client) Watch(ctx context.Context) (ch <-chan []model.Item, ok bool, err error) {
	w, ok := c.store.(store.Watcher)
	if !ok {
		return nil, false, nil
	}

	ch, err = w.Watch(ctx)
	if err != nil {
		log.Error().Err(err).Str("op", "watch").Msg("failed to watch items")

		return nil, true, fmt.Errorf("failed to watch items: %w", err)
	}

	return ch, true, nil
}
