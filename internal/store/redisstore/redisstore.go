// Package redisstore keeps diary entries in redis.
//
// Layout for a key prefix K:
//
//	K         hash  id -> {"name": ...}
//	K:order   list  ids in insertion order
//	K:changes pub/sub channel, one message per mutation
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

// DefaultKey mirrors the document collection name.
const DefaultKey = "items"

type document struct {
	Name string `json:"name"`
}

type Store struct {
	client *goRedis.Client
	key    string
}

// Options configures a redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// New connects and pings the server.
func New(ctx context.Context, opt Options) (*Store, error) {
	client := goRedis.NewClient(&goRedis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info().
		Int("db", opt.DB).
		Str("addr", opt.Addr).
		Msg("Connected to Redis")

	return NewWithClient(client, opt.Key), nil
}

// NewWithClient wraps an existing client. An empty key means DefaultKey.
func NewWithClient(client *goRedis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

func (s *Store) orderKey() string   { return s.key + ":order" }
func (s *Store) changesKey() string { return s.key + ":changes" }

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	ids, err := s.client.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	vals, err := s.client.HMGet(ctx, s.key, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	out := make([]model.Item, 0, len(ids))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Order entry without a document; a concurrent delete is mid-flight.
			continue
		}
		var doc document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item %s: %w", ids[i], err)
		}
		out = append(out, model.Item{ID: ids[i], Name: doc.Name})
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, name string) (model.Item, error) {
	it := model.Item{ID: uuid.NewString(), Name: name}
	raw, err := json.Marshal(document{Name: name})
	if err != nil {
		return model.Item{}, fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
		pipe.HSet(ctx, s.key, it.ID, raw)
		pipe.RPush(ctx, s.orderKey(), it.ID)
		pipe.Publish(ctx, s.changesKey(), it.ID)
		return nil
	})
	if err != nil {
		return model.Item{}, fmt.Errorf("failed to create item: %w", err)
	}
	return it, nil
}

func (s *Store) Update(ctx context.Context, id, name string) error {
	raw, err := json.Marshal(document{Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	// WATCH the hash so a concurrent delete aborts the write instead of
	// resurrecting the document.
	txf := func(tx *goRedis.Tx) error {
		exists, err := tx.HExists(ctx, s.key, id).Result()
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
			pipe.HSet(ctx, s.key, id, raw)
			pipe.Publish(ctx, s.changesKey(), id)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, s.key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goRedis.Pipeliner) error {
		pipe.HDel(ctx, s.key, id)
		pipe.LRem(ctx, s.orderKey(), 0, id)
		pipe.Publish(ctx, s.changesKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Watch subscribes to the change channel and re-lists on every message.
func (s *Store) Watch(ctx context.Context) (<-chan []model.Item, error) {
	sub := s.client.Subscribe(ctx, s.changesKey())
	// Wait for the subscription confirmation so no mutation is missed
	// between here and the first snapshot.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan []model.Item, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		emit := func() bool {
			items, err := s.List(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Str("op", "watch").Msg("failed to list items")
				}
				return ctx.Err() == nil
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return false
			}
			return true
		}

		if !emit() {
			return
		}
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }
