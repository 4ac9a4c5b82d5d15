// Package memstore keeps diary entries in process memory. It backs the
// "memory" driver and most tests.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

type Store struct {
	mu       sync.Mutex
	items    []model.Item
	watchers map[chan []model.Item]struct{}
	closed   bool
	done     chan struct{} // closed by Close
	wg       sync.WaitGroup
}

// New returns a store seeded with items (ids must already be set).
func New(seed ...model.Item) *Store {
	s := &Store{
		watchers: map[chan []model.Item]struct{}{},
		done:     make(chan struct{}),
	}
	s.items = append(s.items, seed...)
	return s
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *Store) Create(ctx context.Context, name string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it := model.Item{ID: uuid.NewString(), Name: name}
	s.items = append(s.items, it)
	s.notify()
	return it, nil
}

func (s *Store) Update(ctx context.Context, id, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.items, id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	s.items[i].Name = name
	s.notify()
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.items, id)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.notify()
	return nil
}

// Watch emits the current snapshot immediately and again after every mutation.
// A slow reader only ever sees the latest snapshot.
func (s *Store) Watch(ctx context.Context) (<-chan []model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("watch: store closed")
	}
	ch := make(chan []model.Item, 1)
	ch <- s.snapshot()
	s.watchers[ch] = struct{}{}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	return nil
}

func (s *Store) snapshot() []model.Item {
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// notify must be called with s.mu held.
func (s *Store) notify() {
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s.snapshot()
	}
}
