// Package storetest is a conformance suite shared by every store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

// Factory returns a fresh, empty store. Run closes it.
type Factory func(t *testing.T) store.Store

// Run exercises the Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("EmptyList", func(t *testing.T) {
		s := open(t, newStore)
		items, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("CreateAddsExactlyOneRecord", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStore)
		_, err := s.Create(ctx, "Falling")
		require.NoError(t, err)

		before, err := s.List(ctx)
		require.NoError(t, err)

		created, err := s.Create(ctx, "Flying over the ocean")
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "Flying over the ocean", created.Name)

		after, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		assert.Equal(t, 1, countNamed(after, "Flying over the ocean"))
		assert.GreaterOrEqual(t, model.IndexOf(after, created.ID), 0)
	})

	t.Run("CreateAssignsDistinctIDs", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStore)
		a, err := s.Create(ctx, "same")
		require.NoError(t, err)
		b, err := s.Create(ctx, "same")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("UpdateKeepsID", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStore)
		it, err := s.Create(ctx, "A")
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, it.ID, "B"))

		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, countNamed(items, "A"))
		assert.Equal(t, 1, countNamed(items, "B"))
		if diff := cmp.Diff([]model.Item{{ID: it.ID, Name: "B"}}, items); diff != "" {
			t.Fatalf("items mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UpdateUnknownID", func(t *testing.T) {
		s := open(t, newStore)
		err := s.Update(context.Background(), "does-not-exist", "B")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DeleteRemovesID", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStore)
		keep, err := s.Create(ctx, "keep")
		require.NoError(t, err)
		gone, err := s.Create(ctx, "gone")
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, gone.ID))

		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, -1, model.IndexOf(items, gone.ID))
		assert.GreaterOrEqual(t, model.IndexOf(items, keep.ID), 0)
	})

	t.Run("DeleteUnknownID", func(t *testing.T) {
		s := open(t, newStore)
		require.NoError(t, s.Delete(context.Background(), "does-not-exist"))
	})
}

// RunWatch checks the changefeed of a store that implements store.Watcher.
func RunWatch(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("SnapshotAfterMutation", func(t *testing.T) {
		s := open(t, newStore)
		w, ok := s.(store.Watcher)
		require.True(t, ok, "store does not implement store.Watcher")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := w.Watch(ctx)
		require.NoError(t, err)

		created, err := s.Create(ctx, "watched")
		require.NoError(t, err)

		deadline := time.After(5 * time.Second)
		for {
			select {
			case items, ok := <-ch:
				require.True(t, ok, "watch channel closed early")
				if model.IndexOf(items, created.ID) >= 0 {
					return
				}
			case <-deadline:
				t.Fatal("no snapshot with the created item")
			}
		}
	})

	t.Run("ClosesOnCancel", func(t *testing.T) {
		s := open(t, newStore)
		w := s.(store.Watcher)

		ctx, cancel := context.WithCancel(context.Background())
		ch, err := w.Watch(ctx)
		require.NoError(t, err)
		cancel()

		deadline := time.After(5 * time.Second)
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("watch channel not closed after cancel")
			}
		}
	})
}

func open(t *testing.T, newStore Factory) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countNamed(items []model.Item, name string) int {
	n := 0
	for _, it := range items {
		if it.Name == name {
			n++
		}
	}
	return n
}
