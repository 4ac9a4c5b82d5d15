package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/dreams/internal/store"
	"github.com/Makepad-fr/dreams/internal/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	return s, mr
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestWatch(t *testing.T) {
	storetest.RunWatch(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestDocumentShape(t *testing.T) {
	s, mr := newTestStore(t)
	defer s.Close()

	it, err := s.Create(context.Background(), "Flying over the ocean")
	require.NoError(t, err)

	assert.Equal(t, `{"name":"Flying over the ocean"}`, mr.HGet(DefaultKey, it.ID))
	order, err := mr.List(DefaultKey + ":order")
	require.NoError(t, err)
	assert.Equal(t, []string{it.ID}, order)
}

func TestCustomKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: mr.Addr()})
	s := NewWithClient(client, "dreams")
	defer s.Close()

	_, err := s.Create(context.Background(), "lucid")
	require.NoError(t, err)
	assert.True(t, mr.Exists("dreams"))
	assert.False(t, mr.Exists(DefaultKey))
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}
