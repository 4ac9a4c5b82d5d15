package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
	"github.com/Makepad-fr/dreams/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(filepath.Join(t.TempDir(), "dreams.json"))
		require.NoError(t, err)
		return s
	})
}

func TestFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dreams.json")
	s, err := New(path)
	require.NoError(t, err)

	it, err := s.Create(context.Background(), "Flying over the ocean")
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []model.Item
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []model.Item{it}, got)
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreams.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := New(path)
	require.NoError(t, err)

	_, err = s.List(context.Background())
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), s.Path())
}
