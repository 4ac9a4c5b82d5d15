package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/dreams/internal/config"
	"github.com/Makepad-fr/dreams/internal/diary"
	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/server"
	"github.com/Makepad-fr/dreams/internal/store"
	"github.com/Makepad-fr/dreams/internal/store/jsonstore"
	"github.com/Makepad-fr/dreams/internal/store/memstore"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newHandler(t *testing.T, s store.Store) http.Handler {
	t.Helper()
	t.Cleanup(func() { _ = s.Close() })
	cfg := config.Default()
	return server.New(cfg, diary.New(s, time.Second)).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealthz(t *testing.T) {
	h := newHandler(t, memstore.New())
	code, env := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Message)
}

func TestItemsCRUD(t *testing.T) {
	h := newHandler(t, memstore.New())

	code, env := do(t, h, http.MethodGet, "/v1/items", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = do(t, h, http.MethodPost, "/v1/items", `{"name":"  Flying over the ocean "}`)
	require.Equal(t, http.StatusCreated, code)
	var created model.Item
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Flying over the ocean", created.Name)

	code, env = do(t, h, http.MethodGet, "/v1/items/"+created.ID, "")
	require.Equal(t, http.StatusOK, code)
	var got model.Item
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created, got)

	code, _ = do(t, h, http.MethodPatch, "/v1/items/"+created.ID, `{"name":"Falling"}`)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, h, http.MethodGet, "/v1/items", "")
	require.Equal(t, http.StatusOK, code)
	var items []model.Item
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Equal(t, []model.Item{{ID: created.ID, Name: "Falling"}}, items)

	code, _ = do(t, h, http.MethodDelete, "/v1/items/"+created.ID, "")
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodGet, "/v1/items/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestItemsErrors(t *testing.T) {
	h := newHandler(t, memstore.New())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		msg    string
	}{
		{name: "missing name", method: http.MethodPost, path: "/v1/items", body: `{}`, code: http.StatusBadRequest, msg: "name is required"},
		{name: "blank name", method: http.MethodPost, path: "/v1/items", body: `{"name":"   "}`, code: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, path: "/v1/items", body: `{`, code: http.StatusBadRequest},
		{name: "update unknown", method: http.MethodPatch, path: "/v1/items/nope", body: `{"name":"x"}`, code: http.StatusNotFound},
		{name: "get unknown", method: http.MethodGet, path: "/v1/items/nope", code: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/v2/items", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, env.Error)
			}
		})
	}
}

func TestDeleteUnknownIsOK(t *testing.T) {
	h := newHandler(t, memstore.New())
	code, _ := do(t, h, http.MethodDelete, "/v1/items/nope", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestWatchWithoutChangefeed(t *testing.T) {
	s, err := jsonstore.New(filepath.Join(t.TempDir(), "dreams.json"))
	require.NoError(t, err)
	h := newHandler(t, s)

	code, env := do(t, h, http.MethodGet, "/v1/items/watch", "")
	assert.Equal(t, http.StatusNotImplemented, code)
	assert.NotEmpty(t, env.Error)
}

func TestWatchStreamsSnapshots(t *testing.T) {
	s := memstore.New(model.Item{ID: "1", Name: "first"})
	srv := httptest.NewServer(newHandler(t, s))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/items/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var items []model.Item
	require.NoError(t, conn.ReadJSON(&items))
	assert.Equal(t, []model.Item{{ID: "1", Name: "first"}}, items)

	_, err = s.Create(context.Background(), "second")
	require.NoError(t, err)

	require.NoError(t, conn.ReadJSON(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[1].Name)
}

func TestCORS(t *testing.T) {
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })
	cfg := config.Default()
	cfg.Server.CORS.Enable = true
	cfg.Server.CORS.AllowedOrigins = []string{"https://dreams.example"}
	h := server.New(cfg, diary.New(s, time.Second)).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/items", nil)
	req.Header.Set("Origin", "https://dreams.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://dreams.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })
	srv := server.New(config.Default(), diary.New(s, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
