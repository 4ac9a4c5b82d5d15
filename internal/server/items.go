package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Makepad-fr/dreams/internal/failure"
	"github.com/Makepad-fr/dreams/internal/model"
)

// Diary is the Store Client surface the API serves.
type Diary interface {
	ListAll(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, id string) (model.Item, error)
	Create(ctx context.Context, name string) (model.Item, error)
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (<-chan []model.Item, bool, error)
}

// ItemRequest is the body of create and update calls.
type ItemRequest struct {
	Name string `json:"name" validate:"required,max=10000"`
}

const pingInterval = 25 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type itemHandler struct {
	diary Diary
}

func (h *itemHandler) Router(router chi.Router) {
	router.Route("/items", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/watch", h.watch)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *itemHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.diary.ListAll(r.Context())
	if err != nil {
		withError(w, failure.FromDiary(err))

		return
	}
	if items == nil {
		items = []model.Item{}
	}

	withJSON(w, http.StatusOK, items)
}

func (h *itemHandler) get(w http.ResponseWriter, r *http.Request) {
	it, err := h.diary.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		withError(w, failure.FromDiary(err))

		return
	}

	withJSON(w, http.StatusOK, it)
}

func (h *itemHandler) create(w http.ResponseWriter, r *http.Request) {
	req := ItemRequest{}
	if err := decodeAndValidate(r.Body, &req); err != nil {
		log.Debug().Err(err).Msg("invalid create request")
		withError(w, err)

		return
	}

	it, err := h.diary.Create(r.Context(), req.Name)
	if err != nil {
		withError(w, failure.FromDiary(err))

		return
	}

	withJSON(w, http.StatusCreated, it)
}

func (h *itemHandler) update(w http.ResponseWriter, r *http.Request) {
	req := ItemRequest{}
	if err := decodeAndValidate(r.Body, &req); err != nil {
		log.Debug().Err(err).Msg("invalid update request")
		withError(w, err)

		return
	}

	if err := h.diary.Update(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		withError(w, failure.FromDiary(err))

		return
	}

	withMessage(w, http.StatusOK, "item updated")
}

func (h *itemHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.diary.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		withError(w, failure.FromDiary(err))

		return
	}

	withMessage(w, http.StatusOK, "item deleted")
}

// watch streams every changefeed snapshot as a JSON array until either side
// goes away.
func (h *itemHandler) watch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, ok, err := h.diary.Watch(ctx)
	switch {
	case !ok:
		withError(w, failure.NoChangefeed)
		return
	case err != nil:
		withError(w, failure.FromDiary(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The read loop only notices the client closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case items, open := <-ch:
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "changefeed closed"))
				return
			}
			if items == nil {
				items = []model.Item{}
			}
			if err := conn.WriteJSON(items); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Debug().Err(err).Msg("websocket write failed")
				}
				return
			}
		}
	}
}
