// Package firestoredb binds the diary to a Cloud Firestore collection.
// Each entry is a document whose only field is "name"; the document id is
// the entry id.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

// DefaultCollection is the collection the diary reads and writes.
const DefaultCollection = "items"

const fieldName = "name"

type document struct {
	Name string `firestore:"name"`
}

// Options is the project configuration for the hosted database.
type Options struct {
	ProjectID    string
	APIKey       string
	AppID        string
	Collection   string
	EmulatorHost string
}

type Store struct {
	client *firestore.Client
	col    *firestore.CollectionRef
}

// New opens a Firestore client for the project. Without an API key the
// client falls back to application default credentials.
func New(ctx context.Context, opt Options) (*Store, error) {
	if opt.ProjectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	if opt.Collection == "" {
		opt.Collection = DefaultCollection
	}
	if opt.EmulatorHost != "" {
		// The SDK only reads the emulator address from the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", opt.EmulatorHost); err != nil {
			return nil, fmt.Errorf("firestore: set emulator host: %w", err)
		}
	}

	var opts []option.ClientOption
	if opt.APIKey != "" {
		opts = append(opts, option.WithAPIKey(opt.APIKey))
	}
	if opt.AppID != "" {
		opts = append(opts, option.WithUserAgent("dreams/"+opt.AppID))
	}

	client, err := firestore.NewClient(ctx, opt.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}

	log.Info().
		Str("project", opt.ProjectID).
		Str("collection", opt.Collection).
		Bool("emulator", opt.EmulatorHost != "").
		Msg("Connected to Firestore")

	return &Store{client: client, col: client.Collection(opt.Collection)}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	docs, err := s.col.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	return toItems(docs)
}

func (s *Store) Create(ctx context.Context, name string) (model.Item, error) {
	ref, _, err := s.col.Add(ctx, document{Name: name})
	if err != nil {
		return model.Item{}, fmt.Errorf("add document: %w", err)
	}
	return model.Item{ID: ref.ID, Name: name}, nil
}

func (s *Store) Update(ctx context.Context, id, name string) error {
	_, err := s.col.Doc(id).Update(ctx, []firestore.Update{{Path: fieldName, Value: name}})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.col.Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Watch streams query snapshots of the whole collection.
func (s *Store) Watch(ctx context.Context) (<-chan []model.Item, error) {
	it := s.col.Snapshots(ctx)
	out := make(chan []model.Item, 1)

	go func() {
		defer close(out)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) && status.Code(err) != codes.Canceled {
					log.Error().Err(err).Str("op", "watch").Msg("firestore snapshot failed")
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Error().Err(err).Str("op", "watch").Msg("failed to read snapshot documents")
				return
			}
			items, err := toItems(docs)
			if err != nil {
				log.Error().Err(err).Str("op", "watch").Msg("failed to decode snapshot")
				continue
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }

func toItems(docs []*firestore.DocumentSnapshot) ([]model.Item, error) {
	out := make([]model.Item, 0, len(docs))
	for _, d := range docs {
		var doc document
		if err := d.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.Ref.ID, err)
		}
		out = append(out, model.Item{ID: d.Ref.ID, Name: doc.Name})
	}
	return out, nil
}
