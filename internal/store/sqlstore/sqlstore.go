// Package sqlstore keeps diary entries in a SQL table. The same code path
// serves sqlite (modernc) and postgres (lib/pq); placeholders are rebound
// per dialect by sqlx.
package sqlstore

//nolint:revive
import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/store"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	maxOpenConnection = 10
	maxIdleConnection = 10
)

type row struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open migrates the schema, then connects with the driver matching dialect.
// For sqlite, dsn is a file path.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	if err := migrateUp(dialect, dsn); err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// One writer at a time; busy_timeout avoids "database is locked" flakiness.
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL;",
			"PRAGMA busy_timeout=5000;",
		}
		for _, p := range pragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("pragma: %w", err)
			}
		}
	} else {
		db.SetMaxOpenConns(maxOpenConnection)
		db.SetMaxIdleConns(maxIdleConnection)
	}

	log.Info().Str("dialect", dialect).Msg("connected to database")

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM items ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	out := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Item{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, name string) (model.Item, error) {
	r := row{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UnixNano()}
	if _, err := s.db.NamedExecContext(ctx, `INSERT INTO items (id, name, created_at) VALUES (:id, :name, :created_at)`, r); err != nil {
		return model.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return model.Item{ID: r.ID, Name: r.Name}, nil
}

func (s *Store) Update(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE items SET name = ? WHERE id = ?`), name, id)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM items WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
