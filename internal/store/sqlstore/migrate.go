package sqlstore

//nolint:revive
import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

//go:embed migrations
var migrations embed.FS

const migrationTable = "dreams_schema_migrations"

// migrateUp applies the embedded migrations for dialect on a dedicated
// connection, which is closed before returning.
func migrateUp(dialect, dsn string) error {
	src, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	db, err := sqlx.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", dialect, err)
	}

	var driver database.Driver
	switch dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{MigrationsTable: migrationTable})
	case DialectPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: migrationTable})
	default:
		_ = db.Close()
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("error creating migrate instance: %w", err)
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	log.Debug().Str("dialect", dialect).Msg("database migrations completed successfully")

	return nil
}
