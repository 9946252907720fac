package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	// Register the "postgres" driver for sqlx
	_ "github.com/lib/pq"
	"github.com/nsyszr/quakedb/db"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	db          *sqlx.DB
	earthquakes *earthquakeStore
}

// NewStore creates a new PostgreSQL based Storage interface
func NewStore(db *sqlx.DB) storage.Interface {
	return &store{
		db:          db,
		earthquakes: newEarthquakeStore(db),
	}
}

// Earthquakes returns a sub-store for managing the Earthquake model
func (s *store) Earthquakes() storage.EarthquakeStore {
	return s.earthquakes
}

// Ping checks that a connection can be acquired from the pool
func (s *store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases all pooled connections
func (s *store) Close() error {
	return s.db.Close()
}

// Connect opens a connection pool and waits up to timeout for the first
// connection to be established
func Connect(url string, timeout time.Duration, maxOpenConns int) (*sqlx.DB, error) {
	conn, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxOpenConns)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	return conn, nil
}

// Migrate applies the embedded schema plans and returns how many were applied
func Migrate(conn *sqlx.DB) (int, error) {
	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: db.Migrations,
		Root:       db.MigrationsRoot,
	}

	n, err := migrate.Exec(conn.DB, "postgres", migrations, migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	return n, nil
}
