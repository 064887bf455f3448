package pgx

import (
	"context"
	"embed"
	"errors"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hopgraph/hopgraph/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on PostgreSQL with pgvector
// for similarity search. Graph writes are serialized with a mutex so the
// merge path observes its own entity upserts in order.
type GraphDBStorage struct {
	conn   pgxIConn
	dsn    string
	dbLock sync.Mutex
}

// NewGraphDBStorageWithConnection creates a new GraphDBStorage using an
// existing database connection or pool. The DSN is only needed for Migrate
// and may be empty when migrations are run elsewhere.
func NewGraphDBStorageWithConnection(conn pgxIConn, dsn string) *GraphDBStorage {
	return &GraphDBStorage{
		conn:   conn,
		dsn:    dsn,
		dbLock: sync.Mutex{},
	}
}

// Migrate applies the embedded schema migrations.
func (s *GraphDBStorage) Migrate(ctx context.Context) error {
	if s.dsn == "" {
		return errors.New("no database url configured for migrations")
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, s.dsn)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.Close()
		return err
	}

	logger.Debug("[Store] Migrations applied")

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
