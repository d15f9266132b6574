package postgresengine

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/postgresengine/internal/adapters"
)

// ErrClosed is returned when a factory is asked for a manager after Close.
var ErrClosed = errors.New("postgres engine is closed")

// connection bundles the shared database adapter with its closer and the
// stores handed out over it. Factories own the connection; stores do not.
type connection struct {
	mu      sync.Mutex
	db      adapters.DBAdapter
	closeDB func() error
	options []Option
	stores  map[string]*Store
}

func newConnection(db adapters.DBAdapter, closeDB func() error, options []Option) *connection {
	return &connection{
		db:      db,
		closeDB: closeDB,
		options: options,
		stores:  make(map[string]*Store),
	}
}

func (c *connection) store(database string) (*Store, error) {
	if database == "" {
		return nil, nosql.ErrEmptyDatabaseName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil, ErrClosed
	}

	if store, ok := c.stores[database]; ok {
		return store, nil
	}

	// the database name binds the store to its own table
	store, err := newStore(c.db, append(slices.Clone(c.options), WithTableName(database)))
	if err != nil {
		return nil, err
	}

	c.stores[database] = store

	return store, nil
}

func (c *connection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	c.db = nil
	c.stores = nil

	return c.closeDB()
}

// DocumentFactory hands out document managers sharing one Postgres
// connection. Each database name maps to its own table, so separate
// databases keep separate entity sets. Asking for the same name twice
// returns the same Store.
type DocumentFactory struct {
	conn *connection
}

var _ nosql.DocumentManagerFactory = (*DocumentFactory)(nil)

// NewDocumentFactoryFromPGXPool creates a DocumentFactory over a pgx pool.
// Closing the factory closes the pool.
func NewDocumentFactoryFromPGXPool(pool *pgxpool.Pool, options ...Option) (*DocumentFactory, error) {
	if pool == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	conn := newConnection(
		adapters.NewPGXAdapter(pool),
		func() error { pool.Close(); return nil },
		options,
	)

	return &DocumentFactory{conn: conn}, nil
}

// NewDocumentFactoryFromSettings opens a pgx pool for the configured database
// and creates a DocumentFactory owning it.
func NewDocumentFactoryFromSettings(ctx context.Context, settings nosql.Settings, options ...Option) (*DocumentFactory, error) {
	pool, err := PGXPoolFromSettings(ctx, settings)
	if err != nil {
		return nil, err
	}

	return NewDocumentFactoryFromPGXPool(pool, options...)
}

// Get returns a manager whose entities live in the table named after the database.
func (f *DocumentFactory) Get(database string) (nosql.DocumentManager, error) {
	store, err := f.conn.store(database)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Close closes the shared connection. Further Get calls fail with ErrClosed.
func (f *DocumentFactory) Close() error {
	return f.conn.close()
}

// ColumnFactory hands out column managers sharing one Postgres connection.
type ColumnFactory struct {
	conn *connection
}

var _ nosql.ColumnManagerFactory = (*ColumnFactory)(nil)

// NewColumnFactoryFromPGXPool creates a ColumnFactory over a pgx pool.
// Closing the factory closes the pool.
func NewColumnFactoryFromPGXPool(pool *pgxpool.Pool, options ...Option) (*ColumnFactory, error) {
	if pool == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	conn := newConnection(
		adapters.NewPGXAdapter(pool),
		func() error { pool.Close(); return nil },
		options,
	)

	return &ColumnFactory{conn: conn}, nil
}

// NewColumnFactoryFromSettings opens a pgx pool for the configured database
// and creates a ColumnFactory owning it.
func NewColumnFactoryFromSettings(ctx context.Context, settings nosql.Settings, options ...Option) (*ColumnFactory, error) {
	pool, err := PGXPoolFromSettings(ctx, settings)
	if err != nil {
		return nil, err
	}

	return NewColumnFactoryFromPGXPool(pool, options...)
}

// Get returns a manager whose entities live in the table named after the database.
func (f *ColumnFactory) Get(database string) (nosql.ColumnManager, error) {
	store, err := f.conn.store(database)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Close closes the shared connection. Further Get calls fail with ErrClosed.
func (f *ColumnFactory) Close() error {
	return f.conn.close()
}
