package nosql

import (
	"context"
	"time"
)

// DocumentManager is the communication seam between callers and one document
// database. Engines implement it; callers obtain one from a
// DocumentManagerFactory.
//
// Insert and Update may mutate the given entity, typically to inject a
// generated id element, and return the entity they stored. Engines that
// cannot express a requested capability, such as a TTL or a comparator their
// query language lacks, fail with an error wrapping ErrUnsupportedOperation.
type DocumentManager interface {
	// Insert stores a new entity.
	Insert(ctx context.Context, entity *DocumentEntity) (*DocumentEntity, error)

	// InsertWithTTL stores a new entity that expires after the given duration.
	InsertWithTTL(ctx context.Context, entity *DocumentEntity, ttl time.Duration) (*DocumentEntity, error)

	// InsertAll stores every given entity.
	InsertAll(ctx context.Context, entities []*DocumentEntity) ([]*DocumentEntity, error)

	// InsertAllWithTTL stores every given entity with an expiry.
	InsertAllWithTTL(ctx context.Context, entities []*DocumentEntity, ttl time.Duration) ([]*DocumentEntity, error)

	// Update replaces the stored entity carrying the same id element.
	// Updating an entity that is not stored is a no-op, not an error.
	Update(ctx context.Context, entity *DocumentEntity) (*DocumentEntity, error)

	// UpdateAll updates every given entity.
	UpdateAll(ctx context.Context, entities []*DocumentEntity) ([]*DocumentEntity, error)

	// Select returns the entities matching the query.
	// No match returns an empty slice, not an error.
	Select(ctx context.Context, query Query) ([]*DocumentEntity, error)

	// SingleResult returns the one entity matching the query.
	// The boolean reports whether a match exists; more than one match fails
	// with ErrNonUniqueResult.
	SingleResult(ctx context.Context, query Query) (*DocumentEntity, bool, error)

	// Delete removes matching entities, or only the projected fields from
	// them when the delete query names fields.
	Delete(ctx context.Context, query DeleteQuery) error

	// Count returns the number of entities stored in the collection.
	Count(ctx context.Context, collection string) (uint64, error)

	// Close releases the resources held by the manager.
	Close() error
}

// ColumnManager is the communication seam for wide-column databases.
// It carries the same operations as DocumentManager over ColumnEntity.
type ColumnManager interface {
	Insert(ctx context.Context, entity *ColumnEntity) (*ColumnEntity, error)
	InsertWithTTL(ctx context.Context, entity *ColumnEntity, ttl time.Duration) (*ColumnEntity, error)
	InsertAll(ctx context.Context, entities []*ColumnEntity) ([]*ColumnEntity, error)
	InsertAllWithTTL(ctx context.Context, entities []*ColumnEntity, ttl time.Duration) ([]*ColumnEntity, error)
	Update(ctx context.Context, entity *ColumnEntity) (*ColumnEntity, error)
	UpdateAll(ctx context.Context, entities []*ColumnEntity) ([]*ColumnEntity, error)
	Select(ctx context.Context, query Query) ([]*ColumnEntity, error)
	SingleResult(ctx context.Context, query Query) (*ColumnEntity, bool, error)
	Delete(ctx context.Context, query DeleteQuery) error
	Count(ctx context.Context, collection string) (uint64, error)
	Close() error
}

// BucketManager is the communication seam for key-value databases.
// Keys are compared by their engine representation; values travel boxed.
type BucketManager interface {
	// Put stores the value under the key, replacing any previous value.
	Put(ctx context.Context, key any, datum any) error

	// PutWithTTL stores the value under the key with an expiry.
	PutWithTTL(ctx context.Context, key any, datum any, ttl time.Duration) error

	// PutAll stores every given key-value entity.
	PutAll(ctx context.Context, entities []KeyValueEntity) error

	// Get returns the value stored under the key.
	// The boolean reports whether the key exists; absence is not an error.
	Get(ctx context.Context, key any) (Value, bool, error)

	// GetAll returns the values stored under the given keys, skipping absent ones.
	GetAll(ctx context.Context, keys []any) ([]Value, error)

	// Remove deletes the key and its value. Removing an absent key is a no-op.
	Remove(ctx context.Context, key any) error

	// RemoveAll deletes every given key.
	RemoveAll(ctx context.Context, keys []any) error

	// Close releases the resources held by the manager.
	Close() error
}

// DocumentManagerFactory hands out document managers per database name and
// owns the underlying connection.
type DocumentManagerFactory interface {
	// Get returns a manager bound to the named database.
	Get(database string) (DocumentManager, error)

	// Close releases the connection shared by the managers.
	Close() error
}

// ColumnManagerFactory hands out column managers per database name and owns
// the underlying connection.
type ColumnManagerFactory interface {
	Get(database string) (ColumnManager, error)
	Close() error
}

// BucketManagerFactory hands out bucket managers per bucket name and owns
// the underlying connection.
type BucketManagerFactory interface {
	Get(bucketName string) (BucketManager, error)
	Close() error
}
