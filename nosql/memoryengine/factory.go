package memoryengine

import (
	"sync"

	"github.com/polystore-db/polystore-go/nosql"
)

// DocumentFactory hands out one in-memory Store per database name.
// Asking for the same name twice returns the same Store.
type DocumentFactory struct {
	mu      sync.Mutex
	options []Option
	stores  map[string]*Store
}

var _ nosql.DocumentManagerFactory = (*DocumentFactory)(nil)

// NewDocumentFactory creates a DocumentFactory applying the options to every
// Store it creates.
func NewDocumentFactory(options ...Option) *DocumentFactory {
	return &DocumentFactory{options: options, stores: make(map[string]*Store)}
}

// Get returns the Store bound to the named database, creating it on first use.
func (f *DocumentFactory) Get(database string) (nosql.DocumentManager, error) {
	store, err := f.store(database)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Close closes every Store the factory handed out.
func (f *DocumentFactory) Close() error {
	return closeStores(&f.mu, &f.stores)
}

func (f *DocumentFactory) store(database string) (*Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return storeFor(f.stores, database, f.options)
}

// ColumnFactory hands out one in-memory Store per database name for the
// column-family model.
type ColumnFactory struct {
	mu      sync.Mutex
	options []Option
	stores  map[string]*Store
}

var _ nosql.ColumnManagerFactory = (*ColumnFactory)(nil)

// NewColumnFactory creates a ColumnFactory applying the options to every
// Store it creates.
func NewColumnFactory(options ...Option) *ColumnFactory {
	return &ColumnFactory{options: options, stores: make(map[string]*Store)}
}

// Get returns the Store bound to the named database, creating it on first use.
func (f *ColumnFactory) Get(database string) (nosql.ColumnManager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	store, err := storeFor(f.stores, database, f.options)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Close closes every Store the factory handed out.
func (f *ColumnFactory) Close() error {
	return closeStores(&f.mu, &f.stores)
}

// BucketFactory hands out one in-memory Bucket per bucket name.
type BucketFactory struct {
	mu      sync.Mutex
	options []Option
	buckets map[string]*Bucket
}

var _ nosql.BucketManagerFactory = (*BucketFactory)(nil)

// NewBucketFactory creates a BucketFactory applying the options to every
// Bucket it creates.
func NewBucketFactory(options ...Option) *BucketFactory {
	return &BucketFactory{options: options, buckets: make(map[string]*Bucket)}
}

// Get returns the Bucket with the given name, creating it on first use.
func (f *BucketFactory) Get(bucketName string) (nosql.BucketManager, error) {
	if bucketName == "" {
		return nil, nosql.ErrEmptyBucketName
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.buckets == nil {
		return nil, ErrClosed
	}

	if bucket, ok := f.buckets[bucketName]; ok {
		return bucket, nil
	}

	bucket, err := NewBucket(f.options...)
	if err != nil {
		return nil, err
	}

	f.buckets[bucketName] = bucket

	return bucket, nil
}

// Close closes every Bucket the factory handed out.
func (f *BucketFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, bucket := range f.buckets {
		_ = bucket.Close()
	}

	f.buckets = nil

	return nil
}

func storeFor(stores map[string]*Store, database string, options []Option) (*Store, error) {
	if database == "" {
		return nil, nosql.ErrEmptyDatabaseName
	}

	if stores == nil {
		return nil, ErrClosed
	}

	if store, ok := stores[database]; ok {
		return store, nil
	}

	store, err := NewStore(options...)
	if err != nil {
		return nil, err
	}

	stores[database] = store

	return store, nil
}

func closeStores(mu *sync.Mutex, stores *map[string]*Store) error {
	mu.Lock()
	defer mu.Unlock()

	for _, store := range *stores {
		_ = store.Close()
	}

	*stores = nil

	return nil
}
