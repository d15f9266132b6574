package memoryengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/polystore-db/polystore-go/nosql"
)

const (
	logMsgValuePut     = "value put"
	logMsgValueRemoved = "value removed"
	logAttrBucketKey   = "key"
)

// bucketEntry pairs a stored value with its expiry. A zero expiresAt never expires.
type bucketEntry struct {
	value     nosql.Value
	expiresAt time.Time
}

func (e bucketEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Bucket is the in-memory key-value engine. Keys are compared by their string
// rendering, so Get(1) finds what Put("1", ...) stored. Expired values are
// skipped by reads and swept by the next write.
//
// A Bucket is safe for concurrent use.
type Bucket struct {
	config
	mu      sync.RWMutex
	entries map[string]bucketEntry
}

var _ nosql.BucketManager = (*Bucket)(nil)

// NewBucket creates an empty Bucket with optional configuration.
func NewBucket(options ...Option) (*Bucket, error) {
	cfg := defaultConfig()

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	return &Bucket{config: cfg, entries: make(map[string]bucketEntry)}, nil
}

// Put stores the value under the key, replacing any previous value.
func (b *Bucket) Put(ctx context.Context, key any, datum any) error {
	return b.put(ctx, key, datum, 0)
}

// PutWithTTL stores the value under the key with an expiry.
// A non-positive ttl stores the value without one.
func (b *Bucket) PutWithTTL(ctx context.Context, key any, datum any, ttl time.Duration) error {
	return b.put(ctx, key, datum, ttl)
}

// PutAll stores every given key-value entity.
func (b *Bucket) PutAll(ctx context.Context, entities []nosql.KeyValueEntity) error {
	for _, entity := range entities {
		if err := b.put(ctx, entity.Key(), entity.Value(), 0); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bucket) put(ctx context.Context, key any, datum any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	keyString, err := keyFor(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		return ErrClosed
	}

	now := b.clock()
	b.sweepLocked(now)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	b.entries[keyString] = bucketEntry{value: nosql.ValueOf(datum), expiresAt: expiresAt}

	b.logDebug(logMsgValuePut, logAttrBucketKey, keyString)

	return nil
}

// Get returns the value stored under the key.
// The boolean reports whether the key exists; absence is not an error.
func (b *Bucket) Get(ctx context.Context, key any) (nosql.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return nosql.Value{}, false, err
	}

	keyString, err := keyFor(key)
	if err != nil {
		return nosql.Value{}, false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.entries == nil {
		return nosql.Value{}, false, ErrClosed
	}

	entry, ok := b.entries[keyString]
	if !ok || entry.expired(b.clock()) {
		return nosql.Value{}, false, nil
	}

	return entry.value, true, nil
}

// GetAll returns the values stored under the given keys, skipping absent ones.
func (b *Bucket) GetAll(ctx context.Context, keys []any) ([]nosql.Value, error) {
	values := make([]nosql.Value, 0, len(keys))

	for _, key := range keys {
		value, ok, err := b.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		values = append(values, value)
	}

	return values, nil
}

// Remove deletes the key and its value. Removing an absent key is a no-op.
func (b *Bucket) Remove(ctx context.Context, key any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	keyString, err := keyFor(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		return ErrClosed
	}

	delete(b.entries, keyString)

	b.logDebug(logMsgValueRemoved, logAttrBucketKey, keyString)

	return nil
}

// RemoveAll deletes every given key.
func (b *Bucket) RemoveAll(ctx context.Context, keys []any) error {
	for _, key := range keys {
		if err := b.Remove(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the stored values. Every operation after Close fails with ErrClosed.
func (b *Bucket) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = nil

	return nil
}

// sweepLocked drops expired entries. Callers hold the write lock.
func (b *Bucket) sweepLocked(now time.Time) {
	for key, entry := range b.entries {
		if entry.expired(now) {
			delete(b.entries, key)
		}
	}
}

// keyFor renders a key as the map key string.
func keyFor(key any) (string, error) {
	if key == nil {
		return "", nosql.ErrNilKey
	}

	keyString, err := nosql.As[string](nosql.ValueOf(key))
	if err != nil {
		return "", fmt.Errorf("cannot render key %T: %w", key, err)
	}

	return keyString, nil
}
