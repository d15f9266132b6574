package redisengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polystore-db/polystore-go/nosql"
)

const (
	logMsgValueStored   = "value stored"
	logMsgValuesLoaded  = "values loaded"
	logMsgValuesRemoved = "values removed"

	logAttrBucketKey = "key"
	logAttrKeyCount  = "keyCount"
)

// Commander is the slice of the Redis client surface the bucket uses.
// redis.UniversalClient satisfies it, as do client mocks in tests.
type Commander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Bucket is a key-value manager backed by Redis. Values are stored as JSON
// envelopes which carry enough type information to restore the original
// datum, and TTLs map onto native Redis key expiry.
//
// The bucket never owns the client connection: Close is a no-op, and the
// client's owner (typically a BucketFactory) is responsible for closing it.
type Bucket struct {
	client           Commander
	codec            codec
	keyPrefix        string
	logger           nosql.Logger
	metricsCollector nosql.MetricsCollector
	tracingCollector nosql.TracingCollector
}

var _ nosql.BucketManager = (*Bucket)(nil)

// NewBucket creates a Bucket on top of the given client.
// Returns ErrNilClient when the client is nil.
func NewBucket(client Commander, options ...Option) (*Bucket, error) {
	if client == nil {
		return nil, nosql.ErrNilClient
	}

	bucket := &Bucket{
		client: client,
		codec:  codec{converters: nosql.DefaultConverters()},
	}

	for _, option := range options {
		if err := option(bucket); err != nil {
			return nil, err
		}
	}

	return bucket, nil
}

// Put stores the value under the key, replacing any previous value.
func (b *Bucket) Put(ctx context.Context, key any, datum any) error {
	observer, ctx := b.startObserving(ctx, operationPut)

	if errorType, err := b.putOne(ctx, key, datum, 0); err != nil {
		observer.fail(errorType)
		return err
	}

	observer.succeed(1)

	return nil
}

// PutWithTTL stores the value under the key and lets Redis expire it after
// the given duration. A non-positive ttl stores the value without expiry.
func (b *Bucket) PutWithTTL(ctx context.Context, key any, datum any, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	observer, ctx := b.startObserving(ctx, operationPut)

	if errorType, err := b.putOne(ctx, key, datum, ttl); err != nil {
		observer.fail(errorType)
		return err
	}

	observer.succeed(1)

	return nil
}

// PutAll stores every given key-value entity.
func (b *Bucket) PutAll(ctx context.Context, entities []nosql.KeyValueEntity) error {
	observer, ctx := b.startObserving(ctx, operationPutAll)

	for _, entity := range entities {
		if errorType, err := b.putOne(ctx, entity.Key(), entity.Get(), 0); err != nil {
			observer.fail(errorType)
			return err
		}
	}

	observer.succeed(len(entities))

	return nil
}

// putOne renders the key, encodes the datum, and issues one SET.
// The first return names the failed stage for error metrics.
func (b *Bucket) putOne(ctx context.Context, key any, datum any, ttl time.Duration) (string, error) {
	storageKey, err := b.keyFor(key)
	if err != nil {
		return errorTypeRenderKey, err
	}

	encoded, err := b.codec.encode(datum)
	if err != nil {
		return errorTypeEncode, err
	}

	if err := b.client.Set(ctx, storageKey, encoded, ttl).Err(); err != nil {
		return errorTypeCommand, fmt.Errorf("cannot store value under %q: %w", storageKey, err)
	}

	b.logDebug(logMsgValueStored, logAttrBucketKey, storageKey)

	return "", nil
}

// Get returns the value stored under the key.
// The boolean reports whether the key exists; absence is not an error.
func (b *Bucket) Get(ctx context.Context, key any) (nosql.Value, bool, error) {
	observer, ctx := b.startObserving(ctx, operationGet)

	storageKey, err := b.keyFor(key)
	if err != nil {
		observer.fail(errorTypeRenderKey)
		return nosql.Value{}, false, err
	}

	raw, err := b.client.Get(ctx, storageKey).Result()

	switch {
	case errors.Is(err, redis.Nil):
		observer.succeed(0)
		return nosql.Value{}, false, nil
	case err != nil:
		observer.fail(errorTypeCommand)
		return nosql.Value{}, false, fmt.Errorf("cannot load value under %q: %w", storageKey, err)
	}

	value, err := b.codec.decode(raw)
	if err != nil {
		observer.fail(errorTypeDecode)
		return nosql.Value{}, false, err
	}

	observer.succeed(1)

	return value, true, nil
}

// GetAll returns the values stored under the given keys, skipping absent ones.
func (b *Bucket) GetAll(ctx context.Context, keys []any) ([]nosql.Value, error) {
	observer, ctx := b.startObserving(ctx, operationGetAll)

	if len(keys) == 0 {
		observer.succeed(0)
		return []nosql.Value{}, nil
	}

	storageKeys, err := b.keysFor(keys)
	if err != nil {
		observer.fail(errorTypeRenderKey)
		return nil, err
	}

	raws, err := b.client.MGet(ctx, storageKeys...).Result()
	if err != nil {
		observer.fail(errorTypeCommand)
		return nil, fmt.Errorf("cannot load values: %w", err)
	}

	values := make([]nosql.Value, 0, len(raws))

	for _, raw := range raws {
		if raw == nil {
			continue
		}

		rendered, ok := raw.(string)
		if !ok {
			observer.fail(errorTypeDecode)
			return nil, fmt.Errorf("unexpected reply of type %T from MGET", raw)
		}

		value, err := b.codec.decode(rendered)
		if err != nil {
			observer.fail(errorTypeDecode)
			return nil, err
		}

		values = append(values, value)
	}

	b.logDebug(logMsgValuesLoaded, logAttrKeyCount, len(values))
	observer.succeed(len(values))

	return values, nil
}

// Remove deletes the key and its value. Removing an absent key is a no-op.
func (b *Bucket) Remove(ctx context.Context, key any) error {
	observer, ctx := b.startObserving(ctx, operationRemove)

	storageKey, err := b.keyFor(key)
	if err != nil {
		observer.fail(errorTypeRenderKey)
		return err
	}

	if err := b.client.Del(ctx, storageKey).Err(); err != nil {
		observer.fail(errorTypeCommand)
		return fmt.Errorf("cannot remove value under %q: %w", storageKey, err)
	}

	b.logDebug(logMsgValuesRemoved, logAttrBucketKey, storageKey)
	observer.succeed(1)

	return nil
}

// RemoveAll deletes every given key.
func (b *Bucket) RemoveAll(ctx context.Context, keys []any) error {
	observer, ctx := b.startObserving(ctx, operationRemoveAll)

	if len(keys) == 0 {
		observer.succeed(0)
		return nil
	}

	storageKeys, err := b.keysFor(keys)
	if err != nil {
		observer.fail(errorTypeRenderKey)
		return err
	}

	if err := b.client.Del(ctx, storageKeys...).Err(); err != nil {
		observer.fail(errorTypeCommand)
		return fmt.Errorf("cannot remove values: %w", err)
	}

	b.logDebug(logMsgValuesRemoved, logAttrKeyCount, len(storageKeys))
	observer.succeed(len(storageKeys))

	return nil
}

// Close is a no-op: the client is owned by whoever created it.
func (b *Bucket) Close() error {
	return nil
}

func (b *Bucket) keyFor(key any) (string, error) {
	if key == nil {
		return "", nosql.ErrNilKey
	}

	rendered, err := nosql.As[string](nosql.ValueOf(key))
	if err != nil {
		return "", fmt.Errorf("cannot render key of type %T: %w", key, err)
	}

	return b.keyPrefix + rendered, nil
}

func (b *Bucket) keysFor(keys []any) ([]string, error) {
	storageKeys := make([]string, 0, len(keys))

	for _, key := range keys {
		storageKey, err := b.keyFor(key)
		if err != nil {
			return nil, err
		}

		storageKeys = append(storageKeys, storageKey)
	}

	return storageKeys, nil
}

func (b *Bucket) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
