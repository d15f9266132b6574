package redisengine

import (
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/polystore-db/polystore-go/nosql"
)

// ErrClosed is returned by factory operations after Close.
var ErrClosed = errors.New("redis engine is closed")

// BucketFactory hands out buckets sharing one Redis client. Buckets are
// namespaced by prefixing every key with the bucket name, so distinct buckets
// never see each other's keys.
//
// The factory owns the client: Close closes it for all buckets it handed out.
type BucketFactory struct {
	mu      sync.Mutex
	client  redis.UniversalClient
	options []Option
}

var _ nosql.BucketManagerFactory = (*BucketFactory)(nil)

// NewBucketFactory creates a factory on top of an existing client.
// Returns ErrNilClient when the client is nil.
func NewBucketFactory(client redis.UniversalClient, options ...Option) (*BucketFactory, error) {
	if client == nil {
		return nil, nosql.ErrNilClient
	}

	return &BucketFactory{client: client, options: options}, nil
}

// NewBucketFactoryFromSettings connects a client from the settings bag and
// wraps it in a factory.
func NewBucketFactoryFromSettings(settings nosql.Settings, options ...Option) (*BucketFactory, error) {
	return NewBucketFactory(redis.NewUniversalClient(OptionsFromSettings(settings)), options...)
}

// Get returns a bucket bound to the given name.
// Returns ErrEmptyBucketName when the name is empty.
func (f *BucketFactory) Get(bucketName string) (nosql.BucketManager, error) {
	if bucketName == "" {
		return nil, nosql.ErrEmptyBucketName
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil, ErrClosed
	}

	options := make([]Option, 0, len(f.options)+1)
	options = append(options, f.options...)
	options = append(options, WithKeyPrefix(bucketName+":"))

	return NewBucket(f.client, options...)
}

// Close closes the shared client. Buckets handed out before keep their
// reference but every operation on them will fail from here on.
func (f *BucketFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil
	}

	err := f.client.Close()
	f.client = nil

	return err
}
