package redisengine_test

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/redisengine"
)

// newIdleClient builds a client that never dials: connections are opened
// lazily on the first command, and these tests issue none.
func newIdleClient() redis.UniversalClient {
	return redis.NewClient(&redis.Options{Addr: "localhost:6379"})
}

func Test_BucketFactory_ImplementsFactoryContract(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient())
	require.NoError(t, err)

	defer factory.Close()

	assert.Implements(t, (*nosql.BucketManagerFactory)(nil), factory)
}

func Test_NewBucketFactory_WithNilClient_Fails(t *testing.T) {
	_, err := redisengine.NewBucketFactory(nil)

	assert.ErrorIs(t, err, nosql.ErrNilClient)
}

func Test_BucketFactory_HandsOutBuckets(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient())
	require.NoError(t, err)

	defer factory.Close()

	bucket, err := factory.Get("sessions")

	require.NoError(t, err)
	assert.NotNil(t, bucket)
}

func Test_BucketFactory_ValidatesBucketName(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient())
	require.NoError(t, err)

	defer factory.Close()

	_, err = factory.Get("")

	assert.ErrorIs(t, err, nosql.ErrEmptyBucketName)
}

func Test_BucketFactory_RejectsBrokenOptions(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient(), redisengine.WithLogger(nil))
	require.NoError(t, err)

	defer factory.Close()

	_, err = factory.Get("sessions")

	assert.ErrorContains(t, err, "logger must not be nil")
}

func Test_BucketFactory_Close_BlocksFurtherGets(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient())
	require.NoError(t, err)

	require.NoError(t, factory.Close())

	_, err = factory.Get("sessions")

	assert.ErrorIs(t, err, redisengine.ErrClosed)
}

func Test_BucketFactory_Close_IsIdempotent(t *testing.T) {
	factory, err := redisengine.NewBucketFactory(newIdleClient())
	require.NoError(t, err)

	require.NoError(t, factory.Close())
	assert.NoError(t, factory.Close())
}

func Test_NewBucketFactoryFromSettings_ConnectsLazily(t *testing.T) {
	settings := nosql.NewSettings(map[string]any{
		nosql.SettingHost: "localhost",
		nosql.SettingPort: 6379,
	})

	factory, err := redisengine.NewBucketFactoryFromSettings(settings)
	require.NoError(t, err)

	assert.NoError(t, factory.Close())
}
