package redisengine_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/redisengine"
	"github.com/polystore-db/polystore-go/testutil/testdoubles"
)

/*** Test doubles ***/

type setCall struct {
	key        string
	value      string
	expiration time.Duration
}

// fakeCommander keeps the encoded values in a plain map and answers with the
// result helpers the redis package ships for client mocks.
type fakeCommander struct {
	store    map[string]string
	setCalls []setCall
	failWith error
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{store: make(map[string]string)}
}

func (f *fakeCommander) Set(
	_ context.Context,
	key string,
	value any,
	expiration time.Duration,
) *redis.StatusCmd {
	if f.failWith != nil {
		return redis.NewStatusResult("", f.failWith)
	}

	rendered, _ := value.(string)
	f.store[key] = rendered
	f.setCalls = append(f.setCalls, setCall{key: key, value: rendered, expiration: expiration})

	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommander) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failWith != nil {
		return redis.NewStringResult("", f.failWith)
	}

	raw, ok := f.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}

	return redis.NewStringResult(raw, nil)
}

func (f *fakeCommander) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	if f.failWith != nil {
		return redis.NewSliceResult(nil, f.failWith)
	}

	replies := make([]any, len(keys))

	for i, key := range keys {
		if raw, ok := f.store[key]; ok {
			replies[i] = raw
		}
	}

	return redis.NewSliceResult(replies, nil)
}

func (f *fakeCommander) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failWith != nil {
		return redis.NewIntResult(0, f.failWith)
	}

	var removed int64

	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			delete(f.store, key)
			removed++
		}
	}

	return redis.NewIntResult(removed, nil)
}

type stamp struct {
	code string
}

// stampWriter stores stamps under a custom string representation.
type stampWriter struct{}

func (stampWriter) IsCompatible(source reflect.Type) bool {
	return source == reflect.TypeOf(stamp{})
}

func (stampWriter) Write(datum any) (any, error) {
	s, ok := datum.(stamp)
	if !ok {
		return nil, errors.New("not a stamp")
	}

	return "stamp:" + s.code, nil
}

type brokenWriter struct {
	err error
}

func (w brokenWriter) IsCompatible(source reflect.Type) bool {
	return source == reflect.TypeOf(stamp{})
}

func (w brokenWriter) Write(any) (any, error) {
	return nil, w.err
}

func newBucket(t *testing.T, options ...redisengine.Option) (*redisengine.Bucket, *fakeCommander) {
	t.Helper()

	client := newFakeCommander()

	bucket, err := redisengine.NewBucket(client, options...)
	require.NoError(t, err)

	return bucket, client
}

/*** Tests ***/

func Test_Bucket_ImplementsBucketManager(t *testing.T) {
	bucket, _ := newBucket(t)

	assert.Implements(t, (*nosql.BucketManager)(nil), bucket)
}

func Test_NewBucket_WithNilClient_Fails(t *testing.T) {
	_, err := redisengine.NewBucket(nil)

	assert.ErrorIs(t, err, nosql.ErrNilClient)
}

//nolint:funlen
func Test_Bucket_PutAndGet_RoundTripsTypedData(t *testing.T) {
	testCases := []struct {
		name     string
		datum    any
		validate func(t *testing.T, got nosql.Value)
	}{
		{
			name:  "string",
			datum: "hello",
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, "hello", got.Get())
			},
		},
		{
			name:  "int_comes_back_as_int64",
			datum: 42,
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, int64(42), got.Get())
			},
		},
		{
			name:  "uint_comes_back_as_uint64",
			datum: uint16(7),
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, uint64(7), got.Get())
			},
		},
		{
			name:  "float",
			datum: 3.5,
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, 3.5, got.Get())
			},
		},
		{
			name:  "bool",
			datum: true,
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, true, got.Get())
			},
		},
		{
			name:  "bytes",
			datum: []byte("raw"),
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, []byte("raw"), got.Get())
			},
		},
		{
			name:  "time_keeps_nanoseconds",
			datum: time.Date(2025, 3, 1, 10, 30, 0, 123456789, time.UTC),
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()

				stored, err := nosql.As[time.Time](got)
				require.NoError(t, err)
				assert.True(t, stored.Equal(time.Date(2025, 3, 1, 10, 30, 0, 123456789, time.UTC)))
			},
		},
		{
			name:  "nil",
			datum: nil,
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Nil(t, got.Get())
			},
		},
		{
			name:  "map_decodes_with_json_number_semantics",
			datum: map[string]any{"name": "Ada", "age": 36},
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, map[string]any{"name": "Ada", "age": float64(36)}, got.Get())
			},
		},
		{
			name:  "slice",
			datum: []string{"a", "b"},
			validate: func(t *testing.T, got nosql.Value) {
				t.Helper()
				assert.Equal(t, []any{"a", "b"}, got.Get())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bucket, _ := newBucket(t)

			// act
			require.NoError(t, bucket.Put(context.Background(), "the-key", tc.datum))
			got, ok, err := bucket.Get(context.Background(), "the-key")

			// assert
			require.NoError(t, err)
			require.True(t, ok)
			tc.validate(t, got)
		})
	}
}

func Test_Bucket_Get_AbsentKeyIsNotAnError(t *testing.T) {
	bucket, _ := newBucket(t)

	value, ok, err := bucket.Get(context.Background(), "nobody")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value.Get())
}

func Test_Bucket_Put_ReplacesPreviousValue(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "slot", "first"))
	require.NoError(t, bucket.Put(ctx, "slot", "second"))

	got, ok, err := bucket.Get(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Get())
}

func Test_Bucket_PutWithTTL_MapsOntoRedisExpiry(t *testing.T) {
	bucket, client := newBucket(t)

	err := bucket.PutWithTTL(context.Background(), "session", "data", time.Minute)

	require.NoError(t, err)
	require.Len(t, client.setCalls, 1)
	assert.Equal(t, time.Minute, client.setCalls[0].expiration)
}

func Test_Bucket_PutWithTTL_NonPositiveTTLStoresWithoutExpiry(t *testing.T) {
	bucket, client := newBucket(t)

	err := bucket.PutWithTTL(context.Background(), "session", "data", -5*time.Second)

	require.NoError(t, err)
	require.Len(t, client.setCalls, 1)
	assert.Equal(t, time.Duration(0), client.setCalls[0].expiration)
}

func Test_Bucket_PutAll_StoresEveryEntity(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	first, err := nosql.NewKeyValueEntity("one", 1)
	require.NoError(t, err)
	second, err := nosql.NewKeyValueEntity("two", 2)
	require.NoError(t, err)

	// act
	require.NoError(t, bucket.PutAll(ctx, []nosql.KeyValueEntity{first, second}))

	// assert
	got, ok, err := bucket.Get(ctx, "two")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Get())
}

func Test_Bucket_GetAll_SkipsAbsentKeys(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k1", "v1"))
	require.NoError(t, bucket.Put(ctx, "k3", "v3"))

	values, err := bucket.GetAll(ctx, []any{"k1", "k2", "k3"})

	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "v1", values[0].Get())
	assert.Equal(t, "v3", values[1].Get())
}

func Test_Bucket_GetAll_WithoutKeysSkipsTheRoundTrip(t *testing.T) {
	bucket, _ := newBucket(t)

	values, err := bucket.GetAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, values)
}

func Test_Bucket_Remove_DeletesTheKey(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "gone", "soon"))

	// act
	require.NoError(t, bucket.Remove(ctx, "gone"))

	// assert
	_, ok, err := bucket.Get(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Bucket_Remove_AbsentKeyIsANoOp(t *testing.T) {
	bucket, _ := newBucket(t)

	assert.NoError(t, bucket.Remove(context.Background(), "nobody"))
}

func Test_Bucket_RemoveAll_DeletesEveryKey(t *testing.T) {
	bucket, client := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k1", "v1"))
	require.NoError(t, bucket.Put(ctx, "k2", "v2"))

	// act
	require.NoError(t, bucket.RemoveAll(ctx, []any{"k1", "k2"}))

	// assert
	assert.Empty(t, client.store)
}

func Test_Bucket_KeysCompareByStringRendering(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, 1, "one"))

	got, ok, err := bucket.Get(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", got.Get())
}

func Test_Bucket_NilKeysFail(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	assert.ErrorIs(t, bucket.Put(ctx, nil, "datum"), nosql.ErrNilKey)

	_, _, err := bucket.Get(ctx, nil)
	assert.ErrorIs(t, err, nosql.ErrNilKey)

	assert.ErrorIs(t, bucket.Remove(ctx, nil), nosql.ErrNilKey)
}

func Test_Bucket_KeyPrefixNamespacesTheKeyspace(t *testing.T) {
	client := newFakeCommander()
	ctx := context.Background()

	sessions, err := redisengine.NewBucket(client, redisengine.WithKeyPrefix("sessions:"))
	require.NoError(t, err)
	carts, err := redisengine.NewBucket(client, redisengine.WithKeyPrefix("carts:"))
	require.NoError(t, err)

	// act
	require.NoError(t, sessions.Put(ctx, "42", "alice"))

	// assert
	_, ok, err := carts.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, client.store, "sessions:42")
}

func Test_Bucket_ConsultsRegisteredWritersBeforeEncoding(t *testing.T) {
	converters := nosql.NewConverters().RegisterWriter(stampWriter{})

	bucket, _ := newBucket(t, redisengine.WithConverters(converters))
	ctx := context.Background()

	// act
	require.NoError(t, bucket.Put(ctx, "s", stamp{code: "alpha"}))

	// assert
	got, ok, err := bucket.Get(ctx, "s")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stamp:alpha", got.Get())
}

func Test_Bucket_PropagatesWriterErrors(t *testing.T) {
	writerErr := errors.New("no representation")
	converters := nosql.NewConverters().RegisterWriter(brokenWriter{err: writerErr})

	bucket, _ := newBucket(t, redisengine.WithConverters(converters))

	err := bucket.Put(context.Background(), "s", stamp{code: "alpha"})

	assert.ErrorIs(t, err, writerErr)
}

func Test_Bucket_PropagatesClientErrors(t *testing.T) {
	bucket, client := newBucket(t)
	client.failWith = errors.New("connection refused")
	ctx := context.Background()

	assert.ErrorContains(t, bucket.Put(ctx, "k", "v"), "connection refused")

	_, _, err := bucket.Get(ctx, "k")
	assert.ErrorContains(t, err, "connection refused")

	_, err = bucket.GetAll(ctx, []any{"k"})
	assert.ErrorContains(t, err, "connection refused")

	assert.ErrorContains(t, bucket.Remove(ctx, "k"), "connection refused")
}

func Test_Bucket_RejectsUnencodableData(t *testing.T) {
	bucket, _ := newBucket(t)

	err := bucket.Put(context.Background(), "f", func() {})

	assert.Error(t, err)
}

func Test_Bucket_Close_LeavesTheSharedClientOpen(t *testing.T) {
	bucket, _ := newBucket(t)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k", "v"))
	require.NoError(t, bucket.Close())

	_, ok, err := bucket.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_Bucket_LogsOperations(t *testing.T) {
	spy := &testdoubles.LoggerSpy{}

	bucket, _ := newBucket(t, redisengine.WithLogger(spy))
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k", "v"))
	require.NoError(t, bucket.Remove(ctx, "k"))

	assert.True(t, spy.HasMessage("value stored"))
	assert.True(t, spy.HasMessage("values removed"))
}
