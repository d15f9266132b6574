// Package redisengine implements the key-value manager on top of Redis.
//
// Values of any Go type are stored as small JSON envelopes carrying the kind
// of the original datum, so a time.Time put in comes back as a time.Time and
// not as a string. Registered ValueWriters are consulted before encoding,
// which lets applications store custom types under their own representation.
// TTLs map onto native Redis key expiry.
//
// A Bucket wraps any client satisfying Commander; the BucketFactory owns a
// redis.UniversalClient and namespaces each bucket by key prefix:
//
//	factory, err := redisengine.NewBucketFactoryFromSettings(settings)
//	if err != nil { ... }
//	defer factory.Close()
//
//	bucket, err := factory.Get("sessions")
//	if err != nil { ... }
//
//	err = bucket.PutWithTTL(ctx, sessionID, session, 30*time.Minute)
package redisengine
