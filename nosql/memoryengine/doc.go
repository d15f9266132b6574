// Package memoryengine implements the document, column, and key-value manager
// contracts on plain in-process maps.
//
// It is the engine for tests and prototypes: no connection, no setup, full
// condition support including LIKE patterns and TTL expiry. TTL uses a lazy
// sweep driven by an injectable clock, so tests control time with WithClock.
//
// Create managers directly:
//
//	store, err := memoryengine.NewStore()
//	bucket, err := memoryengine.NewBucket()
//
// or through the factories when callers expect the factory contracts:
//
//	factory := memoryengine.NewDocumentFactory()
//	manager, err := factory.Get("inventory")
package memoryengine
