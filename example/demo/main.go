// A small tour of the polystore API. It builds entities and queries once and
// runs them against whichever engine the environment selects, defaulting to
// the in-memory engine so the demo works without any infrastructure.
//
// Select an engine with POLYSTORE_ENGINE=memory|postgres|redis; the real
// engines read their connection settings from POLYSTORE_* variables.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/memoryengine"
	"github.com/polystore-db/polystore-go/nosql/postgresengine"
	"github.com/polystore-db/polystore-go/nosql/promadapters"
	"github.com/polystore-db/polystore-go/nosql/redisengine"
	"github.com/polystore-db/polystore-go/nosql/zapadapters"
)

func main() {
	engine := strings.ToLower(os.Getenv("POLYSTORE_ENGINE"))
	if engine == "" {
		engine = "memory"
	}

	log.Printf("🔧 USING ENGINE: %s", strings.ToUpper(engine))

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	logger := zapadapters.NewLogger(zapLogger)
	ctx := context.Background()

	switch engine {
	case "memory":
		runMemoryDemo(ctx, logger)
	case "postgres":
		runPostgresDemo(ctx, logger)
	case "redis":
		runRedisDemo(ctx, logger)
	default:
		log.Fatalf("Unknown engine: %s (supported: memory, postgres, redis)", engine)
	}

	log.Print("Demo finished")
}

func runMemoryDemo(ctx context.Context, logger nosql.Logger) {
	documents := memoryengine.NewDocumentFactory(memoryengine.WithLogger(logger))
	defer func() { _ = documents.Close() }()

	books, err := documents.Get("library")
	if err != nil {
		log.Fatalf("Failed to open the library: %v", err)
	}

	if err = runDocumentTour(ctx, books); err != nil {
		log.Fatalf("Document tour failed: %v", err)
	}

	buckets := memoryengine.NewBucketFactory(memoryengine.WithLogger(logger))
	defer func() { _ = buckets.Close() }()

	sessions, err := buckets.Get("sessions")
	if err != nil {
		log.Fatalf("Failed to open the session bucket: %v", err)
	}

	if err = runKeyValueTour(ctx, sessions); err != nil {
		log.Fatalf("Key-value tour failed: %v", err)
	}
}

func runPostgresDemo(ctx context.Context, logger nosql.Logger) {
	settings := nosql.NewSettings(nil) // resolved from POLYSTORE_* environment variables

	factory, err := postgresengine.NewDocumentFactoryFromSettings(
		ctx,
		settings,
		postgresengine.WithLogger(logger),
		postgresengine.WithMetrics(promadapters.NewMetricsCollector(nil)),
	)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer func() { _ = factory.Close() }()

	books, err := factory.Get("library")
	if err != nil {
		log.Fatalf("Failed to open the library: %v", err)
	}

	if err = runDocumentTour(ctx, books); err != nil {
		log.Fatalf("Document tour failed: %v", err)
	}
}

func runRedisDemo(ctx context.Context, logger nosql.Logger) {
	settings := nosql.NewSettings(nil) // resolved from POLYSTORE_* environment variables

	factory, err := redisengine.NewBucketFactoryFromSettings(
		settings,
		redisengine.WithLogger(logger),
		redisengine.WithMetrics(promadapters.NewMetricsCollector(nil)),
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() { _ = factory.Close() }()

	sessions, err := factory.Get("sessions")
	if err != nil {
		log.Fatalf("Failed to open the session bucket: %v", err)
	}

	if err = runKeyValueTour(ctx, sessions); err != nil {
		log.Fatalf("Key-value tour failed: %v", err)
	}
}

// runDocumentTour stores a few books, queries them back and trims the shelf.
func runDocumentTour(ctx context.Context, books nosql.DocumentManager) error {
	shelf := make([]*nosql.DocumentEntity, 0, 3)

	for _, book := range []struct {
		title  string
		author string
		pages  int
	}{
		{title: "The Left Hand of Darkness", author: "Ursula K. Le Guin", pages: 304},
		{title: "A Wizard of Earthsea", author: "Ursula K. Le Guin", pages: 183},
		{title: "The Dispossessed", author: "Ursula K. Le Guin", pages: 341},
	} {
		entity, err := nosql.NewDocumentEntity("books",
			nosql.El("title", book.title),
			nosql.El("author", book.author),
			nosql.El("pages", book.pages),
		)
		if err != nil {
			return err
		}

		shelf = append(shelf, entity)
	}

	if _, err := books.InsertAll(ctx, shelf); err != nil {
		return err
	}

	query, err := nosql.Select().
		From("books").
		Where("pages").Gte(300).
		OrderBy("title").Asc().
		Build()
	if err != nil {
		return err
	}

	matches, err := books.Select(ctx, query)
	if err != nil {
		return err
	}

	log.Printf("Found %d long books:", len(matches))

	for _, match := range matches {
		title, _ := match.Find("title")
		pages, _ := match.Find("pages")
		log.Printf("  %v (%v pages)", title.Get(), pages.Get())
	}

	total, err := books.Count(ctx, "books")
	if err != nil {
		return err
	}

	log.Printf("The library holds %d books", total)

	removeShort, err := nosql.Delete().
		From("books").
		Where("pages").Lt(300).
		Build()
	if err != nil {
		return err
	}

	return books.Delete(ctx, removeShort)
}

// runKeyValueTour stores session values, loads them back and cleans up.
func runKeyValueTour(ctx context.Context, sessions nosql.BucketManager) error {
	if err := sessions.Put(ctx, "user:1", "ada"); err != nil {
		return err
	}

	if err := sessions.PutWithTTL(ctx, "token:1", "opaque-token", 30*time.Second); err != nil {
		return err
	}

	value, found, err := sessions.Get(ctx, "user:1")
	if err != nil {
		return err
	}

	if found {
		name, asErr := nosql.As[string](value)
		if asErr != nil {
			return asErr
		}

		log.Printf("Session belongs to %s", name)
	}

	values, err := sessions.GetAll(ctx, []any{"user:1", "token:1"})
	if err != nil {
		return err
	}

	log.Printf("Loaded %d session values", len(values))

	return sessions.RemoveAll(ctx, []any{"user:1", "token:1"})
}
