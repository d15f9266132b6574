// Package postgresengine provides a PostgreSQL implementation of the
// document and column manager interfaces.
//
// Entities are stored as JSONB records in a single table keyed by collection
// and id, supporting multiple database adapters (pgx, sql.DB, sqlx). Query
// conditions translate to jsonb operators, so filtering and sorting run
// inside Postgres; only field projection happens client-side.
//
// The engine expects its table to exist:
//
//	CREATE TABLE IF NOT EXISTS entities (
//	    collection TEXT  NOT NULL,
//	    id         TEXT  NOT NULL,
//	    record     JSONB NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
//
// A GIN index on record speeds up equality conditions, which match by
// containment:
//
//	CREATE INDEX IF NOT EXISTS entities_record_idx ON entities USING GIN (record);
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(db)
//
//	// With operational logging and a custom table
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("my_entities"),
//		postgresengine.WithLogger(logger),
//	)
//
//	entity, _ := nosql.NewDocumentEntity("books")
//	entity.Add(nosql.El("title", "The Left Hand of Darkness"))
//	stored, _ := store.Insert(ctx, entity)
//
//	query, _ := nosql.Select().From("books").Where(nosql.Eq("title", "The Left Hand of Darkness")).Build()
//	matches, _ := store.Select(ctx, query)
//
// With a read replica, reads stay on the primary until the caller marks a
// context as tolerating stale data:
//
//	store, _ := postgresengine.NewStoreFromPGXPoolWithReplica(primary, replica)
//	matches, _ := store.Select(nosql.WithEventualConsistency(ctx), query)
//
// Factories hand out managers per database name, each bound to its own
// table over one shared connection:
//
//	factory, _ := postgresengine.NewDocumentFactoryFromSettings(ctx, settings)
//	library, _ := factory.Get("library")
package postgresengine
