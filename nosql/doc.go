// Package nosql provides the vendor-neutral communication core for NoSQL
// databases: boxed values with extensible type conversion, named tuples and
// entities for the document, column-family, and key-value models, an
// operator-based condition tree, and immutable select/delete queries built
// through staged builders.
//
// Engines (in-memory, Redis, PostgreSQL) implement the manager interfaces
// defined here; callers program against the interfaces and switch databases
// without touching query code.
//
// Key types:
//   - Value / Valuer: immutable box around a datum, converted on the way out
//   - Converters / ValueReader / ValueWriter: the conversion pipeline and its extension points
//   - Element (Document, Column): named tuple
//   - Entity (DocumentEntity, ColumnEntity) and KeyValueEntity: storage units
//   - Condition / Operator: combinable comparison tree
//   - Query / DeleteQuery: immutable operation descriptions
//   - DocumentManager / ColumnManager / BucketManager: the engine seams
//
// Common usage pattern:
//
//	query, err := nosql.Select().
//		From("people").
//		Where("age").Gte(21).
//		And("city").Eq("Lisbon").
//		OrderBy("name").Asc().
//		Limit(10).
//		Build()
//	if err != nil {
//		// handle error
//	}
//
//	people, err := manager.Select(ctx, query)
//	if err != nil {
//		// handle error
//	}
//
//	for _, person := range people {
//		if name, ok := person.Find("name"); ok {
//			label, _ := nosql.As[string](name)
//			// use label
//		}
//	}
package nosql
