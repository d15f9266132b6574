package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/postgresengine/internal/adapters"
)

const (
	defaultTableName = "entities"
	idField          = "_id"

	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgEncodeEntityFailed = "failed to encode entity record"
	logMsgDecodeRecordFailed = "failed to decode stored record"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgEntitiesSelected   = "entities selected"
	logMsgEntityInserted     = "entity inserted"
	logMsgEntityUpdated      = "entity updated"
	logMsgUpdateMissed       = "update matched no stored entity"
	logMsgEntitiesDeleted    = "entities deleted"
	logMsgFieldsRemoved      = "fields removed from entities"
	logMsgEntitiesCounted    = "entities counted"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "store operation: "

	logAttrError        = "error"
	logAttrQuery        = "query"
	logAttrCollection   = "collection"
	logAttrEntityID     = "entityId"
	logAttrEntityCount  = "entityCount"
	logAttrDurationMS   = "duration_ms"
	logAttrRowsAffected = "rows_affected"

	logActionQuery = "query"

	colCollection = "collection"
	colID         = "id"
	colRecord     = "record"

	dialectPostgres = "postgres"
	conflictTarget  = "collection, id"

	castJSONB          = "?::jsonb"
	exprFieldText      = "(record ->> ?)"
	exprFieldNumeric   = "(record ->> ?)::numeric"
	exprFieldTimestamp = "(record ->> ?)::timestamptz"
	exprFieldJSONB     = "record -> ?"
	exprContains       = "record @> ?::jsonb"
	exprNot            = "NOT ?"
	exprNoMatch        = "FALSE"
	exprExcludedRecord = "excluded.record"
)

var (
	// ErrEmptyTableName is returned when an empty table name is configured.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed wraps goqu errors raised while rendering SQL.
	ErrBuildingQueryFailed = errors.New("failed to build sql query")

	// ErrQueryFailed wraps driver errors raised while executing a select.
	ErrQueryFailed = errors.New("database query execution failed")

	// ErrExecFailed wraps driver errors raised while executing a statement.
	ErrExecFailed = errors.New("database statement execution failed")

	// ErrScanningRowFailed wraps driver errors raised while reading a row.
	ErrScanningRowFailed = errors.New("failed to scan database row")

	// ErrRowsAffectedFailed wraps driver errors raised while reading the affected row count.
	ErrRowsAffectedFailed = errors.New("failed to get rows affected count")
)

// Store is a document and column manager backed by a single Postgres table.
// Entities live in a JSONB record column keyed by collection and id, so one
// table serves any number of collections.
//
// Conditions translate to jsonb operators: equality matches by containment,
// ordered comparators extract the field with a cast matching the operand
// type. TTL inserts are not expressible and fail with
// ErrUnsupportedOperation.
type Store struct {
	db               adapters.DBAdapter
	tableName        string
	codec            codec
	logger           nosql.Logger
	contextualLogger nosql.ContextualLogger
	metricsCollector nosql.MetricsCollector
	tracingCollector nosql.TracingCollector
}

var _ nosql.DocumentManager = (*Store)(nil)
var _ nosql.ColumnManager = (*Store)(nil)

func newStore(db adapters.DBAdapter, options []Option) (*Store, error) {
	store := &Store{
		db:        db,
		tableName: defaultTableName,
		codec:     codec{converters: nosql.DefaultConverters()},
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Store, error) {
	if pool == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(pool), options)
}

// NewStoreFromPGXPoolWithReplica creates a new Store with a primary pool for
// writes and a replica pool for reads. Reads use the replica only when the
// context was wrapped with nosql.WithEventualConsistency; by default every
// operation goes to the primary, so callers see their own writes.
func NewStoreFromPGXPoolWithReplica(pool *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if pool == nil || replica == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(pool, replica), options)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, nosql.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options)
}

// Insert stores a new entity, injecting a generated id element when absent.
// Inserting an entity whose id is already stored replaces the stored record.
func (s *Store) Insert(ctx context.Context, entity *nosql.DocumentEntity) (*nosql.DocumentEntity, error) {
	if entity == nil {
		return nil, nosql.ErrNilEntity
	}

	observer, ctx := s.startObserving(ctx, operationInsert, entity.Name())

	id, err := s.entityID(entity)
	if err != nil {
		observer.fail(errorTypeEncode, 0)
		return nil, err
	}

	raw, err := s.codec.encodeEntity(entity)
	if err != nil {
		s.logError(ctx, logMsgEncodeEntityFailed, err, logAttrCollection, entity.Name())
		observer.fail(errorTypeEncode, 0)

		return nil, err
	}

	sqlQuery, args, err := s.buildUpsertQuery(entity.Name(), id, raw)
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrCollection, entity.Name())
		observer.fail(errorTypeBuildQuery, 0)

		return nil, err
	}

	_, duration, err := s.executeStatement(ctx, sqlQuery, args, operationInsert)
	if err != nil {
		observer.fail(errorTypeExec, duration)
		return nil, err
	}

	observer.succeed(1, duration)
	s.logOperation(ctx, logMsgEntityInserted,
		logAttrCollection, entity.Name(),
		logAttrEntityID, id,
		logAttrDurationMS, s.toMilliseconds(duration))

	return entity, nil
}

// InsertWithTTL is not expressible on Postgres, which has no native row expiry.
func (s *Store) InsertWithTTL(_ context.Context, _ *nosql.DocumentEntity, _ time.Duration) (*nosql.DocumentEntity, error) {
	return nil, fmt.Errorf("%w: time-to-live", nosql.ErrUnsupportedOperation)
}

// InsertAll stores every given entity.
func (s *Store) InsertAll(ctx context.Context, entities []*nosql.DocumentEntity) ([]*nosql.DocumentEntity, error) {
	stored := make([]*nosql.DocumentEntity, 0, len(entities))

	for _, entity := range entities {
		storedEntity, err := s.Insert(ctx, entity)
		if err != nil {
			return nil, err
		}

		stored = append(stored, storedEntity)
	}

	return stored, nil
}

// InsertAllWithTTL is not expressible on Postgres, which has no native row expiry.
func (s *Store) InsertAllWithTTL(_ context.Context, _ []*nosql.DocumentEntity, _ time.Duration) ([]*nosql.DocumentEntity, error) {
	return nil, fmt.Errorf("%w: time-to-live", nosql.ErrUnsupportedOperation)
}

// Update replaces the stored record carrying the same id element.
// Updating an entity that is not stored, or one without an id element, is a
// no-op, not an error.
func (s *Store) Update(ctx context.Context, entity *nosql.DocumentEntity) (*nosql.DocumentEntity, error) {
	if entity == nil {
		return nil, nosql.ErrNilEntity
	}

	observer, ctx := s.startObserving(ctx, operationUpdate, entity.Name())

	element, ok := entity.Find(idField)
	if !ok {
		observer.succeed(0, 0)
		s.logWarn(ctx, logMsgUpdateMissed, logAttrCollection, entity.Name())

		return entity, nil
	}

	id, err := nosql.As[string](element.Value())
	if err != nil {
		observer.fail(errorTypeEncode, 0)
		return nil, fmt.Errorf("cannot render id element of %q: %w", entity.Name(), err)
	}

	raw, err := s.codec.encodeEntity(entity)
	if err != nil {
		s.logError(ctx, logMsgEncodeEntityFailed, err, logAttrCollection, entity.Name())
		observer.fail(errorTypeEncode, 0)

		return nil, err
	}

	sqlQuery, args, err := s.buildUpdateQuery(entity.Name(), id, raw)
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrCollection, entity.Name())
		observer.fail(errorTypeBuildQuery, 0)

		return nil, err
	}

	rowsAffected, duration, err := s.executeStatement(ctx, sqlQuery, args, operationUpdate)
	if err != nil {
		observer.fail(errorTypeExec, duration)
		return nil, err
	}

	observer.succeed(int(rowsAffected), duration)

	if rowsAffected == 0 {
		s.logWarn(ctx, logMsgUpdateMissed,
			logAttrCollection, entity.Name(),
			logAttrEntityID, id)
	} else {
		s.logOperation(ctx, logMsgEntityUpdated,
			logAttrCollection, entity.Name(),
			logAttrEntityID, id,
			logAttrDurationMS, s.toMilliseconds(duration))
	}

	return entity, nil
}

// UpdateAll updates every given entity.
func (s *Store) UpdateAll(ctx context.Context, entities []*nosql.DocumentEntity) ([]*nosql.DocumentEntity, error) {
	updated := make([]*nosql.DocumentEntity, 0, len(entities))

	for _, entity := range entities {
		updatedEntity, err := s.Update(ctx, entity)
		if err != nil {
			return nil, err
		}

		updated = append(updated, updatedEntity)
	}

	return updated, nil
}

// Select returns the entities matching the query.
// No match returns an empty slice, not an error.
func (s *Store) Select(ctx context.Context, query nosql.Query) ([]*nosql.DocumentEntity, error) {
	if query.Collection() == "" {
		return nil, nosql.ErrEmptyCollectionName
	}

	observer, ctx := s.startObserving(ctx, operationSelect, query.Collection())

	sqlQuery, args, err := s.buildSelectQuery(query)
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrCollection, query.Collection())
		observer.fail(errorTypeBuildQuery, 0)

		return nil, err
	}

	rows, duration, err := s.executeQuery(ctx, sqlQuery, args)
	if err != nil {
		observer.fail(errorTypeQuery, duration)
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	entities, err := s.scanEntities(ctx, rows, query.Collection())
	if err != nil {
		errorType := errorTypeDecode
		if errors.Is(err, ErrScanningRowFailed) {
			errorType = errorTypeScan
		}

		observer.fail(errorType, duration)

		return nil, err
	}

	entities = projectAll(entities, query.Fields())

	observer.succeed(len(entities), duration)
	s.logOperation(ctx, logMsgEntitiesSelected,
		logAttrCollection, query.Collection(),
		logAttrEntityCount, len(entities),
		logAttrDurationMS, s.toMilliseconds(duration))

	return entities, nil
}

// SingleResult returns the one entity matching the query.
// The boolean reports whether a match exists; more than one match fails with
// ErrNonUniqueResult.
func (s *Store) SingleResult(ctx context.Context, query nosql.Query) (*nosql.DocumentEntity, bool, error) {
	entities, err := s.Select(ctx, query)
	if err != nil {
		return nil, false, err
	}

	switch len(entities) {
	case 0:
		return nil, false, nil
	case 1:
		return entities[0], true, nil
	default:
		s.recordErrorMetrics(ctx, operationSelect, errorTypeNonUnique)
		return nil, false, fmt.Errorf("%w: %d entities match", nosql.ErrNonUniqueResult, len(entities))
	}
}

// Delete removes matching entities, or strips the projected fields from their
// records when the delete query names fields.
func (s *Store) Delete(ctx context.Context, query nosql.DeleteQuery) error {
	if query.Collection() == "" {
		return nosql.ErrEmptyCollectionName
	}

	observer, ctx := s.startObserving(ctx, operationDelete, query.Collection())

	sqlQuery, args, err := s.buildDeleteQuery(query)
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrCollection, query.Collection())
		observer.fail(errorTypeBuildQuery, 0)

		return err
	}

	rowsAffected, duration, err := s.executeStatement(ctx, sqlQuery, args, operationDelete)
	if err != nil {
		observer.fail(errorTypeExec, duration)
		return err
	}

	observer.succeed(int(rowsAffected), duration)

	message := logMsgEntitiesDeleted
	if len(query.Fields()) > 0 {
		message = logMsgFieldsRemoved
	}

	s.logOperation(ctx, message,
		logAttrCollection, query.Collection(),
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, s.toMilliseconds(duration))

	return nil
}

// Count returns the number of entities stored in the collection.
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	if collection == "" {
		return 0, nosql.ErrEmptyCollectionName
	}

	observer, ctx := s.startObserving(ctx, operationCount, collection)

	sqlQuery, args, err := s.buildCountQuery(collection)
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err, logAttrCollection, collection)
		observer.fail(errorTypeBuildQuery, 0)

		return 0, err
	}

	rows, duration, err := s.executeQuery(ctx, sqlQuery, args)
	if err != nil {
		observer.fail(errorTypeQuery, duration)
		return 0, err
	}
	defer s.closeRows(ctx, rows)

	var count int64

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			observer.fail(errorTypeScan, duration)

			return 0, errors.Join(ErrScanningRowFailed, scanErr)
		}
	}

	observer.succeed(int(count), duration)
	s.logOperation(ctx, logMsgEntitiesCounted,
		logAttrCollection, collection,
		logAttrEntityCount, count,
		logAttrDurationMS, s.toMilliseconds(duration))

	return uint64(count), nil
}

// Close is a no-op: the database connection is owned by whoever created it.
func (s *Store) Close() error {
	return nil
}

// entityID returns the entity's id, injecting a generated uuid element when absent.
func (s *Store) entityID(entity *nosql.Entity) (string, error) {
	if element, ok := entity.Find(idField); ok {
		id, err := nosql.As[string](element.Value())
		if err != nil {
			return "", fmt.Errorf("cannot render id element of %q: %w", entity.Name(), err)
		}

		return id, nil
	}

	id := uuid.NewString()
	entity.Add(nosql.El(idField, id))

	return id, nil
}

func (s *Store) buildSelectQuery(query nosql.Query) (string, []any, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(colRecord).
		Where(goqu.Ex{colCollection: query.Collection()})

	if condition, ok := query.Condition(); ok {
		expression, err := s.translateCondition(condition)
		if err != nil {
			return "", nil, err
		}

		stmt = stmt.Where(expression)
	}

	if sorts := query.Sorts(); len(sorts) > 0 {
		ordered := make([]exp.OrderedExpression, len(sorts))

		for i, sort := range sorts {
			field := goqu.L(exprFieldJSONB, sort.Field())

			if sort.Direction() == nosql.SortDesc {
				ordered[i] = field.Desc()
			} else {
				ordered[i] = field.Asc()
			}
		}

		stmt = stmt.Order(ordered...)
	}

	if limit := query.Limit(); limit > 0 {
		stmt = stmt.Limit(uint(limit))
	}

	if skip := query.Skip(); skip > 0 {
		stmt = stmt.Offset(uint(skip))
	}

	sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (s *Store) buildUpsertQuery(collection, id string, raw []byte) (string, []any, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(s.tableName).
		Cols(colCollection, colID, colRecord).
		Vals(goqu.Vals{collection, id, goqu.L(castJSONB, string(raw))}).
		OnConflict(goqu.DoUpdate(conflictTarget, goqu.Record{colRecord: goqu.L(exprExcludedRecord)}))

	sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (s *Store) buildUpdateQuery(collection, id string, raw []byte) (string, []any, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Update(s.tableName).
		Set(goqu.Record{colRecord: goqu.L(castJSONB, string(raw))}).
		Where(goqu.Ex{colCollection: collection, colID: id})

	sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (s *Store) buildDeleteQuery(query nosql.DeleteQuery) (string, []any, error) {
	where := []goqu.Expression{goqu.Ex{colCollection: query.Collection()}}

	if condition, ok := query.Condition(); ok {
		expression, err := s.translateCondition(condition)
		if err != nil {
			return "", nil, err
		}

		where = append(where, expression)
	}

	if fields := query.Fields(); len(fields) > 0 {
		stmt := goqu.Dialect(dialectPostgres).
			Update(s.tableName).
			Set(goqu.Record{colRecord: stripFieldsExpression(fields)}).
			Where(where...)

		sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
		if toSQLErr != nil {
			return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
		}

		return sqlQuery, args, nil
	}

	stmt := goqu.Dialect(dialectPostgres).
		Delete(s.tableName).
		Where(where...)

	sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

// stripFieldsExpression builds `record - 'f1' - 'f2'`, the jsonb operator
// chain removing one key per projected field.
func stripFieldsExpression(fields []string) goqu.Expression {
	var expression strings.Builder

	expression.WriteString(colRecord)

	args := make([]any, 0, len(fields))

	for _, field := range fields {
		expression.WriteString(" - ?::text")
		args = append(args, field)
	}

	return goqu.L(expression.String(), args...)
}

func (s *Store) buildCountQuery(collection string) (string, []any, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{colCollection: collection})

	sqlQuery, args, toSQLErr := stmt.Prepared(true).ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (s *Store) executeQuery(ctx context.Context, sqlQuery string, args []any) (adapters.DBRows, time.Duration, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery, args...)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, duration, errors.Join(ErrQueryFailed, queryErr)
	}

	return rows, duration, nil
}

// executeStatement executes the SQL statement and returns rows affected with timing information.
func (s *Store) executeStatement(ctx context.Context, sqlQuery string, args []any, action string) (int64, time.Duration, error) {
	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery, args...)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, duration, errors.Join(ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, errors.Join(ErrRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// scanEntities reads and decodes every record row.
func (s *Store) scanEntities(ctx context.Context, rows adapters.DBRows, collection string) ([]*nosql.Entity, error) {
	entities := make([]*nosql.Entity, 0)

	for rows.Next() {
		var raw []byte

		if scanErr := rows.Scan(&raw); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		entity, decodeErr := s.codec.decodeEntity(collection, raw)
		if decodeErr != nil {
			s.logError(ctx, logMsgDecodeRecordFailed, decodeErr, logAttrCollection, collection)
			return nil, decodeErr
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

func projectAll(entities []*nosql.Entity, fields []string) []*nosql.Entity {
	if len(fields) == 0 {
		return entities
	}

	projected := make([]*nosql.Entity, len(entities))
	for i, entity := range entities {
		projected[i] = projectEntity(entity, fields)
	}

	return projected
}

func projectEntity(entity *nosql.Entity, fields []string) *nosql.Entity {
	projected, err := nosql.NewEntity(entity.Name())
	if err != nil {
		return entity // unreachable, decoded entities always carry a name
	}

	for _, element := range entity.Elements() {
		if slices.Contains(fields, element.Name()) {
			projected.Add(element)
		}
	}

	return projected
}
