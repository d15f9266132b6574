package memoryengine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polystore-db/polystore-go/nosql"
)

const (
	idField = "_id"

	logMsgEntityInserted  = "entity inserted"
	logMsgEntityUpdated   = "entity updated"
	logMsgUpdateMissed    = "update matched no stored entity"
	logMsgEntitiesLoaded  = "entities selected"
	logMsgEntitiesDeleted = "entities deleted"
	logMsgFieldsRemoved   = "fields removed from entities"
	logAttrCollection     = "collection"
	logAttrEntityID       = "entity_id"
	logAttrEntityCount    = "entity_count"
)

// ErrClosed reports an operation on a closed Store or Bucket.
var ErrClosed = errors.New("memory engine is closed")

// record pairs a stored entity with its expiry. A zero expiresAt never expires.
type record struct {
	entity    *nosql.Entity
	expiresAt time.Time
}

func (r record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

// Store is the in-memory document and column engine, intended for tests and
// prototypes. Entities are keyed by their "_id" element, which Insert injects
// as a generated UUID when absent. Expired entities are skipped by reads and
// swept by the next write on their collection.
//
// A Store is safe for concurrent use.
type Store struct {
	config
	mu          sync.RWMutex
	collections map[string][]record
}

var (
	_ nosql.DocumentManager = (*Store)(nil)
	_ nosql.ColumnManager   = (*Store)(nil)
)

// NewStore creates an empty Store with optional configuration.
func NewStore(options ...Option) (*Store, error) {
	cfg := defaultConfig()

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	return &Store{config: cfg, collections: make(map[string][]record)}, nil
}

// Insert stores a new entity, injecting a generated "_id" element when the
// entity carries none. Inserting an entity whose id is already stored
// replaces the stored one.
func (s *Store) Insert(ctx context.Context, entity *nosql.DocumentEntity) (*nosql.DocumentEntity, error) {
	return s.insert(ctx, entity, 0)
}

// InsertWithTTL stores a new entity that expires after the given duration.
// A non-positive ttl stores the entity without an expiry.
func (s *Store) InsertWithTTL(ctx context.Context, entity *nosql.DocumentEntity, ttl time.Duration) (*nosql.DocumentEntity, error) {
	return s.insert(ctx, entity, ttl)
}

// InsertAll stores every given entity with Insert semantics.
func (s *Store) InsertAll(ctx context.Context, entities []*nosql.DocumentEntity) ([]*nosql.DocumentEntity, error) {
	for _, entity := range entities {
		if _, err := s.insert(ctx, entity, 0); err != nil {
			return nil, err
		}
	}

	return entities, nil
}

// InsertAllWithTTL stores every given entity with an expiry.
func (s *Store) InsertAllWithTTL(ctx context.Context, entities []*nosql.DocumentEntity, ttl time.Duration) ([]*nosql.DocumentEntity, error) {
	for _, entity := range entities {
		if _, err := s.insert(ctx, entity, ttl); err != nil {
			return nil, err
		}
	}

	return entities, nil
}

func (s *Store) insert(ctx context.Context, entity *nosql.Entity, ttl time.Duration) (*nosql.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if entity == nil {
		return nil, nosql.ErrNilEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections == nil {
		return nil, ErrClosed
	}

	now := s.clock()
	collection := entity.Name()
	s.sweepLocked(collection, now)

	if _, ok := entity.Find(idField); !ok {
		entity.Add(nosql.El(idField, uuid.NewString()))
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	stored := record{entity: entity.Copy(), expiresAt: expiresAt}

	if index, ok := s.indexOfLocked(collection, idOf(entity)); ok {
		s.collections[collection][index] = stored
	} else {
		s.collections[collection] = append(s.collections[collection], stored)
	}

	s.logDebug(logMsgEntityInserted, logAttrCollection, collection, logAttrEntityID, idOf(entity))

	return entity, nil
}

// Update replaces the stored entity carrying the same "_id" element, keeping
// the stored record's expiry. Updating an entity that is not stored, or one
// without an id element, is a no-op.
func (s *Store) Update(ctx context.Context, entity *nosql.DocumentEntity) (*nosql.DocumentEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if entity == nil {
		return nil, nosql.ErrNilEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections == nil {
		return nil, ErrClosed
	}

	collection := entity.Name()
	s.sweepLocked(collection, s.clock())

	id := idOf(entity)

	index, ok := s.indexOfLocked(collection, id)
	if !ok {
		s.logWarn(logMsgUpdateMissed, logAttrCollection, collection, logAttrEntityID, id)
		return entity, nil
	}

	s.collections[collection][index].entity = entity.Copy()

	s.logDebug(logMsgEntityUpdated, logAttrCollection, collection, logAttrEntityID, id)

	return entity, nil
}

// UpdateAll updates every given entity with Update semantics.
func (s *Store) UpdateAll(ctx context.Context, entities []*nosql.DocumentEntity) ([]*nosql.DocumentEntity, error) {
	for _, entity := range entities {
		if _, err := s.Update(ctx, entity); err != nil {
			return nil, err
		}
	}

	return entities, nil
}

// Select returns copies of the entities matching the query, filtered, sorted,
// paginated, and projected in that order. No match returns an empty slice.
func (s *Store) Select(ctx context.Context, query nosql.Query) ([]*nosql.DocumentEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched, err := s.matching(query)
	if err != nil {
		return nil, err
	}

	sortEntities(matched, query.Sorts())
	matched = paginate(matched, query.Skip(), query.Limit())
	matched = projectAll(matched, query.Fields())

	s.logDebug(logMsgEntitiesLoaded, logAttrCollection, query.Collection(), logAttrEntityCount, len(matched))

	return matched, nil
}

func (s *Store) matching(query nosql.Query) ([]*nosql.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collections == nil {
		return nil, ErrClosed
	}

	now := s.clock()
	condition, hasCondition := query.Condition()

	matched := make([]*nosql.Entity, 0)

	for _, stored := range s.collections[query.Collection()] {
		if stored.expired(now) {
			continue
		}

		if hasCondition {
			ok, err := matches(stored.entity, condition)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}
		}

		matched = append(matched, stored.entity.Copy())
	}

	return matched, nil
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
		return nil, false, fmt.Errorf("%w: %d entities match", nosql.ErrNonUniqueResult, len(entities))
	}
}

// Delete removes the entities matching the query, or only the named fields
// from them when the delete query carries a field projection. Without a
// condition every entity of the collection is targeted.
func (s *Store) Delete(ctx context.Context, query nosql.DeleteQuery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections == nil {
		return ErrClosed
	}

	collection := query.Collection()
	s.sweepLocked(collection, s.clock())

	condition, hasCondition := query.Condition()
	records := s.collections[collection]

	targeted := make([]bool, len(records))
	for i, stored := range records {
		targeted[i] = true

		if hasCondition {
			ok, err := matches(stored.entity, condition)
			if err != nil {
				return err
			}

			targeted[i] = ok
		}
	}

	if fields := query.Fields(); len(fields) > 0 {
		stripped := 0

		for i, stored := range records {
			if !targeted[i] {
				continue
			}

			for _, field := range fields {
				stored.entity.Remove(field)
			}

			stripped++
		}

		s.logDebug(logMsgFieldsRemoved, logAttrCollection, collection, logAttrEntityCount, stripped)

		return nil
	}

	kept := make([]record, 0, len(records))

	for i, stored := range records {
		if targeted[i] {
			continue
		}

		kept = append(kept, stored)
	}

	s.collections[collection] = kept

	s.logDebug(logMsgEntitiesDeleted, logAttrCollection, collection, logAttrEntityCount, len(records)-len(kept))

	return nil
}

// Count returns the number of unexpired entities stored in the collection.
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if collection == "" {
		return 0, nosql.ErrEmptyCollectionName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collections == nil {
		return 0, ErrClosed
	}

	now := s.clock()

	var count uint64
	for _, stored := range s.collections[collection] {
		if stored.expired(now) {
			continue
		}

		count++
	}

	return count, nil
}

// Close releases the stored entities. Every operation after Close fails with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = nil

	return nil
}

// sweepLocked drops expired records from the collection. Callers hold the write lock.
func (s *Store) sweepLocked(collection string, now time.Time) {
	records := s.collections[collection]

	kept := records[:0]
	for _, stored := range records {
		if stored.expired(now) {
			continue
		}

		kept = append(kept, stored)
	}

	s.collections[collection] = kept
}

// indexOfLocked finds the record storing the entity with the given id.
// Callers hold at least the read lock.
func (s *Store) indexOfLocked(collection, id string) (int, bool) {
	if id == "" {
		return 0, false
	}

	for i, stored := range s.collections[collection] {
		if idOf(stored.entity) == id {
			return i, true
		}
	}

	return 0, false
}

// idOf returns the entity's id element rendered as a string, or "" for an
// entity without one.
func idOf(entity *nosql.Entity) string {
	element, ok := entity.Find(idField)
	if !ok {
		return ""
	}

	id, err := nosql.As[string](element)
	if err != nil {
		return ""
	}

	return id
}

func sortEntities(entities []*nosql.Entity, sorts []nosql.Sort) {
	if len(sorts) == 0 {
		return
	}

	slices.SortStableFunc(entities, func(a, b *nosql.Entity) int {
		for _, sort := range sorts {
			cmp := compareForSort(a, b, sort.Field())
			if cmp == 0 {
				continue
			}

			if sort.Direction() == nosql.SortDesc {
				return -cmp
			}

			return cmp
		}

		return 0
	})
}

// compareForSort orders entities by one field; entities missing the field sort first.
func compareForSort(a, b *nosql.Entity, field string) int {
	left, leftOK := a.Find(field)
	right, rightOK := b.Find(field)

	switch {
	case !leftOK && !rightOK:
		return 0
	case !leftOK:
		return -1
	case !rightOK:
		return 1
	}

	cmp, err := compareData(left.Get(), right.Get())
	if err != nil {
		return 0
	}

	return cmp
}

func paginate(entities []*nosql.Entity, skip, limit uint64) []*nosql.Entity {
	if skip > 0 {
		if skip >= uint64(len(entities)) {
			return entities[:0]
		}

		entities = entities[skip:]
	}

	if limit > 0 && limit < uint64(len(entities)) {
		entities = entities[:limit]
	}

	return entities
}

func projectAll(entities []*nosql.Entity, fields []string) []*nosql.Entity {
	if len(fields) == 0 {
		return entities
	}

	for i, entity := range entities {
		entities[i] = projectEntity(entity, fields)
	}

	return entities
}

func projectEntity(entity *nosql.Entity, fields []string) *nosql.Entity {
	projected, err := nosql.NewEntity(entity.Name())
	if err != nil {
		return entity // unreachable, stored entities always carry a name
	}

	for _, element := range entity.Elements() {
		if slices.Contains(fields, element.Name()) {
			projected.Add(element)
		}
	}

	return projected
}
