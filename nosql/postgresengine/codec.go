package postgresengine

import (
	"fmt"
	"maps"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/polystore-db/polystore-go/nosql"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// codec turns entities into JSONB records and back, consulting the registered
// ValueWriters before encoding.
type codec struct {
	converters *nosql.Converters
}

// encodeEntity renders the entity's elements as one JSON object.
func (c codec) encodeEntity(entity *nosql.Entity) ([]byte, error) {
	record, err := c.recordOf(entity)
	if err != nil {
		return nil, err
	}

	raw, err := jsonCodec.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("cannot encode entity record: %w", err)
	}

	return raw, nil
}

func (c codec) recordOf(entity *nosql.Entity) (map[string]any, error) {
	record := make(map[string]any, entity.Len())

	for _, element := range entity.Elements() {
		datum, err := c.storableDatum(element.Get())
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", element.Name(), err)
		}

		record[element.Name()] = datum
	}

	return record, nil
}

// storableDatum passes the datum through the registered writers and resolves
// the shapes the JSON marshaller cannot see into, such as nested entities.
func (c codec) storableDatum(datum any) (any, error) {
	if boxed, ok := datum.(nosql.Value); ok {
		datum = boxed.Get()
	}

	converted, claimed, err := c.converters.Write(datum)
	if err != nil {
		return nil, fmt.Errorf("value writer failed: %w", err)
	}

	if claimed {
		datum = converted
	}

	switch v := datum.(type) {
	case *nosql.Entity:
		return c.recordOf(v)
	case nosql.Element:
		nested, err := c.storableDatum(v.Get())
		if err != nil {
			return nil, err
		}

		return map[string]any{v.Name(): nested}, nil
	case []any:
		entries := make([]any, len(v))

		for i, entry := range v {
			storable, err := c.storableDatum(entry)
			if err != nil {
				return nil, err
			}

			entries[i] = storable
		}

		return entries, nil
	default:
		return datum, nil
	}
}

// decodeEntity rebuilds an entity from a stored JSON record. Keys are added
// in sorted order to keep the element order deterministic.
func (c codec) decodeEntity(collection string, raw []byte) (*nosql.Entity, error) {
	var record map[string]any
	if err := jsonCodec.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("cannot decode stored record: %w", err)
	}

	entity, err := nosql.NewEntity(collection)
	if err != nil {
		return nil, err
	}

	for _, key := range slices.Sorted(maps.Keys(record)) {
		entity.Add(nosql.El(key, record[key]))
	}

	return entity, nil
}

// encodeDatum renders one condition value as JSON for jsonb comparisons.
func (c codec) encodeDatum(datum any) (string, error) {
	storable, err := c.storableDatum(datum)
	if err != nil {
		return "", err
	}

	raw, err := jsonCodec.Marshal(storable)
	if err != nil {
		return "", fmt.Errorf("cannot encode condition value: %w", err)
	}

	return string(raw), nil
}

// encodePair renders a single-field JSON object for containment matching.
func (c codec) encodePair(field string, datum any) (string, error) {
	storable, err := c.storableDatum(datum)
	if err != nil {
		return "", err
	}

	raw, err := jsonCodec.Marshal(map[string]any{field: storable})
	if err != nil {
		return "", fmt.Errorf("cannot encode condition value: %w", err)
	}

	return string(raw), nil
}
