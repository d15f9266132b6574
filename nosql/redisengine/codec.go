package redisengine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/polystore-db/polystore-go/nosql"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope kinds. The kind restores the datum's Go type on the way out of
// Redis, which stores nothing but strings.
const (
	kindNil    = "nil"
	kindBool   = "bool"
	kindInt    = "int"
	kindUint   = "uint"
	kindFloat  = "float"
	kindString = "string"
	kindBytes  = "bytes"
	kindTime   = "time"
	kindJSON   = "json"
)

// envelope is the value representation stored under every key: the datum as
// JSON plus the kind to decode it back into.
type envelope struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// codec turns raw data into envelope strings and back, consulting the
// registered ValueWriters before encoding.
type codec struct {
	converters *nosql.Converters
}

func (c codec) encode(datum any) (string, error) {
	if boxed, ok := datum.(nosql.Value); ok {
		datum = boxed.Get()
	}

	converted, claimed, err := c.converters.Write(datum)
	if err != nil {
		return "", fmt.Errorf("value writer failed: %w", err)
	}

	if claimed {
		datum = converted
	}

	env, err := envelopeOf(datum)
	if err != nil {
		return "", err
	}

	raw, err := jsonCodec.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("cannot encode %T: %w", datum, err)
	}

	return string(raw), nil
}

func envelopeOf(datum any) (envelope, error) {
	switch v := datum.(type) {
	case nil:
		return envelope{Kind: kindNil}, nil
	case time.Time:
		return marshalInto(kindTime, v.Format(time.RFC3339Nano))
	case []byte:
		return marshalInto(kindBytes, v)
	}

	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Bool:
		return marshalInto(kindBool, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return marshalInto(kindInt, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return marshalInto(kindUint, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return marshalInto(kindFloat, rv.Float())
	case reflect.String:
		return marshalInto(kindString, rv.String())
	default:
		return marshalInto(kindJSON, datum)
	}
}

func marshalInto(kind string, datum any) (envelope, error) {
	raw, err := jsonCodec.Marshal(datum)
	if err != nil {
		return envelope{}, fmt.Errorf("cannot encode %T: %w", datum, err)
	}

	return envelope{Kind: kind, Value: raw}, nil
}

func (c codec) decode(raw string) (nosql.Value, error) {
	var env envelope
	if err := jsonCodec.UnmarshalFromString(raw, &env); err != nil {
		return nosql.Value{}, fmt.Errorf("cannot decode stored value: %w", err)
	}

	switch env.Kind {
	case kindNil:
		return nosql.ValueOf(nil), nil
	case kindBool:
		return unmarshalAs[bool](env.Value)
	case kindInt:
		return unmarshalAs[int64](env.Value)
	case kindUint:
		return unmarshalAs[uint64](env.Value)
	case kindFloat:
		return unmarshalAs[float64](env.Value)
	case kindString:
		return unmarshalAs[string](env.Value)
	case kindBytes:
		return unmarshalAs[[]byte](env.Value)
	case kindTime:
		return decodeTime(env.Value)
	case kindJSON:
		return unmarshalAs[any](env.Value)
	default:
		return nosql.Value{}, fmt.Errorf("unknown stored value kind %q", env.Kind)
	}
}

func unmarshalAs[T any](raw json.RawMessage) (nosql.Value, error) {
	var datum T
	if err := jsonCodec.Unmarshal(raw, &datum); err != nil {
		return nosql.Value{}, fmt.Errorf("cannot decode stored value: %w", err)
	}

	return nosql.ValueOf(datum), nil
}

func decodeTime(raw json.RawMessage) (nosql.Value, error) {
	var rendered string
	if err := jsonCodec.Unmarshal(raw, &rendered); err != nil {
		return nosql.Value{}, fmt.Errorf("cannot decode stored time: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, rendered)
	if err != nil {
		return nosql.Value{}, fmt.Errorf("cannot decode stored time: %w", err)
	}

	return nosql.ValueOf(parsed), nil
}
