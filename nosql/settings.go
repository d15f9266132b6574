package nosql

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

// Common setting keys understood by the engine constructors of this module.
const (
	SettingUser     = "user"
	SettingPassword = "password"
	SettingHost     = "host"
	SettingPort     = "port"
	SettingDatabase = "database"
)

// DefaultEnvPrefix is prepended to mangled setting keys when resolving them
// from the process environment.
const DefaultEnvPrefix = "POLYSTORE_"

// Settings is an immutable configuration bag handed to engine constructors.
//
// Lookups resolve with fixed precedence: explicitly supplied entries win over
// process environment variables, which win over registered defaults. The
// environment name of a key is the prefix plus the key uppercased with "-"
// and "." replaced by "_", so "host-1" resolves POLYSTORE_HOST_1.
type Settings struct {
	entries   map[string]any
	defaults  map[string]any
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// SettingsOption configures a Settings bag during construction.
type SettingsOption func(*Settings)

// WithDefault registers a fallback for a key, used when neither an explicit
// entry nor an environment variable provides it.
func WithDefault(key string, datum any) SettingsOption {
	return func(s *Settings) {
		s.defaults[key] = datum
	}
}

// WithEnvPrefix replaces DefaultEnvPrefix for environment lookups.
func WithEnvPrefix(prefix string) SettingsOption {
	return func(s *Settings) {
		s.envPrefix = prefix
	}
}

// WithEnvLookup replaces the process environment as the lookup source.
// Intended for tests.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *Settings) {
		s.lookupEnv = lookup
	}
}

// NewSettings creates a Settings bag from explicit entries.
// The entries map is copied; later changes to it do not show through.
func NewSettings(entries map[string]any, options ...SettingsOption) Settings {
	s := Settings{
		entries:   make(map[string]any, len(entries)),
		defaults:  make(map[string]any),
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}

	for key, datum := range entries {
		s.entries[key] = datum
	}

	for _, option := range options {
		option(&s)
	}

	return s
}

// Get resolves a key with the explicit > environment > default precedence.
// The boolean reports whether any source provided it.
func (s Settings) Get(key string) (any, bool) {
	if datum, ok := s.entries[key]; ok {
		return datum, true
	}

	if s.lookupEnv != nil {
		if datum, ok := s.lookupEnv(s.envName(key)); ok {
			return datum, true
		}
	}

	if datum, ok := s.defaults[key]; ok {
		return datum, true
	}

	return nil, false
}

// GetOrDefault resolves a key and falls back to the given datum when no
// source provides it.
func (s Settings) GetOrDefault(key string, fallback any) any {
	if datum, ok := s.Get(key); ok {
		return datum
	}

	return fallback
}

// GetString resolves a key and converts it to a string.
// Returns false when the key is absent or the datum does not convert.
func (s Settings) GetString(key string) (string, bool) {
	return getAs[string](s, key)
}

// GetInt resolves a key and converts it to an int.
// Returns false when the key is absent or the datum does not convert.
func (s Settings) GetInt(key string) (int, bool) {
	return getAs[int](s, key)
}

// GetBool resolves a key and converts it to a bool.
// Returns false when the key is absent or the datum does not convert.
func (s Settings) GetBool(key string) (bool, bool) {
	return getAs[bool](s, key)
}

// GetDuration resolves a key and converts it to a time.Duration.
// Returns false when the key is absent or the datum does not convert.
func (s Settings) GetDuration(key string) (time.Duration, bool) {
	return getAs[time.Duration](s, key)
}

func getAs[T any](s Settings, key string) (T, bool) {
	var zero T

	datum, ok := s.Get(key)
	if !ok {
		return zero, false
	}

	converted, err := As[T](ValueOf(datum))
	if err != nil {
		return zero, false
	}

	return converted, true
}

// Keys returns the sorted union of explicit and default keys.
// Environment-only settings are not enumerable and do not appear.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s.entries)+len(s.defaults))

	for key := range s.entries {
		keys = append(keys, key)
	}

	for key := range s.defaults {
		if _, ok := s.entries[key]; !ok {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	return keys
}

// Hosts collects the configured host list: the plain "host" key first, then
// "host-1", "host-2", ... in numeric order until the first gap.
func (s Settings) Hosts() []string {
	hosts := make([]string, 0)

	if host, ok := s.GetString(SettingHost); ok {
		hosts = append(hosts, host)
	}

	for i := 1; ; i++ {
		host, ok := s.GetString(fmt.Sprintf("%s-%d", SettingHost, i))
		if !ok {
			break
		}

		hosts = append(hosts, host)
	}

	return hosts
}

func (s Settings) envName(key string) string {
	mangled := strings.ToUpper(key)
	mangled = strings.ReplaceAll(mangled, "-", "_")
	mangled = strings.ReplaceAll(mangled, ".", "_")

	return s.envPrefix + mangled
}
