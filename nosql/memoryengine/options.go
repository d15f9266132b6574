package memoryengine

import (
	"errors"
	"time"

	"github.com/polystore-db/polystore-go/nosql"
)

// config carries the settings shared by Store and Bucket.
type config struct {
	clock  func() time.Time
	logger nosql.Logger
}

func defaultConfig() config {
	return config{clock: time.Now}
}

// Option defines a functional option for configuring a Store or a Bucket.
type Option func(*config) error

// WithClock sets the time source used for TTL expiry.
// Tests inject a controllable clock here.
func WithClock(clock func() time.Time) Option {
	return func(c *config) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}

		c.clock = clock

		return nil
	}
}

// WithLogger sets the logger.
//
// Debug level: per-operation messages with entity counts (development use)
// Warn level: non-critical issues like updates that matched nothing.
func WithLogger(logger nosql.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

func (c config) logDebug(msg string, args ...any) {
	if c.logger == nil {
		return
	}

	c.logger.Debug(msg, args...)
}

func (c config) logWarn(msg string, args ...any) {
	if c.logger == nil {
		return
	}

	c.logger.Warn(msg, args...)
}
