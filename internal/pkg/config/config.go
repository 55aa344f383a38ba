package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations.
type TimeConfig interface {
	// GetMillisecond returns the value for key multiplied by time.Millisecond, or 0 when missing.
	GetMillisecond(key string) time.Duration

	// GetSecond returns the value for key multiplied by time.Second, or 0 when missing.
	GetSecond(key string) time.Duration

	// GetMinute returns the value for key multiplied by time.Minute, or 0 when missing.
	GetMinute(key string) time.Duration

	// GetHour returns the value for key multiplied by time.Hour, or 0 when missing.
	GetHour(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Getters return the zero value for missing or unconvertible keys; use IsSet to tell
// an explicit zero from an absent key.
type Config interface {
	io.Closer
	TimeConfig

	// IsSet reports whether key has a value in the file or environment.
	IsSet(key string) bool

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64
	GetString(key string) string

	// GetBinary returns the base64-decoded value for key, or nil when it does not decode.
	GetBinary(key string) []byte

	// GetArray returns the comma separated value for key, trimmed and without empty elements.
	GetArray(key string) []string

	// GetMap returns the value for key parsed from "<k1>:<v1>,<k2>:<v2>" pairs.
	GetMap(key string) map[string]string
}
