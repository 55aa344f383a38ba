// Package uid generates identifiers: UUIDs for correlation and token IDs,
// snowflake numbers for event IDs.
package uid

// NumberID generates unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
