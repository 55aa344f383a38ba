// Package hash provides keyed digests for values that must never be stored
// or used as lookup keys in their raw form, such as session identifiers.
package hash
