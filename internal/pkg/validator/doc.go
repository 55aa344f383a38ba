// Package validator checks request and dependency structs against their
// `validate` tags and reports failures as a field-to-message map keyed by the
// JSON field name.
package validator
