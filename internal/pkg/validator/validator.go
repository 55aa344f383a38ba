package validator

// Validator validates structs.
type Validator interface {
	// Validate returns nil, a V10ValidationError, or an error for a non-struct argument.
	Validate(data any) error
}
