package instrument

import "context"

type correlationKey struct{}

// HeaderCorrelationID carries the correlation ID on HTTP requests and responses.
const HeaderCorrelationID = "X-Correlation-ID"

// SetCorrelationID returns a context carrying id.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation ID stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
