// Package requestid propagates request IDs via context. IDs arrive on the
// X-Request-ID header from upstream proxies or are minted here.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// Ensure keeps an inbound ID when one was supplied and mints a fresh one
// otherwise, returning the enriched context and the effective ID. Callers
// validate nothing: the ID is opaque and only echoed back for correlation.
func Ensure(ctx context.Context, inbound string) (context.Context, string) {
	id := inbound
	if id == "" {
		id = uuid.New().String()
	}
	return WithRequestID(ctx, id), id
}
