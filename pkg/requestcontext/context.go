// Package requestcontext carries request-scoped values from the HTTP middleware
// chain down to services, audit publishing and logging without importing net/http.
package requestcontext

import (
	"context"
	"time"

	id "securitysvc/pkg/domain"
)

type key int

const (
	requestIDKey key = iota
	requestTimeKey
	apiVersionKey
)

// RequestID returns the id assigned by the request id middleware, or "".
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// APIVersion returns the version of the subrouter serving the request, or ""
// outside a versioned route.
func APIVersion(ctx context.Context) id.APIVersion {
	v, _ := ctx.Value(apiVersionKey).(id.APIVersion)
	return v
}

func WithAPIVersion(ctx context.Context, v id.APIVersion) context.Context {
	return context.WithValue(ctx, apiVersionKey, v)
}

// Now returns the pinned request time. Background work (the audit worker,
// tests) has none and gets the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
