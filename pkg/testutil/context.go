package testutil

import (
	"context"
	"time"

	"securitysvc/pkg/requestcontext"
)

// RequestContext returns a background context carrying a request ID and a fixed
// request time, the state the HTTP middleware chain would produce.
func RequestContext(requestID string, now time.Time) context.Context {
	ctx := requestcontext.WithRequestID(context.Background(), requestID)
	return requestcontext.WithTime(ctx, now)
}
