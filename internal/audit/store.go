package audit

import "context"

// Store persists change events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
