// internal/delivery/delivery.go

// Package delivery is the boundary to the SMS provider. The core depends
// only on Sender; the provider being down is a retryable condition, never a
// crash.
package delivery

import "context"

// Sender transmits one SMS and returns the provider's delivery identifier.
// Implementations must enforce their own request timeouts.
type Sender interface {
	Send(ctx context.Context, to, body, from string) (string, error)
}
