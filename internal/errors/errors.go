// internal/errors/errors.go
package appErrors

import "fmt"

// MissingEntityError reports a customer, business or message that should
// exist but does not. Jobs hitting this terminate without retry: it is a data
// problem, not a transient one.
type MissingEntityError struct {
	Entity string
	ID     int
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

func NewMissingEntity(entity string, id int) error {
	return &MissingEntityError{Entity: entity, ID: id}
}

// DeliveryError wraps a transient failure reported by the SMS provider. The
// queue retries these up to the attempt cap before abandoning the job.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func NewDelivery(err error) error {
	return &DeliveryError{Err: err}
}

// ConcurrentGenerationError means a roadmap generation is already running for
// the customer. Surfaced to the caller as a conflict; never retried.
type ConcurrentGenerationError struct {
	CustomerID int
}

func (e *ConcurrentGenerationError) Error() string {
	return fmt.Sprintf("roadmap generation already in progress for customer %d", e.CustomerID)
}

func NewConcurrentGeneration(customerID int) error {
	return &ConcurrentGenerationError{CustomerID: customerID}
}
