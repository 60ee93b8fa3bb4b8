package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
)

// Job kinds: which record table the ID points into.
const (
	KindMessage      = "message"
	KindScheduledSMS = "scheduled_sms"
)

// Delivery retry policy: transient failures get MaxAttempts tries spaced
// RetryDelay apart, then the job is abandoned to operator logs.
const (
	MaxAttempts = 3
	RetryDelay  = 60 * time.Second
)

// Job is one send task. Jobs are delivered at least once; the handler is the
// idempotency gate.
type Job struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	RecordID int    `json:"record_id"`
	Attempt  int    `json:"attempt"`
}

// NewJob builds a first-attempt job for a record.
func NewJob(kind string, recordID int) Job {
	return Job{ID: uuid.NewString(), Kind: kind, RecordID: recordID, Attempt: 1}
}

// Handler processes one job. Returning a *DeliveryError marks the failure
// transient and retryable; any other error terminates the job.
type Handler func(ctx context.Context, job Job) error

// Queue publishes send jobs for worker consumption.
type Queue interface {
	Publish(ctx context.Context, job Job) error
}

// InMemoryQueue runs handlers in-process. Used by tests and single-binary
// development setups; production uses the AMQP implementation.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers []Handler

	// RetryDelay overrides the package default; tests set it to zero.
	RetryDelay time.Duration
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{RetryDelay: RetryDelay}
}

// Subscribe adds a handler invoked for every published job.
func (q *InMemoryQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Publish dispatches the job to every subscriber synchronously, applying the
// same retry policy the AMQP consumer does.
func (q *InMemoryQueue) Publish(ctx context.Context, job Job) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return errors.New("no subscribers registered")
	}

	for _, handler := range handlers {
		q.process(ctx, handler, job)
	}
	return nil
}

func (q *InMemoryQueue) process(ctx context.Context, handler Handler, job Job) {
	for {
		err := handler(ctx, job)
		if err == nil {
			return
		}

		var delivery *appErrors.DeliveryError
		if !errors.As(err, &delivery) {
			log.Error().Err(err).Str("job_id", job.ID).Int("record_id", job.RecordID).
				Msg("job terminated without retry")
			return
		}

		if job.Attempt >= MaxAttempts {
			log.Error().Err(err).Str("job_id", job.ID).Int("record_id", job.RecordID).
				Int("attempts", job.Attempt).Msg("job abandoned after retries")
			return
		}

		job.Attempt++
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.RetryDelay):
		}
	}
}
