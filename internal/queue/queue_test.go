package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/queue"
)

func TestPublishWithoutSubscribersFails(t *testing.T) {
	q := queue.NewInMemoryQueue()
	err := q.Publish(context.Background(), queue.NewJob(queue.KindMessage, 1))
	assert.Error(t, err)
}

func TestTransientFailureIsRetried(t *testing.T) {
	q := queue.NewInMemoryQueue()
	q.RetryDelay = 0

	var attempts []int
	q.Subscribe(func(ctx context.Context, job queue.Job) error {
		attempts = append(attempts, job.Attempt)
		if job.Attempt < 3 {
			return appErrors.NewDelivery(errors.New("provider flaked"))
		}
		return nil
	})

	require.NoError(t, q.Publish(context.Background(), queue.NewJob(queue.KindMessage, 10)))
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestTransientFailureIsAbandonedAtAttemptCap(t *testing.T) {
	q := queue.NewInMemoryQueue()
	q.RetryDelay = 0

	calls := 0
	q.Subscribe(func(ctx context.Context, job queue.Job) error {
		calls++
		return appErrors.NewDelivery(errors.New("still down"))
	})

	require.NoError(t, q.Publish(context.Background(), queue.NewJob(queue.KindMessage, 10)))
	assert.Equal(t, queue.MaxAttempts, calls)
}

func TestTerminalFailureIsNotRetried(t *testing.T) {
	q := queue.NewInMemoryQueue()
	q.RetryDelay = 0

	calls := 0
	q.Subscribe(func(ctx context.Context, job queue.Job) error {
		calls++
		return errors.New("bad data, retrying will not help")
	})

	require.NoError(t, q.Publish(context.Background(), queue.NewJob(queue.KindScheduledSMS, 5)))
	assert.Equal(t, 1, calls)
}

func TestNewJobStartsAtAttemptOne(t *testing.T) {
	job := queue.NewJob(queue.KindMessage, 42)
	assert.Equal(t, 1, job.Attempt)
	assert.Equal(t, 42, job.RecordID)
	assert.NotEmpty(t, job.ID)
}
