package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/service"
)

type recordingQueue struct {
	jobs []queue.Job
}

func (q *recordingQueue) Publish(ctx context.Context, job queue.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func smsFixture(q *recordingQueue, smsRepo *stubSMSRepo) *service.SMSService {
	return &service.SMSService{
		SMSRepo: smsRepo,
		CustomerRepo: &stubCustomerRepo{
			GetByIDFn: func(ctx context.Context, id int) (*model.Customer, error) {
				return &model.Customer{ID: id, BusinessID: 1, Phone: "+15550001111",
					FirstName: "Alice", Subscribed: true}, nil
			},
		},
		Queue: q,
		Log:   zerolog.Nop(),
	}
}

func TestSendBatchImmediatePublishesJobs(t *testing.T) {
	q := &recordingQueue{}
	nextID := 100
	smsRepo := &stubSMSRepo{
		CreateFn: func(ctx context.Context, sms *model.ScheduledSMS) error {
			nextID++
			sms.ID = nextID
			return nil
		},
	}
	svc := smsFixture(q, smsRepo)

	result, err := svc.SendBatch(context.Background(), 1, []int{1, 2}, "Hi {first_name}!", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Queued)
	assert.Len(t, q.jobs, 2)
	assert.Equal(t, queue.KindScheduledSMS, q.jobs[0].Kind)
}

func TestSendBatchDeferredLeavesQueueAlone(t *testing.T) {
	q := &recordingQueue{}
	var saved []*model.ScheduledSMS
	smsRepo := &stubSMSRepo{
		CreateFn: func(ctx context.Context, sms *model.ScheduledSMS) error {
			sms.ID = len(saved) + 1
			saved = append(saved, sms)
			return nil
		},
	}
	svc := smsFixture(q, smsRepo)

	sendAt := time.Now().Add(2 * time.Hour)
	result, err := svc.SendBatch(context.Background(), 1, []int{1}, "later", &sendAt)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Queued)
	assert.Empty(t, q.jobs, "deferred sends wait for the poller")
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].SendAt)
}

func TestSendBatchRendersPlaceholders(t *testing.T) {
	var saved *model.ScheduledSMS
	smsRepo := &stubSMSRepo{
		CreateFn: func(ctx context.Context, sms *model.ScheduledSMS) error {
			sms.ID = 1
			saved = sms
			return nil
		},
	}
	svc := smsFixture(&recordingQueue{}, smsRepo)

	_, err := svc.SendBatch(context.Background(), 1, []int{1}, "Hi {first_name}!", nil)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Hi Alice!", saved.Body)
}

func TestSendBatchRejectsEmptyBody(t *testing.T) {
	svc := smsFixture(&recordingQueue{}, &stubSMSRepo{})

	_, err := svc.SendBatch(context.Background(), 1, []int{1}, "   ", nil)
	assert.ErrorIs(t, err, service.ErrEmptyBody)
}

func TestSendBatchRejectsForeignCustomer(t *testing.T) {
	svc := smsFixture(&recordingQueue{}, &stubSMSRepo{})
	svc.CustomerRepo = &stubCustomerRepo{
		GetByIDFn: func(ctx context.Context, id int) (*model.Customer, error) {
			return &model.Customer{ID: id, BusinessID: 2}, nil
		},
	}

	_, err := svc.SendBatch(context.Background(), 1, []int{5}, "hi", nil)
	var missing *appErrors.MissingEntityError
	require.True(t, errors.As(err, &missing))
}
