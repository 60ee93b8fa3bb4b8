package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/scheduler"
)

type fakeMessageRepo struct {
	due    []model.Message
	queued []int
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id int) (*model.Message, error) {
	return nil, nil
}
func (f *fakeMessageRepo) Create(ctx context.Context, msg *model.Message) error         { return nil }
func (f *fakeMessageRepo) SetScheduled(ctx context.Context, id int, at time.Time) error { return nil }
func (f *fakeMessageRepo) MarkSent(ctx context.Context, id int, deliveryID string, sentAt time.Time) error {
	return nil
}
func (f *fakeMessageRepo) MarkFailed(ctx context.Context, id int) error { return nil }
func (f *fakeMessageRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error) {
	return f.due, nil
}
func (f *fakeMessageRepo) MarkQueued(ctx context.Context, id int, at time.Time) error {
	f.queued = append(f.queued, id)
	return nil
}
func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID int) ([]model.Message, error) {
	return nil, nil
}
func (f *fakeMessageRepo) StatsByBusiness(ctx context.Context, businessID int) (map[string]int, error) {
	return nil, nil
}

type fakeSMSRepo struct {
	due    []model.ScheduledSMS
	queued []int
}

func (f *fakeSMSRepo) Create(ctx context.Context, sms *model.ScheduledSMS) error { return nil }
func (f *fakeSMSRepo) GetByID(ctx context.Context, id int) (*model.ScheduledSMS, error) {
	return nil, nil
}
func (f *fakeSMSRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledSMS, error) {
	return f.due, nil
}
func (f *fakeSMSRepo) MarkQueued(ctx context.Context, id int, at time.Time) error {
	f.queued = append(f.queued, id)
	return nil
}
func (f *fakeSMSRepo) MarkSent(ctx context.Context, id int, sentAt time.Time) error { return nil }
func (f *fakeSMSRepo) MarkFailed(ctx context.Context, id int) error                 { return nil }

type captureQueue struct {
	jobs []queue.Job
	err  error
}

func (q *captureQueue) Publish(ctx context.Context, job queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestPollOncePublishesAndMarksQueued(t *testing.T) {
	msgRepo := &fakeMessageRepo{due: []model.Message{{ID: 1}, {ID: 2}}}
	smsRepo := &fakeSMSRepo{due: []model.ScheduledSMS{{ID: 9}}}
	q := &captureQueue{}
	s := scheduler.New(msgRepo, smsRepo, q, zerolog.Nop())

	require.NoError(t, s.PollOnce(context.Background()))

	require.Len(t, q.jobs, 3)
	assert.Equal(t, queue.KindMessage, q.jobs[0].Kind)
	assert.Equal(t, queue.KindScheduledSMS, q.jobs[2].Kind)
	assert.Equal(t, []int{1, 2}, msgRepo.queued)
	assert.Equal(t, []int{9}, smsRepo.queued)
}

func TestPollOnceSkipsMarkQueuedOnPublishFailure(t *testing.T) {
	msgRepo := &fakeMessageRepo{due: []model.Message{{ID: 1}}}
	q := &captureQueue{err: errors.New("broker down")}
	s := scheduler.New(msgRepo, &fakeSMSRepo{}, q, zerolog.Nop())

	require.NoError(t, s.PollOnce(context.Background()))
	assert.Empty(t, msgRepo.queued, "rows stay claimable when the publish fails")
}
