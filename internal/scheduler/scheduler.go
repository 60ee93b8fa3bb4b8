// internal/scheduler/scheduler.go

// Package scheduler turns persisted send times into queued jobs. Rows are
// the source of truth: the poller drains whatever is due, and publishing the
// same row twice is safe because the dispatch handler re-validates status.
// There is no per-job timer to cancel; flipping a row's status away from
// scheduled before its ETA is the only cancellation mechanism.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/repository"
)

const pollBatchSize = 200

type Scheduler struct {
	MessageRepo repository.MessageRepositoryInterface
	SMSRepo     repository.ScheduledSMSRepositoryInterface
	Queue       queue.Queue
	Log         zerolog.Logger

	cron *cron.Cron
}

func New(messageRepo repository.MessageRepositoryInterface, smsRepo repository.ScheduledSMSRepositoryInterface, q queue.Queue, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		MessageRepo: messageRepo,
		SMSRepo:     smsRepo,
		Queue:       q,
		Log:         log,
	}
}

// Start runs the due-message poller until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := s.PollOnce(ctx); err != nil {
			s.Log.Error().Err(err).Msg("dispatch poll failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}

	s.cron.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// PollOnce publishes a job for every due message and ad-hoc SMS.
func (s *Scheduler) PollOnce(ctx context.Context) error {
	now := time.Now().UTC()

	due, err := s.MessageRepo.ListDue(ctx, now, pollBatchSize)
	if err != nil {
		return fmt.Errorf("list due messages: %w", err)
	}
	for _, msg := range due {
		if err := s.Queue.Publish(ctx, queue.NewJob(queue.KindMessage, msg.ID)); err != nil {
			s.Log.Error().Err(err).Int("message_id", msg.ID).Msg("failed to publish send job")
			continue
		}
		if err := s.MessageRepo.MarkQueued(ctx, msg.ID, now); err != nil {
			s.Log.Error().Err(err).Int("message_id", msg.ID).Msg("failed to mark message queued")
		}
		s.Log.Debug().Int("message_id", msg.ID).Msg("send job published")
	}

	dueSMS, err := s.SMSRepo.ListDue(ctx, now, pollBatchSize)
	if err != nil {
		return fmt.Errorf("list due scheduled sms: %w", err)
	}
	for _, sms := range dueSMS {
		if err := s.Queue.Publish(ctx, queue.NewJob(queue.KindScheduledSMS, sms.ID)); err != nil {
			s.Log.Error().Err(err).Int("sms_id", sms.ID).Msg("failed to publish send job")
			continue
		}
		if err := s.SMSRepo.MarkQueued(ctx, sms.ID, now); err != nil {
			s.Log.Error().Err(err).Int("sms_id", sms.ID).Msg("failed to mark SMS queued")
		}
	}

	return nil
}
