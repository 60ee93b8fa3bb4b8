// internal/service/dispatch_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/textloop/textloop-backend/internal/delivery"
	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/repository"
)

// DispatchService is the worker-side job handler. Jobs arrive at least once
// and may fire concurrently, so every step re-validates against the database:
// the status gate is the only cancellation mechanism and the sole protection
// against duplicate delivery.
type DispatchService struct {
	MessageRepo  repository.MessageRepositoryInterface
	SMSRepo      repository.ScheduledSMSRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	BusinessRepo repository.BusinessRepositoryInterface
	RoadmapRepo  repository.RoadmapRepositoryInterface
	Sender       delivery.Sender
	Log          zerolog.Logger

	now func() time.Time
}

func NewDispatchService(
	messageRepo repository.MessageRepositoryInterface,
	smsRepo repository.ScheduledSMSRepositoryInterface,
	customerRepo repository.CustomerRepositoryInterface,
	businessRepo repository.BusinessRepositoryInterface,
	roadmapRepo repository.RoadmapRepositoryInterface,
	sender delivery.Sender,
	log zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		MessageRepo:  messageRepo,
		SMSRepo:      smsRepo,
		CustomerRepo: customerRepo,
		BusinessRepo: businessRepo,
		RoadmapRepo:  roadmapRepo,
		Sender:       sender,
		Log:          log,
		now:          time.Now,
	}
}

// Handle processes one queued send job.
func (s *DispatchService) Handle(ctx context.Context, job queue.Job) error {
	switch job.Kind {
	case queue.KindMessage:
		return s.handleMessage(ctx, job)
	case queue.KindScheduledSMS:
		return s.handleScheduledSMS(ctx, job)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (s *DispatchService) handleMessage(ctx context.Context, job queue.Job) error {
	msg, err := s.MessageRepo.GetByID(ctx, job.RecordID)
	if err != nil {
		return appErrors.NewDelivery(err) // db hiccup, worth a retry
	}
	if msg == nil {
		s.Log.Warn().Int("message_id", job.RecordID).Msg("message vanished before dispatch")
		return nil
	}

	// Idempotency gate: a second fire for the same message, or a message
	// cancelled during review, lands here and does nothing.
	if msg.Status != model.StatusScheduled {
		s.Log.Debug().Int("message_id", msg.ID).Str("status", msg.Status).
			Msg("message not dispatchable, skipping")
		return nil
	}

	// ETA gate. The queue should never hand us a premature job, but clock
	// skew or a manual requeue must not cause an early send.
	if msg.ScheduledAt != nil && s.now().Before(*msg.ScheduledAt) {
		s.Log.Warn().Int("message_id", msg.ID).Time("scheduled_at", *msg.ScheduledAt).
			Msg("job fired before ETA, skipping")
		return nil
	}

	customer, business, err := s.loadParties(ctx, msg.CustomerID, msg.BusinessID)
	if err != nil {
		return err
	}
	if customer == nil || business == nil {
		// Already logged, data problem. Retire the row so the poller does
		// not keep republishing it once the requeue window lapses.
		s.markMessageFailed(ctx, msg.ID)
		return nil
	}

	deliveryID, err := s.Sender.Send(ctx, customer.Phone, msg.Body, business.Phone)
	if err != nil {
		if terminalSendFailure(err, job.Attempt) {
			s.markMessageFailed(ctx, msg.ID)
		}
		return err // *DeliveryError retries; anything else terminates
	}

	sentAt := s.now().UTC()
	if err := s.MessageRepo.MarkSent(ctx, msg.ID, deliveryID, sentAt); err != nil {
		return appErrors.NewDelivery(err)
	}
	if msg.Metadata.RoadmapMessageID != nil {
		if err := s.RoadmapRepo.MarkSentByMessageID(ctx, msg.ID); err != nil {
			s.Log.Error().Err(err).Int("message_id", msg.ID).Msg("failed to mirror sent status onto roadmap")
		}
	}

	s.Log.Info().Int("message_id", msg.ID).Str("delivery_id", deliveryID).Msg("message sent")
	return nil
}

func (s *DispatchService) handleScheduledSMS(ctx context.Context, job queue.Job) error {
	sms, err := s.SMSRepo.GetByID(ctx, job.RecordID)
	if err != nil {
		return appErrors.NewDelivery(err)
	}
	if sms == nil {
		s.Log.Warn().Int("sms_id", job.RecordID).Msg("scheduled SMS vanished before dispatch")
		return nil
	}

	if sms.Status != model.StatusScheduled {
		s.Log.Debug().Int("sms_id", sms.ID).Str("status", sms.Status).
			Msg("SMS not dispatchable, skipping")
		return nil
	}

	if sms.SendAt != nil && s.now().Before(*sms.SendAt) {
		s.Log.Warn().Int("sms_id", sms.ID).Time("send_at", *sms.SendAt).
			Msg("job fired before ETA, skipping")
		return nil
	}

	customer, business, err := s.loadParties(ctx, sms.CustomerID, sms.BusinessID)
	if err != nil {
		return err
	}
	if customer == nil || business == nil {
		s.markSMSFailed(ctx, sms.ID)
		return nil
	}

	deliveryID, err := s.Sender.Send(ctx, customer.Phone, sms.Body, business.Phone)
	if err != nil {
		if terminalSendFailure(err, job.Attempt) {
			s.markSMSFailed(ctx, sms.ID)
		}
		return err
	}

	if err := s.SMSRepo.MarkSent(ctx, sms.ID, s.now().UTC()); err != nil {
		return appErrors.NewDelivery(err)
	}
	s.Log.Info().Int("sms_id", sms.ID).Str("delivery_id", deliveryID).Msg("ad-hoc SMS sent")
	return nil
}

// terminalSendFailure reports whether a send error ends the job for good:
// a permanent provider rejection, or a transient failure on the attempt the
// queue will no longer retry. Either way the row must leave scheduled state
// or the poller would republish it forever.
func terminalSendFailure(err error, attempt int) bool {
	var de *appErrors.DeliveryError
	if !errors.As(err, &de) {
		return true
	}
	return attempt >= queue.MaxAttempts
}

func (s *DispatchService) markMessageFailed(ctx context.Context, id int) {
	if err := s.MessageRepo.MarkFailed(ctx, id); err != nil {
		s.Log.Error().Err(err).Int("message_id", id).Msg("failed to retire message")
		return
	}
	s.Log.Warn().Int("message_id", id).Msg("message marked failed")
}

func (s *DispatchService) markSMSFailed(ctx context.Context, id int) {
	if err := s.SMSRepo.MarkFailed(ctx, id); err != nil {
		s.Log.Error().Err(err).Int("sms_id", id).Msg("failed to retire scheduled SMS")
		return
	}
	s.Log.Warn().Int("sms_id", id).Msg("scheduled SMS marked failed")
}

// loadParties resolves the customer and business for a send. A missing row,
// a missing phone, or an opted-out customer is a terminal condition: it is
// logged and the job ends without retry. Both return values are nil in that
// case.
func (s *DispatchService) loadParties(ctx context.Context, customerID, businessID int) (*model.Customer, *model.Business, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, nil, appErrors.NewDelivery(err)
	}
	if customer == nil {
		s.Log.Error().Int("customer_id", customerID).Msg("customer not found, dropping send")
		return nil, nil, nil
	}
	if customer.Phone == "" {
		s.Log.Error().Int("customer_id", customerID).Msg("customer has no phone number, dropping send")
		return nil, nil, nil
	}
	if !customer.Subscribed {
		s.Log.Info().Int("customer_id", customerID).Msg("customer opted out, dropping send")
		return nil, nil, nil
	}

	business, err := s.BusinessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, nil, appErrors.NewDelivery(err)
	}
	if business == nil {
		s.Log.Error().Int("business_id", businessID).Msg("business not found, dropping send")
		return nil, nil, nil
	}

	return customer, business, nil
}
