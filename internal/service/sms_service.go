// internal/service/sms_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/repository"
)

// SMSService handles the ad-hoc send path: one-off or batch sends backed by
// lightweight ScheduledSMS rows, outside the roadmap/conversation machinery.
type SMSService struct {
	SMSRepo      repository.ScheduledSMSRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Queue        queue.Queue
	Log          zerolog.Logger
}

// ErrEmptyBody rejects sends with nothing to say.
var ErrEmptyBody = errors.New("sms body cannot be empty")

// SendResult reports what a batch send queued.
type SendResult struct {
	Queued int   `json:"queued"`
	IDs    []int `json:"ids"`
}

// SendBatch creates a ScheduledSMS per customer. A nil sendAt means
// immediate: the job is published right away instead of waiting for the
// poller. The body may carry {first_name}-style placeholders.
func (s *SMSService) SendBatch(ctx context.Context, businessID int, customerIDs []int, body string, sendAt *time.Time) (*SendResult, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	result := &SendResult{IDs: []int{}}
	for _, customerID := range customerIDs {
		customer, err := s.CustomerRepo.GetByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if customer == nil || customer.BusinessID != businessID {
			return nil, appErrors.NewMissingEntity("customer", customerID)
		}

		sms := &model.ScheduledSMS{
			CustomerID: customer.ID,
			BusinessID: businessID,
			Body:       RenderTemplate(body, CustomerTemplateData(customer)),
			Status:     model.StatusScheduled,
			SendAt:     sendAt,
		}
		if err := s.SMSRepo.Create(ctx, sms); err != nil {
			return nil, err
		}

		if sendAt == nil {
			if err := s.Queue.Publish(ctx, queue.NewJob(queue.KindScheduledSMS, sms.ID)); err != nil {
				s.Log.Error().Err(err).Int("sms_id", sms.ID).Msg("failed to enqueue immediate send")
				continue
			}
		}

		result.IDs = append(result.IDs, sms.ID)
		result.Queued++
	}
	return result, nil
}
