// internal/service/inbound_service.go
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/repository"
)

// ReplyDrafter is the LLM collaborator answering inbound messages in the
// owner's voice.
type ReplyDrafter interface {
	DraftReply(ctx context.Context, business *model.Business, history []model.Message, inbound string) (string, error)
}

// InboundService processes provider webhooks for customer-originated SMS:
// consent keywords flip the subscription flag, anything else gets an LLM
// reply draft queued for owner review.
type InboundService struct {
	BusinessRepo     repository.BusinessRepositoryInterface
	CustomerRepo     repository.CustomerRepositoryInterface
	ConversationRepo repository.ConversationRepositoryInterface
	MessageRepo      repository.MessageRepositoryInterface
	Drafter          ReplyDrafter
	Log              zerolog.Logger
}

// InboundResult describes how a webhook was handled.
type InboundResult struct {
	Action  string `json:"action"` // "opt_out", "opt_in", "reply_drafted"
	ReplyID int    `json:"reply_id,omitempty"`
}

// Consent keywords per CTIA guidance.
var (
	optOutKeywords = map[string]bool{"STOP": true, "STOPALL": true, "UNSUBSCRIBE": true, "CANCEL": true, "END": true, "QUIT": true}
	optInKeywords  = map[string]bool{"START": true, "YES": true, "UNSTOP": true}
)

// HandleInbound routes one inbound SMS: from is the customer number, to is
// the business number.
func (s *InboundService) HandleInbound(ctx context.Context, from, to, body string) (*InboundResult, error) {
	business, err := s.BusinessRepo.GetByPhone(ctx, to)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, appErrors.NewMissingEntity("business", 0)
	}

	customer, err := s.CustomerRepo.GetByPhone(ctx, business.ID, from)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewMissingEntity("customer", 0)
	}

	keyword := strings.ToUpper(strings.TrimSpace(body))
	switch {
	case optOutKeywords[keyword]:
		if err := s.CustomerRepo.SetSubscribed(ctx, customer.ID, false); err != nil {
			return nil, err
		}
		s.Log.Info().Int("customer_id", customer.ID).Msg("customer opted out")
		return &InboundResult{Action: "opt_out"}, nil

	case optInKeywords[keyword]:
		if err := s.CustomerRepo.SetSubscribed(ctx, customer.ID, true); err != nil {
			return nil, err
		}
		s.Log.Info().Int("customer_id", customer.ID).Msg("customer opted back in")
		return &InboundResult{Action: "opt_in"}, nil
	}

	conv, err := s.ConversationRepo.GetOrCreateActive(ctx, customer.ID, business.ID)
	if err != nil {
		return nil, err
	}

	history, err := s.MessageRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	draft, err := s.Drafter.DraftReply(ctx, business, history, body)
	if err != nil {
		return nil, err
	}

	reply := &model.Message{
		ConversationID: conv.ID,
		CustomerID:     customer.ID,
		BusinessID:     business.ID,
		Body:           draft,
		Type:           model.MessageTypeReply,
		Status:         model.StatusPendingReview,
		Metadata:       model.MessageMetadata{Source: "webhook"},
	}
	if err := s.MessageRepo.Create(ctx, reply); err != nil {
		return nil, err
	}
	if err := s.ConversationRepo.Touch(ctx, conv.ID); err != nil {
		s.Log.Error().Err(err).Int("conversation_id", conv.ID).Msg("failed to touch conversation")
	}

	return &InboundResult{Action: "reply_drafted", ReplyID: reply.ID}, nil
}
