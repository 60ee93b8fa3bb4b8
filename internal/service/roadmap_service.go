// internal/service/roadmap_service.go
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
	"github.com/textloop/textloop-backend/internal/guard"
	"github.com/textloop/textloop-backend/internal/llm"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/repository"
	"github.com/textloop/textloop-backend/internal/timing"
)

// RoadmapPlanner is the LLM collaborator drafting roadmaps.
type RoadmapPlanner interface {
	GenerateRoadmap(ctx context.Context, business *model.Business, customer *model.Customer) ([]llm.Draft, error)
}

type RoadmapService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	BusinessRepo repository.BusinessRepositoryInterface
	RoadmapRepo  repository.RoadmapRepositoryInterface
	Planner      RoadmapPlanner
	Parser       *timing.Parser
	Guard        *guard.Guard
	Log          zerolog.Logger
}

// Generate drafts and persists a roadmap for the customer. Regeneration is
// serialized per customer by the guard; a second caller gets
// ConcurrentGenerationError instead of queuing up. With force, all unsent
// prior entries are removed first; sent history is never touched. Without
// force, an existing unsent roadmap is returned as-is.
func (s *RoadmapService) Generate(ctx context.Context, customerID int, force bool) ([]model.RoadmapMessage, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewMissingEntity("customer", customerID)
	}

	business, err := s.BusinessRepo.GetByID(ctx, customer.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, appErrors.NewMissingEntity("business", customer.BusinessID)
	}

	if !s.Guard.TryAcquire(customer.ID) {
		return nil, appErrors.NewConcurrentGeneration(customer.ID)
	}
	defer s.Guard.Release(customer.ID)

	existing, err := s.RoadmapRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	if force {
		deleted, err := s.RoadmapRepo.DeleteUnsent(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		s.Log.Info().Int("customer_id", customer.ID).Int("deleted", deleted).
			Msg("cleared unsent roadmap for regeneration")
	} else if hasUnsent(existing) {
		return existing, nil
	}

	drafts, err := s.Planner.GenerateRoadmap(ctx, business, customer)
	if err != nil {
		return nil, fmt.Errorf("roadmap generation failed: %w", err)
	}

	if err := s.Save(ctx, drafts, customer, business); err != nil {
		return nil, err
	}
	return s.RoadmapRepo.ListByCustomer(ctx, customer.ID)
}

// Save resolves every draft's timing label and persists the batch atomically.
// A single unparsable label aborts the whole save; nothing is written.
func (s *RoadmapService) Save(ctx context.Context, drafts []llm.Draft, customer *model.Customer, business *model.Business) error {
	// Stable by day offset: display order is deterministic regardless of how
	// the model ordered its output, and ties keep upstream order.
	sorted := append([]llm.Draft(nil), drafts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DayOffset < sorted[j].DayOffset })

	entries := make([]repository.RoadmapEntry, 0, len(sorted))
	for _, d := range sorted {
		sendAt, err := s.Parser.Parse(d.SMSTiming, business.Timezone)
		if err != nil {
			return err
		}
		entries = append(entries, repository.RoadmapEntry{
			Body:             d.SMSContent,
			TimingLabel:      d.SMSTiming,
			SendAt:           sendAt,
			Schedule:         s.Parser.Format(sendAt, business.Timezone, customer.Timezone),
			Relevance:        d.Relevance,
			SuccessIndicator: d.SuccessIndicator,
			NoResponsePlan:   d.NoResponsePlan,
		})
	}

	return s.RoadmapRepo.SaveBatch(ctx, customer, business, entries)
}

// Confirm approves a reviewed roadmap message: both the roadmap row and its
// twin move to scheduled atomically, stamping the twin's ETA for the
// dispatcher.
func (s *RoadmapService) Confirm(ctx context.Context, roadmapID int) (*model.RoadmapMessage, error) {
	rm, err := s.RoadmapRepo.GetByID(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, appErrors.NewMissingEntity("roadmap message", roadmapID)
	}
	if rm.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("roadmap message %d cannot be confirmed from status %s", rm.ID, rm.Status)
	}
	if rm.MessageID == nil {
		return nil, fmt.Errorf("roadmap message %d has no linked message", rm.ID)
	}

	if err := s.RoadmapRepo.ConfirmSchedule(ctx, rm.ID, *rm.MessageID, rm.SendAt); err != nil {
		return nil, err
	}

	rm.Status = model.StatusScheduled
	return rm, nil
}

// List returns the customer's current roadmap in send order.
func (s *RoadmapService) List(ctx context.Context, customerID int) ([]model.RoadmapMessage, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, appErrors.NewMissingEntity("customer", customerID)
	}
	return s.RoadmapRepo.ListByCustomer(ctx, customerID)
}

func hasUnsent(items []model.RoadmapMessage) bool {
	for _, m := range items {
		if m.Status != model.StatusSent {
			return true
		}
	}
	return false
}
