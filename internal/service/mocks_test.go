package service_test

import (
	"context"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/repository"
)

// Hand-rolled stubs: each method delegates to an optional func field, so a
// test only wires what it cares about.

type stubCustomerRepo struct {
	GetByIDFn func(ctx context.Context, id int) (*model.Customer, error)
}

func (s *stubCustomerRepo) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (s *stubCustomerRepo) ListByBusiness(ctx context.Context, businessID int) ([]model.Customer, error) {
	return nil, nil
}
func (s *stubCustomerRepo) CreateBatch(ctx context.Context, customers []model.Customer) ([]model.Customer, error) {
	return customers, nil
}
func (s *stubCustomerRepo) GetByPhone(ctx context.Context, businessID int, phone string) (*model.Customer, error) {
	return nil, nil
}
func (s *stubCustomerRepo) SetSubscribed(ctx context.Context, id int, subscribed bool) error {
	return nil
}

type stubBusinessRepo struct {
	GetByIDFn func(ctx context.Context, id int) (*model.Business, error)
}

func (s *stubBusinessRepo) Create(ctx context.Context, b *model.Business) error { return nil }
func (s *stubBusinessRepo) GetByID(ctx context.Context, id int) (*model.Business, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (s *stubBusinessRepo) GetByPhone(ctx context.Context, phone string) (*model.Business, error) {
	return nil, nil
}

type stubMessageRepo struct {
	GetByIDFn      func(ctx context.Context, id int) (*model.Message, error)
	SetScheduledFn func(ctx context.Context, id int, at time.Time) error
	MarkSentFn     func(ctx context.Context, id int, deliveryID string, sentAt time.Time) error
	MarkFailedFn   func(ctx context.Context, id int) error
}

func (s *stubMessageRepo) GetByID(ctx context.Context, id int) (*model.Message, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (s *stubMessageRepo) Create(ctx context.Context, msg *model.Message) error { return nil }
func (s *stubMessageRepo) SetScheduled(ctx context.Context, id int, at time.Time) error {
	if s.SetScheduledFn != nil {
		return s.SetScheduledFn(ctx, id, at)
	}
	return nil
}
func (s *stubMessageRepo) MarkSent(ctx context.Context, id int, deliveryID string, sentAt time.Time) error {
	if s.MarkSentFn != nil {
		return s.MarkSentFn(ctx, id, deliveryID, sentAt)
	}
	return nil
}
func (s *stubMessageRepo) MarkFailed(ctx context.Context, id int) error {
	if s.MarkFailedFn != nil {
		return s.MarkFailedFn(ctx, id)
	}
	return nil
}
func (s *stubMessageRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error) {
	return nil, nil
}
func (s *stubMessageRepo) MarkQueued(ctx context.Context, id int, at time.Time) error { return nil }
func (s *stubMessageRepo) ListByConversation(ctx context.Context, conversationID int) ([]model.Message, error) {
	return nil, nil
}
func (s *stubMessageRepo) StatsByBusiness(ctx context.Context, businessID int) (map[string]int, error) {
	return nil, nil
}

type stubSMSRepo struct {
	GetByIDFn    func(ctx context.Context, id int) (*model.ScheduledSMS, error)
	CreateFn     func(ctx context.Context, sms *model.ScheduledSMS) error
	MarkSentFn   func(ctx context.Context, id int, sentAt time.Time) error
	MarkFailedFn func(ctx context.Context, id int) error
}

func (s *stubSMSRepo) Create(ctx context.Context, sms *model.ScheduledSMS) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, sms)
	}
	return nil
}
func (s *stubSMSRepo) GetByID(ctx context.Context, id int) (*model.ScheduledSMS, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (s *stubSMSRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledSMS, error) {
	return nil, nil
}
func (s *stubSMSRepo) MarkQueued(ctx context.Context, id int, at time.Time) error { return nil }
func (s *stubSMSRepo) MarkSent(ctx context.Context, id int, sentAt time.Time) error {
	if s.MarkSentFn != nil {
		return s.MarkSentFn(ctx, id, sentAt)
	}
	return nil
}
func (s *stubSMSRepo) MarkFailed(ctx context.Context, id int) error {
	if s.MarkFailedFn != nil {
		return s.MarkFailedFn(ctx, id)
	}
	return nil
}

type stubRoadmapRepo struct {
	SaveBatchFn           func(ctx context.Context, customer *model.Customer, business *model.Business, entries []repository.RoadmapEntry) error
	ListByCustomerFn      func(ctx context.Context, customerID int) ([]model.RoadmapMessage, error)
	GetByIDFn             func(ctx context.Context, id int) (*model.RoadmapMessage, error)
	DeleteUnsentFn        func(ctx context.Context, customerID int) (int, error)
	ConfirmScheduleFn     func(ctx context.Context, id, messageID int, sendAt time.Time) error
	SetStatusFn           func(ctx context.Context, id int, status string) error
	MarkSentByMessageIDFn func(ctx context.Context, messageID int) error
}

func (s *stubRoadmapRepo) SaveBatch(ctx context.Context, customer *model.Customer, business *model.Business, entries []repository.RoadmapEntry) error {
	if s.SaveBatchFn != nil {
		return s.SaveBatchFn(ctx, customer, business, entries)
	}
	return nil
}
func (s *stubRoadmapRepo) ListByCustomer(ctx context.Context, customerID int) ([]model.RoadmapMessage, error) {
	if s.ListByCustomerFn != nil {
		return s.ListByCustomerFn(ctx, customerID)
	}
	return nil, nil
}
func (s *stubRoadmapRepo) GetByID(ctx context.Context, id int) (*model.RoadmapMessage, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (s *stubRoadmapRepo) DeleteUnsent(ctx context.Context, customerID int) (int, error) {
	if s.DeleteUnsentFn != nil {
		return s.DeleteUnsentFn(ctx, customerID)
	}
	return 0, nil
}
func (s *stubRoadmapRepo) ConfirmSchedule(ctx context.Context, id, messageID int, sendAt time.Time) error {
	if s.ConfirmScheduleFn != nil {
		return s.ConfirmScheduleFn(ctx, id, messageID, sendAt)
	}
	return nil
}
func (s *stubRoadmapRepo) SetStatus(ctx context.Context, id int, status string) error {
	if s.SetStatusFn != nil {
		return s.SetStatusFn(ctx, id, status)
	}
	return nil
}
func (s *stubRoadmapRepo) MarkSentByMessageID(ctx context.Context, messageID int) error {
	if s.MarkSentByMessageIDFn != nil {
		return s.MarkSentByMessageIDFn(ctx, messageID)
	}
	return nil
}

// recordingSender captures whatever the dispatcher asks it to send.
type recordingSender struct {
	calls []sentSMS
	err   error
}

type sentSMS struct {
	To   string
	Body string
	From string
}

func (s *recordingSender) Send(ctx context.Context, to, body, from string) (string, error) {
	s.calls = append(s.calls, sentSMS{To: to, Body: body, From: from})
	if s.err != nil {
		return "", s.err
	}
	return "SM-test", nil
}
