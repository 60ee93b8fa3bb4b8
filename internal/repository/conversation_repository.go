package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/textloop/textloop-backend/internal/model"
)

type ConversationRepositoryInterface interface {
	GetActive(ctx context.Context, customerID, businessID int) (*model.Conversation, error)
	GetOrCreateActive(ctx context.Context, customerID, businessID int) (*model.Conversation, error)
	Touch(ctx context.Context, id int) error
}

type ConversationRepository struct {
	DB *sql.DB
}

// querier covers *sql.DB and *sql.Tx; the roadmap save reuses the
// get-or-create inside its own transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const conversationColumns = `id, public_id, customer_id, business_id, status, started_at, last_activity_at`

// GetActive returns the single active conversation for the pair, nil when none
func (r *ConversationRepository) GetActive(ctx context.Context, customerID, businessID int) (*model.Conversation, error) {
	return getActiveConversation(ctx, r.DB, customerID, businessID)
}

// GetOrCreateActive fetches the active conversation, creating one when absent
func (r *ConversationRepository) GetOrCreateActive(ctx context.Context, customerID, businessID int) (*model.Conversation, error) {
	return getOrCreateActiveConversation(ctx, r.DB, customerID, businessID)
}

// Touch bumps last_activity_at
func (r *ConversationRepository) Touch(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE conversations SET last_activity_at=NOW() WHERE id=$1`, id)
	return err
}

func getActiveConversation(ctx context.Context, q querier, customerID, businessID int) (*model.Conversation, error) {
	query := `
        SELECT ` + conversationColumns + `
        FROM conversations
        WHERE customer_id=$1 AND business_id=$2 AND status=$3
    `
	var c model.Conversation
	err := q.QueryRowContext(ctx, query, customerID, businessID, model.ConversationActive).
		Scan(&c.ID, &c.PublicID, &c.CustomerID, &c.BusinessID, &c.Status, &c.StartedAt, &c.LastActivityAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func getOrCreateActiveConversation(ctx context.Context, q querier, customerID, businessID int) (*model.Conversation, error) {
	existing, err := getActiveConversation(ctx, q, customerID, businessID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	c := &model.Conversation{
		PublicID:       uuid.New(),
		CustomerID:     customerID,
		BusinessID:     businessID,
		Status:         model.ConversationActive,
		StartedAt:      now,
		LastActivityAt: now,
	}
	query := `
        INSERT INTO conversations (public_id, customer_id, business_id, status, started_at, last_activity_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	err = q.QueryRowContext(ctx, query, c.PublicID, c.CustomerID, c.BusinessID, c.Status, c.StartedAt, c.LastActivityAt).Scan(&c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
