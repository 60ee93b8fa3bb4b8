package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
)

type MessageRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Message, error)
	Create(ctx context.Context, msg *model.Message) error
	SetScheduled(ctx context.Context, id int, at time.Time) error
	MarkSent(ctx context.Context, id int, deliveryID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error)
	MarkQueued(ctx context.Context, id int, at time.Time) error
	ListByConversation(ctx context.Context, conversationID int) ([]model.Message, error)
	StatsByBusiness(ctx context.Context, businessID int) (map[string]int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `id, conversation_id, customer_id, business_id, body, type, status, scheduled_at, queued_at, sent_at, delivery_id, metadata, created_at, updated_at`

// requeueAfter bounds how long a published-but-unfinished row stays invisible
// to the poller before it is offered again.
const requeueAfter = 5 * time.Minute

func scanMessage(row interface{ Scan(...any) error }) (*model.Message, error) {
	var msg model.Message
	var meta []byte
	var deliveryID sql.NullString // NULL until the provider accepts the send
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.CustomerID, &msg.BusinessID,
		&msg.Body, &msg.Type, &msg.Status, &msg.ScheduledAt, &msg.QueuedAt, &msg.SentAt,
		&deliveryID, &meta, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.DeliveryID = deliveryID.String
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &msg.Metadata); err != nil {
			return nil, err
		}
	}
	return &msg, nil
}

// GetByID fetches a message by its ID, nil when not found
func (r *MessageRepository) GetByID(ctx context.Context, id int) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	msg, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return msg, err
}

// Create inserts a new message and fills in its generated ID
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	meta, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO messages
        (conversation_id, customer_id, business_id, body, type, status, scheduled_at, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		msg.ConversationID, msg.CustomerID, msg.BusinessID,
		msg.Body, msg.Type, msg.Status, msg.ScheduledAt, meta,
		msg.CreatedAt, msg.UpdatedAt,
	).Scan(&msg.ID)
}

// SetScheduled moves a reviewed message into scheduled state with its ETA
func (r *MessageRepository) SetScheduled(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE messages SET status=$1, scheduled_at=$2, queued_at=NULL, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, model.StatusScheduled, at.UTC(), id)
	return err
}

// MarkSent records a completed delivery
func (r *MessageRepository) MarkSent(ctx context.Context, id int, deliveryID string, sentAt time.Time) error {
	query := `UPDATE messages SET status=$1, delivery_id=$2, sent_at=$3, updated_at=NOW() WHERE id=$4`
	_, err := r.DB.ExecContext(ctx, query, model.StatusSent, deliveryID, sentAt.UTC(), id)
	return err
}

// MarkFailed retires a message whose delivery will never succeed. Failed
// rows are excluded from ListDue, so the poller stops republishing them.
func (r *MessageRepository) MarkFailed(ctx context.Context, id int) error {
	query := `UPDATE messages SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, model.StatusFailed, id)
	return err
}

// ListDue returns scheduled messages whose ETA has arrived. The poller
// publishes a job per row; the job handler is the idempotency gate, so a row
// showing up twice here is harmless.
func (r *MessageRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE status = $1 AND scheduled_at <= $2
          AND (queued_at IS NULL OR queued_at < $3)
        ORDER BY scheduled_at
        LIMIT $4
    `
	rows, err := r.DB.QueryContext(ctx, query, model.StatusScheduled, now.UTC(), now.UTC().Add(-requeueAfter), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// MarkQueued records that a job was published for the row, hiding it from
// the poller for the requeue window
func (r *MessageRepository) MarkQueued(ctx context.Context, id int, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE messages SET queued_at=$1 WHERE id=$2`, at.UTC(), id)
	return err
}

// ListByConversation returns a conversation's messages in send order
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int) ([]model.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// StatsByBusiness returns message counts grouped by status for the dashboard
func (r *MessageRepository) StatsByBusiness(ctx context.Context, businessID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM messages WHERE business_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.StatusPendingReview: 0,
		model.StatusScheduled:     0,
		model.StatusSent:          0,
		model.StatusFailed:        0,
	}
	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		total += count
	}
	stats["total"] = total
	return stats, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
