package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/timing"
)

// RoadmapEntry is one parsed, ready-to-persist roadmap item. Timing labels
// are resolved before this point; SaveBatch only writes.
type RoadmapEntry struct {
	Body             string
	TimingLabel      string
	SendAt           time.Time // UTC
	Schedule         timing.Schedule
	Relevance        string
	SuccessIndicator string
	NoResponsePlan   string
}

type RoadmapRepositoryInterface interface {
	SaveBatch(ctx context.Context, customer *model.Customer, business *model.Business, entries []RoadmapEntry) error
	ListByCustomer(ctx context.Context, customerID int) ([]model.RoadmapMessage, error)
	GetByID(ctx context.Context, id int) (*model.RoadmapMessage, error)
	DeleteUnsent(ctx context.Context, customerID int) (int, error)
	ConfirmSchedule(ctx context.Context, id, messageID int, sendAt time.Time) error
	SetStatus(ctx context.Context, id int, status string) error
	MarkSentByMessageID(ctx context.Context, messageID int) error
}

type RoadmapRepository struct {
	DB *sql.DB
}

const roadmapColumns = `id, customer_id, business_id, body, timing_label, send_at, status, relevance, success_indicator, no_response_plan, message_id, created_at`

// SaveBatch persists a parsed roadmap as dual rows inside one transaction:
// for each entry a roadmap_messages row plus its twin messages row, linked
// both ways. Any failure rolls the whole batch back; a partial roadmap is
// never visible.
func (r *RoadmapRepository) SaveBatch(ctx context.Context, customer *model.Customer, business *model.Business, entries []RoadmapEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	conv, err := getOrCreateActiveConversation(ctx, tx, customer.ID, business.ID)
	if err != nil {
		return err
	}

	insertRoadmap := `
        INSERT INTO roadmap_messages
        (customer_id, business_id, body, timing_label, send_at, status, relevance, success_indicator, no_response_plan, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	insertMessage := `
        INSERT INTO messages
        (conversation_id, customer_id, business_id, body, type, status, scheduled_at, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
        RETURNING id
    `
	linkTwin := `UPDATE roadmap_messages SET message_id=$1 WHERE id=$2`

	now := time.Now().UTC()
	for _, e := range entries {
		var roadmapID int
		err = tx.QueryRowContext(ctx, insertRoadmap,
			customer.ID, business.ID, e.Body, e.TimingLabel, e.SendAt.UTC(),
			model.StatusPendingReview, e.Relevance, e.SuccessIndicator, e.NoResponsePlan, now,
		).Scan(&roadmapID)
		if err != nil {
			return err
		}

		schedule := e.Schedule
		meta, err := json.Marshal(model.MessageMetadata{
			Source:           "roadmap",
			RoadmapMessageID: &roadmapID,
			Schedule:         &schedule,
			Relevance:        e.Relevance,
			SuccessIndicator: e.SuccessIndicator,
			NoResponsePlan:   e.NoResponsePlan,
		})
		if err != nil {
			return err
		}

		var messageID int
		err = tx.QueryRowContext(ctx, insertMessage,
			conv.ID, customer.ID, business.ID, e.Body,
			model.MessageTypeScheduled, model.StatusPendingReview, e.SendAt.UTC(), meta, now,
		).Scan(&messageID)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, linkTwin, messageID, roadmapID); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET last_activity_at=$1 WHERE id=$2`, now, conv.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByCustomer returns a customer's roadmap ordered by send time
func (r *RoadmapRepository) ListByCustomer(ctx context.Context, customerID int) ([]model.RoadmapMessage, error) {
	query := `
        SELECT ` + roadmapColumns + `
        FROM roadmap_messages
        WHERE customer_id=$1
        ORDER BY send_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.RoadmapMessage{}
	for rows.Next() {
		var m model.RoadmapMessage
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.BusinessID, &m.Body, &m.TimingLabel, &m.SendAt,
			&m.Status, &m.Relevance, &m.SuccessIndicator, &m.NoResponsePlan, &m.MessageID, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// GetByID fetches one roadmap message, nil when not found
func (r *RoadmapRepository) GetByID(ctx context.Context, id int) (*model.RoadmapMessage, error) {
	query := `SELECT ` + roadmapColumns + ` FROM roadmap_messages WHERE id=$1`
	var m model.RoadmapMessage
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.CustomerID, &m.BusinessID, &m.Body, &m.TimingLabel, &m.SendAt,
			&m.Status, &m.Relevance, &m.SuccessIndicator, &m.NoResponsePlan, &m.MessageID, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// DeleteUnsent removes every roadmap message for the customer that has not
// been sent, together with the twin messages rows. Sent history is preserved
// untouched. Returns the number of roadmap rows removed.
func (r *RoadmapRepository) DeleteUnsent(ctx context.Context, customerID int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Twins first; the roadmap rows hold the link.
	_, err = tx.ExecContext(ctx, `
        DELETE FROM messages
        WHERE id IN (
            SELECT message_id FROM roadmap_messages
            WHERE customer_id=$1 AND status <> $2 AND message_id IS NOT NULL
        )
    `, customerID, model.StatusSent)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM roadmap_messages WHERE customer_id=$1 AND status <> $2`,
		customerID, model.StatusSent)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// ConfirmSchedule flips a reviewed roadmap row and its twin message to
// scheduled in one transaction, stamping the twin's ETA for the dispatcher.
// Either both rows move or neither does; a half-confirmed pair would let the
// twin dispatch while the roadmap still reads pending_review.
func (r *RoadmapRepository) ConfirmSchedule(ctx context.Context, id, messageID int, sendAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE messages SET status=$1, scheduled_at=$2, queued_at=NULL, updated_at=NOW() WHERE id=$3`,
		model.StatusScheduled, sendAt.UTC(), messageID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE roadmap_messages SET status=$1 WHERE id=$2`,
		model.StatusScheduled, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SetStatus updates one roadmap message's lifecycle status
func (r *RoadmapRepository) SetStatus(ctx context.Context, id int, status string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE roadmap_messages SET status=$1 WHERE id=$2`, status, id)
	return err
}

// MarkSentByMessageID mirrors a twin message's send onto its roadmap row
func (r *RoadmapRepository) MarkSentByMessageID(ctx context.Context, messageID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE roadmap_messages SET status=$1 WHERE message_id=$2`,
		model.StatusSent, messageID)
	return err
}

var _ RoadmapRepositoryInterface = (*RoadmapRepository)(nil)
