package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/textloop/textloop-backend/internal/model"
)

type ScheduledSMSRepositoryInterface interface {
	Create(ctx context.Context, sms *model.ScheduledSMS) error
	GetByID(ctx context.Context, id int) (*model.ScheduledSMS, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledSMS, error)
	MarkQueued(ctx context.Context, id int, at time.Time) error
	MarkSent(ctx context.Context, id int, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int) error
}

// ScheduledSMSRepository backs the ad-hoc send path. These rows are
// independent of conversations and roadmaps.
type ScheduledSMSRepository struct {
	DB *sql.DB
}

const scheduledSMSColumns = `id, customer_id, business_id, body, status, send_at, queued_at, sent_at, created_at, updated_at`

func (r *ScheduledSMSRepository) Create(ctx context.Context, sms *model.ScheduledSMS) error {
	now := time.Now().UTC()
	sms.CreatedAt = now
	sms.UpdatedAt = now
	if sms.Status == "" {
		sms.Status = model.StatusScheduled
	}

	query := `
        INSERT INTO scheduled_sms (customer_id, business_id, body, status, send_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		sms.CustomerID, sms.BusinessID, sms.Body, sms.Status, sms.SendAt, sms.CreatedAt, sms.UpdatedAt,
	).Scan(&sms.ID)
}

// GetByID fetches an ad-hoc SMS, nil when not found
func (r *ScheduledSMSRepository) GetByID(ctx context.Context, id int) (*model.ScheduledSMS, error) {
	query := `SELECT ` + scheduledSMSColumns + ` FROM scheduled_sms WHERE id=$1`
	var sms model.ScheduledSMS
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&sms.ID, &sms.CustomerID, &sms.BusinessID, &sms.Body, &sms.Status, &sms.SendAt, &sms.QueuedAt, &sms.SentAt, &sms.CreatedAt, &sms.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sms, nil
}

// ListDue returns scheduled ad-hoc rows whose send time has arrived. A NULL
// send_at means "send now" and is always due.
func (r *ScheduledSMSRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledSMS, error) {
	query := `
        SELECT ` + scheduledSMSColumns + `
        FROM scheduled_sms
        WHERE status=$1 AND (send_at IS NULL OR send_at <= $2)
          AND (queued_at IS NULL OR queued_at < $3)
        ORDER BY send_at NULLS FIRST
        LIMIT $4
    `
	rows, err := r.DB.QueryContext(ctx, query, model.StatusScheduled, now.UTC(), now.UTC().Add(-requeueAfter), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.ScheduledSMS{}
	for rows.Next() {
		var sms model.ScheduledSMS
		if err := rows.Scan(&sms.ID, &sms.CustomerID, &sms.BusinessID, &sms.Body, &sms.Status, &sms.SendAt, &sms.QueuedAt, &sms.SentAt, &sms.CreatedAt, &sms.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, sms)
	}
	return list, rows.Err()
}

// MarkQueued hides a row from the poller for the requeue window
func (r *ScheduledSMSRepository) MarkQueued(ctx context.Context, id int, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE scheduled_sms SET queued_at=$1 WHERE id=$2`, at.UTC(), id)
	return err
}

func (r *ScheduledSMSRepository) MarkSent(ctx context.Context, id int, sentAt time.Time) error {
	query := `UPDATE scheduled_sms SET status=$1, sent_at=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, model.StatusSent, sentAt.UTC(), id)
	return err
}

// MarkFailed retires a row the worker gave up on; ListDue skips it from then on
func (r *ScheduledSMSRepository) MarkFailed(ctx context.Context, id int) error {
	query := `UPDATE scheduled_sms SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, model.StatusFailed, id)
	return err
}

var _ ScheduledSMSRepositoryInterface = (*ScheduledSMSRepository)(nil)
