// internal/model/scheduled_sms.go
package model

import "time"

// ScheduledSMS is the lightweight record behind the ad-hoc send path. It is
// independent of the Conversation/Message/RoadmapMessage trio: one row per
// one-off or batch send, nothing else attached.
type ScheduledSMS struct {
	ID         int        `db:"id" json:"id"`
	CustomerID int        `db:"customer_id" json:"customer_id"`
	BusinessID int        `db:"business_id" json:"business_id"`
	Body       string     `db:"body" json:"body"`
	Status     string     `db:"status" json:"status"`
	SendAt     *time.Time `db:"send_at" json:"send_at,omitempty"` // nil means "send now"
	QueuedAt   *time.Time `db:"queued_at" json:"queued_at,omitempty"`
	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
