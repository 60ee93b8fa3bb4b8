// internal/model/message.go
package model

import (
	"time"

	"github.com/textloop/textloop-backend/internal/timing"
)

// Message lifecycle. The worker only ever performs scheduled -> sent or
// scheduled -> failed; every other transition belongs to the review flow.
// Failed is a dead end: the poller never picks the row up again.
const (
	StatusPendingReview = "pending_review"
	StatusScheduled     = "scheduled"
	StatusSent          = "sent"
	StatusFailed        = "failed"
)

// Message types.
const (
	MessageTypeScheduled = "scheduled"
	MessageTypeReply     = "reply"
	MessageTypeAdhoc     = "adhoc"
)

// MessageMetadata is the tagged structure persisted in messages.metadata.
// Every key is explicit; unknown keys are a decode error, not silent drift.
type MessageMetadata struct {
	Source           string           `json:"source,omitempty"` // "roadmap", "webhook", ...
	RoadmapMessageID *int             `json:"roadmap_message_id,omitempty"`
	Schedule         *timing.Schedule `json:"schedule,omitempty"`
	Relevance        string           `json:"relevance,omitempty"`
	SuccessIndicator string           `json:"success_indicator,omitempty"`
	NoResponsePlan   string           `json:"no_response_plan,omitempty"`
}

// Message is one generic outbound unit, grouped under a Conversation.
type Message struct {
	ID             int             `db:"id" json:"id"`
	ConversationID int             `db:"conversation_id" json:"conversation_id"`
	CustomerID     int             `db:"customer_id" json:"customer_id"`
	BusinessID     int             `db:"business_id" json:"business_id"`
	Body           string          `db:"body" json:"body"`
	Type           string          `db:"type" json:"type"`
	Status         string          `db:"status" json:"status"`
	ScheduledAt    *time.Time      `db:"scheduled_at" json:"scheduled_at,omitempty"` // UTC
	QueuedAt       *time.Time      `db:"queued_at" json:"queued_at,omitempty"`       // last time the poller published a job
	SentAt         *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	DeliveryID     string          `db:"delivery_id" json:"delivery_id,omitempty"` // provider message SID
	Metadata       MessageMetadata `db:"metadata" json:"metadata"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
