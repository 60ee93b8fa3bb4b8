// internal/model/conversation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Conversation groups messages for one (customer, business) pair. At most one
// active conversation exists per pair at any time.
type Conversation struct {
	ID             int       `db:"id" json:"id"`
	PublicID       uuid.UUID `db:"public_id" json:"public_id"`
	CustomerID     int       `db:"customer_id" json:"customer_id"`
	BusinessID     int       `db:"business_id" json:"business_id"`
	Status         string    `db:"status" json:"status"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
}
