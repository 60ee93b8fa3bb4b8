// internal/model/roadmap_message.go
package model

import "time"

// RoadmapMessage is one planned SMS in a customer's engagement roadmap. Each
// row has exactly one twin Message carrying the same body and send time; the
// link is stored on both sides.
type RoadmapMessage struct {
	ID               int       `db:"id" json:"id"`
	CustomerID       int       `db:"customer_id" json:"customer_id"`
	BusinessID       int       `db:"business_id" json:"business_id"`
	Body             string    `db:"body" json:"body"`
	TimingLabel      string    `db:"timing_label" json:"timing_label"` // e.g. "Day 7, 10:00 AM"
	SendAt           time.Time `db:"send_at" json:"send_at"`           // resolved UTC instant
	Status           string    `db:"status" json:"status"`
	Relevance        string    `db:"relevance" json:"relevance,omitempty"`
	SuccessIndicator string    `db:"success_indicator" json:"success_indicator,omitempty"`
	NoResponsePlan   string    `db:"no_response_plan" json:"no_response_plan,omitempty"`
	MessageID        *int      `db:"message_id" json:"message_id,omitempty"` // twin Message back-reference
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
