// internal/model/business.go
package model

import "time"

type Business struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Phone        string     `db:"phone" json:"phone"` // sender identity, E.164
	Timezone     string     `db:"timezone" json:"timezone"`
	VoiceProfile string     `db:"voice_profile" json:"voice_profile"` // owner writing-style notes fed to the LLM
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
