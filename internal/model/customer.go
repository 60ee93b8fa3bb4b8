// internal/model/customer.go
package model

import "time"

type Customer struct {
	ID         int        `db:"id" json:"id"`
	BusinessID int        `db:"business_id" json:"business_id"`
	Phone      string     `db:"phone" json:"phone"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Timezone   string     `db:"timezone" json:"timezone"` // empty means "use the business zone"
	Subscribed bool       `db:"subscribed" json:"subscribed"`
	OptedOutAt *time.Time `db:"opted_out_at" json:"opted_out_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
