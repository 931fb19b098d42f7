package models

import "time"

// NewsletterSubscriber is a marketing list entry keyed by email.
type NewsletterSubscriber struct {
	Email     string    `db:"email" json:"email"`
	Sport     string    `db:"sport" json:"sport"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
