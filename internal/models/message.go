package models

import "time"

// Message is either a contact form submission or a note addressed to a parent.
type Message struct {
	ID        string    `db:"id" json:"id"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
