package models

import "time"

// School hosts one or more teams.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	City      string    `db:"city" json:"city"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Team is a program students enroll in. Active gates new enrollment; an
// inactive team with active enrollments is a cancelled program.
type Team struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	Name       string    `db:"name" json:"name"`
	Sport      string    `db:"sport" json:"sport"`
	Season     string    `db:"season" json:"season"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TeamSummary enriches Team with school name and active enrollment count.
type TeamSummary struct {
	Team
	SchoolName      string `db:"school_name" json:"school_name"`
	EnrollmentCount int    `db:"enrollment_count" json:"enrollment_count"`
}

// SpotsLeft returns remaining capacity; -1 means unlimited.
func (t TeamSummary) SpotsLeft() int {
	if t.Capacity <= 0 {
		return -1
	}
	left := t.Capacity - t.EnrollmentCount
	if left < 0 {
		return 0
	}
	return left
}

// TeamFilter narrows team listings.
type TeamFilter struct {
	SchoolID        string
	Sport           string
	IncludeInactive bool
}
