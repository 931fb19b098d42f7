package models

import "time"

// Enrollment links a Student to a Team. Its Active flag is independent of
// the Team's.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeamID    string    `db:"team_id" json:"team_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student, team and school info.
type EnrollmentDetail struct {
	Enrollment
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	ParentID         string `db:"parent_id" json:"parent_id"`
	TeamName         string `db:"team_name" json:"team_name"`
	TeamActive       bool   `db:"team_active" json:"team_active"`
	PriceCents       int64  `db:"price_cents" json:"price_cents"`
	SchoolName       string `db:"school_name" json:"school_name"`
}

// RosterEntry is one row of a team roster export.
type RosterEntry struct {
	StudentFirstName      string    `db:"student_first_name"`
	StudentLastName       string    `db:"student_last_name"`
	DateOfBirth           time.Time `db:"date_of_birth"`
	Grade                 string    `db:"grade"`
	ParentName            string    `db:"parent_name"`
	ParentEmail           string    `db:"parent_email"`
	ParentPhone           string    `db:"parent_phone"`
	EmergencyContactName  string    `db:"emergency_contact_name"`
	EmergencyContactPhone string    `db:"emergency_contact_phone"`
	PaymentStatus         string    `db:"payment_status"`
}
