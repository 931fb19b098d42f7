package models

import "time"

// CampaignKind names a recipient predicate plus its email template.
type CampaignKind string

const (
	// CampaignCancellation targets active enrollments on inactive teams.
	CampaignCancellation CampaignKind = "cancellation"
	// CampaignWinback targets newsletter subscribers whose enrollment lapsed
	// on a team that is still running.
	CampaignWinback CampaignKind = "winback"
)

// Valid reports whether the kind is known.
func (k CampaignKind) Valid() bool {
	switch k {
	case CampaignCancellation, CampaignWinback:
		return true
	}
	return false
}

// CampaignRow is one joined Student-Enrollment-Team-Parent row matching a predicate.
type CampaignRow struct {
	ParentID         string `db:"parent_id"`
	ParentFirstName  string `db:"parent_first_name"`
	ParentLastName   string `db:"parent_last_name"`
	ParentEmail      string `db:"parent_email"`
	StudentID        string `db:"student_id"`
	StudentFirstName string `db:"student_first_name"`
	StudentLastName  string `db:"student_last_name"`
	EnrollmentID     string `db:"enrollment_id"`
	TeamID           string `db:"team_id"`
	TeamName         string `db:"team_name"`
	SchoolName       string `db:"school_name"`
}

// CampaignStudent is a child listed in a recipient's message.
type CampaignStudent struct {
	StudentID  string `json:"student_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
	SchoolName string `json:"school_name"`
}

// CampaignRecipient is one unique parent email with all matching children.
type CampaignRecipient struct {
	Email     string            `json:"email"`
	ParentID  string            `json:"parent_id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Students  []CampaignStudent `json:"students"`
}

// DeliveryStatus records the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// CampaignRun is the persisted record of one send invocation.
type CampaignRun struct {
	ID         string       `db:"id" json:"id"`
	Campaign   CampaignKind `db:"campaign" json:"campaign"`
	RunKey     *string      `db:"run_key" json:"run_key,omitempty"`
	TestMode   bool         `db:"test_mode" json:"test_mode"`
	Attempted  int          `db:"attempted" json:"attempted"`
	Sent       int          `db:"sent" json:"sent"`
	Failed     int          `db:"failed" json:"failed"`
	Skipped    int          `db:"skipped" json:"skipped"`
	StartedAt  time.Time    `db:"started_at" json:"started_at"`
	FinishedAt *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// CampaignDelivery is the per-recipient outcome within a run.
type CampaignDelivery struct {
	ID     string         `db:"id" json:"id"`
	RunID  string         `db:"run_id" json:"run_id"`
	Email  string         `db:"email" json:"email"`
	Status DeliveryStatus `db:"status" json:"status"`
	Error  string         `db:"error" json:"error,omitempty"`
	SentAt time.Time      `db:"sent_at" json:"sent_at"`
}
