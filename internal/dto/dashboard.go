package dto

import "github.com/noah-isme/youth-sports-api/internal/models"

// ParentDashboardResponse is everything a signed-in parent sees on their dashboard.
type ParentDashboardResponse struct {
	Parent      models.Parent             `json:"parent"`
	Students    []models.Student          `json:"students"`
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Payments    []models.PaymentDetail    `json:"payments"`
	Messages    []models.Message          `json:"messages"`
	Summary     DashboardSummary          `json:"summary"`
}

// DashboardSummary holds headline counters.
type DashboardSummary struct {
	ActiveEnrollments int   `json:"activeEnrollments"`
	CancelledPrograms int   `json:"cancelledPrograms"`
	OutstandingCents  int64 `json:"outstandingCents"`
	PaidCents         int64 `json:"paidCents"`
	UnreadMessages    int   `json:"unreadMessages"`
}
