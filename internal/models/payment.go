package models

import "time"

// PaymentStatus tracks the lifecycle of a payment.
type PaymentStatus string

// Possible payment statuses.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is the amount owed for an enrollment and its processor correlation.
type Payment struct {
	ID               string        `db:"id" json:"id"`
	EnrollmentID     string        `db:"enrollment_id" json:"enrollment_id"`
	AmountCents      int64         `db:"amount_cents" json:"amount_cents"`
	Currency         string        `db:"currency" json:"currency"`
	Status           PaymentStatus `db:"status" json:"status"`
	CouponCode       *string       `db:"coupon_code" json:"coupon_code,omitempty"`
	ProcessorSession *string       `db:"processor_session" json:"processor_session,omitempty"`
	ProcessorIntent  *string       `db:"processor_intent" json:"-"`
	PaidAt           *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentDetail adds display context for dashboards.
type PaymentDetail struct {
	Payment
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	TeamName         string `db:"team_name" json:"team_name"`
}
