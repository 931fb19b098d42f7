package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

const paymentColumns = `id, enrollment_id, amount_cents, currency, status, coupon_code, processor_session, processor_intent, paid_at, created_at, updated_at`

// PaymentRepository persists payments and their processor correlation ids.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	query := `INSERT INTO payments (` + paymentColumns + `)
        VALUES (:id, :enrollment_id, :amount_cents, :currency, :status, :coupon_code, :processor_session, :processor_intent, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// FindBySession returns the payment correlated with a checkout session.
func (r *PaymentRepository) FindBySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	return r.findOne(ctx, `processor_session = $1`, sessionID)
}

// FindByIntent returns the payment correlated with a payment intent.
func (r *PaymentRepository) FindByIntent(ctx context.Context, intentID string) (*models.Payment, error) {
	return r.findOne(ctx, `processor_intent = $1`, intentID)
}

// FindLatestByEnrollment returns the newest payment of an enrollment.
func (r *PaymentRepository) FindLatestByEnrollment(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE enrollment_id = $1 ORDER BY created_at DESC LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by enrollment: %w", err)
	}
	return &payment, nil
}

// ApplyCoupon stores the discounted amount and the coupon used on a pending payment.
func (r *PaymentRepository) ApplyCoupon(ctx context.Context, id string, amountCents int64, code *string) error {
	const query = `UPDATE payments SET amount_cents = $2, coupon_code = $3, updated_at = $4 WHERE id = $1 AND status = 'pending'`
	if _, err := r.db.ExecContext(ctx, query, id, amountCents, code, time.Now().UTC()); err != nil {
		return fmt.Errorf("apply coupon to payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where + ` LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// AttachSession stores the processor session and intent ids on a payment.
func (r *PaymentRepository) AttachSession(ctx context.Context, id, sessionID string, intentID *string) error {
	const query = `UPDATE payments SET processor_session = $2, processor_intent = COALESCE($3, processor_intent), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, sessionID, intentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("attach payment session: %w", err)
	}
	return nil
}

// UpdateStatus moves a payment to a new status. paid_at is stamped on the
// first transition to paid.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, intentID *string) error {
	now := time.Now().UTC()
	const query = `UPDATE payments SET status = $2,
            processor_intent = COALESCE($3, processor_intent),
            paid_at = CASE WHEN $2 = 'paid' AND paid_at IS NULL THEN $4 ELSE paid_at END,
            updated_at = $4
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), intentID, now)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByParent returns payments for every enrollment of the parent's children.
func (r *PaymentRepository) ListByParent(ctx context.Context, parentID string) ([]models.PaymentDetail, error) {
	const query = `SELECT p.id, p.enrollment_id, p.amount_cents, p.currency, p.status, p.coupon_code, p.processor_session,
            p.processor_intent, p.paid_at, p.created_at, p.updated_at,
            st.first_name AS student_first_name, t.name AS team_name
        FROM payments p
        JOIN enrollments e ON e.id = p.enrollment_id
        JOIN students st ON st.id = e.student_id
        JOIN teams t ON t.id = e.team_id
        WHERE st.parent_id = $1
        ORDER BY p.created_at DESC`
	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, parentID); err != nil {
		return nil, fmt.Errorf("list payments by parent: %w", err)
	}
	return payments, nil
}
