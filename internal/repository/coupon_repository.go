package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

// CouponRepository persists discount codes.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository constructs the repository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindActive returns an active coupon by normalised code.
func (r *CouponRepository) FindActive(ctx context.Context, code string) (*models.Coupon, error) {
	const query = `SELECT code, percentage, active, created_at, updated_at FROM coupons WHERE code = $1 AND active = TRUE`
	var coupon models.Coupon
	if err := r.db.GetContext(ctx, &coupon, query, models.NormalizeCouponCode(code)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &coupon, nil
}

// List returns every coupon.
func (r *CouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	const query = `SELECT code, percentage, active, created_at, updated_at FROM coupons ORDER BY code`
	var coupons []models.Coupon
	if err := r.db.SelectContext(ctx, &coupons, query); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// Create inserts a coupon.
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	now := time.Now().UTC()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	const query = `INSERT INTO coupons (code, percentage, active, created_at, updated_at)
        VALUES (:code, :percentage, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, coupon); err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// Update changes the percentage and active flag of a coupon.
func (r *CouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	coupon.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coupons SET percentage = $2, active = $3, updated_at = $4 WHERE code = $1`
	res, err := r.db.ExecContext(ctx, query, coupon.Code, coupon.Percentage, coupon.Active, coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByCode returns a coupon regardless of its active flag.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	const query = `SELECT code, percentage, active, created_at, updated_at FROM coupons WHERE code = $1`
	var coupon models.Coupon
	if err := r.db.GetContext(ctx, &coupon, query, models.NormalizeCouponCode(code)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}
	return &coupon, nil
}
