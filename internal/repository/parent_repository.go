package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

const parentColumns = `id, first_name, last_name, email, phone, created_at, updated_at`

// ParentRepository handles persistence of parents.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// Upsert inserts the parent or, when the email already exists, refreshes the
// contact fields of the existing row. The stored row is written back into parent.
func (r *ParentRepository) Upsert(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.Email = strings.ToLower(strings.TrimSpace(parent.Email))
	parent.CreatedAt = now
	parent.UpdatedAt = now

	const query = `INSERT INTO parents (id, first_name, last_name, email, phone, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
            phone = CASE WHEN EXCLUDED.phone = '' THEN parents.phone ELSE EXCLUDED.phone END, updated_at = EXCLUDED.updated_at
        RETURNING ` + parentColumns
	if err := r.db.GetContext(ctx, parent, query,
		parent.ID, parent.FirstName, parent.LastName, parent.Email, parent.Phone, parent.CreatedAt, parent.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert parent: %w", err)
	}
	return nil
}

// FindByID returns a parent by ID.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	query := `SELECT ` + parentColumns + ` FROM parents WHERE id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent: %w", err)
	}
	return &parent, nil
}

// List returns parents for the admin console.
func (r *ParentRepository) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	base := `FROM parents`
	var args []interface{}
	if filter.Search != "" {
		base += ` WHERE (LOWER(email) LIKE $1 OR LOWER(first_name || ' ' || last_name) LIKE $1)`
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, parentColumns, base, size, (page-1)*size)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) `+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}
