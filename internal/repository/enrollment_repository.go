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

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.team_id, e.active, e.created_at, e.updated_at,
        st.first_name AS student_first_name, st.last_name AS student_last_name, st.parent_id,
        t.name AS team_name, t.active AS team_active, t.price_cents, s.name AS school_name
    FROM enrollments e
    JOIN students st ON st.id = e.student_id
    JOIN teams t ON t.id = e.team_id
    JOIN schools s ON s.id = t.school_id`

// EnrollmentRepository persists student-team enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll returns the active enrollment for the pair, creating it when absent.
// The bool reports whether a new row was inserted.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, teamID string) (*models.Enrollment, bool, error) {
	const lookup = `SELECT id, student_id, team_id, active, created_at, updated_at FROM enrollments WHERE student_id = $1 AND team_id = $2 AND active LIMIT 1`
	var existing models.Enrollment
	err := r.db.GetContext(ctx, &existing, lookup, studentID, teamID)
	if err == nil {
		return &existing, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("lookup enrollment: %w", err)
	}

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: studentID,
		TeamID:    teamID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const insert = `INSERT INTO enrollments (id, student_id, team_id, active, created_at, updated_at)
        VALUES (:id, :student_id, :team_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, enrollment); err != nil {
		return nil, false, fmt.Errorf("create enrollment: %w", err)
	}
	return enrollment, true, nil
}

// FindDetail returns an enrollment with student, team and school context.
func (r *EnrollmentRepository) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &detail, nil
}

// ListByParent returns every enrollment of the parent's children.
func (r *EnrollmentRepository) ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE st.parent_id = $1 ORDER BY e.active DESC, e.created_at DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, parentID); err != nil {
		return nil, fmt.Errorf("list enrollments by parent: %w", err)
	}
	return details, nil
}

// SetActive flips an enrollment's active flag.
func (r *EnrollmentRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE enrollments SET active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
