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

const studentColumns = `id, parent_id, first_name, last_name, date_of_birth, grade, emergency_contact_name, emergency_contact_phone, created_at, updated_at`

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindOrCreate returns the parent's existing student with the same name and
// date of birth, or inserts a new one. Re-submitted registrations therefore
// do not duplicate children.
func (r *StudentRepository) FindOrCreate(ctx context.Context, student *models.Student) error {
	const lookup = `SELECT ` + studentColumns + ` FROM students
        WHERE parent_id = $1 AND LOWER(first_name) = LOWER($2) AND LOWER(last_name) = LOWER($3) AND date_of_birth = $4 LIMIT 1`
	var existing models.Student
	err := r.db.GetContext(ctx, &existing, lookup, student.ParentID, student.FirstName, student.LastName, student.DateOfBirth)
	switch {
	case err == nil:
		*student = existing
		return nil
	case err != sql.ErrNoRows:
		return fmt.Errorf("lookup student: %w", err)
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const insert = `INSERT INTO students (id, parent_id, first_name, last_name, date_of_birth, grade, emergency_contact_name, emergency_contact_phone, created_at, updated_at)
        VALUES (:id, :parent_id, :first_name, :last_name, :date_of_birth, :grade, :emergency_contact_name, :emergency_contact_phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByParent returns all students of a parent.
func (r *StudentRepository) ListByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE parent_id = $1 ORDER BY first_name, last_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("list students by parent: %w", err)
	}
	return students, nil
}
