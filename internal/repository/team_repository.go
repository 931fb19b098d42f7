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

const teamSummarySelect = `SELECT t.id, t.school_id, t.name, t.sport, t.season, t.price_cents, t.capacity, t.active, t.created_at, t.updated_at,
        s.name AS school_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.team_id = t.id AND e.active) AS enrollment_count
    FROM teams t
    JOIN schools s ON s.id = t.school_id`

// TeamRepository manages teams and their host schools.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository constructs the repository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns teams with school names and active enrollment counts.
func (r *TeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.TeamSummary, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if !filter.IncludeInactive {
		conditions = append(conditions, "t.active = TRUE")
	}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conditions = append(conditions, fmt.Sprintf("t.school_id = $%d", len(args)))
	}
	if filter.Sport != "" {
		args = append(args, strings.ToLower(filter.Sport))
		conditions = append(conditions, fmt.Sprintf("LOWER(t.sport) = $%d", len(args)))
	}

	query := teamSummarySelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.name, t.name"

	var teams []models.TeamSummary
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// FindByID returns a single team summary.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.TeamSummary, error) {
	query := teamSummarySelect + " WHERE t.id = $1"
	var team models.TeamSummary
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find team: %w", err)
	}
	return &team, nil
}

// Create inserts a team.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now
	const query = `INSERT INTO teams (id, school_id, name, sport, season, price_cents, capacity, active, created_at, updated_at)
        VALUES (:id, :school_id, :name, :sport, :season, :price_cents, :capacity, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// UpdateStatus toggles whether the team accepts enrollment.
func (r *TeamRepository) UpdateStatus(ctx context.Context, id string, active bool) error {
	const query = `UPDATE teams SET active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update team status: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateSchool inserts a school.
func (r *TeamRepository) CreateSchool(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	school.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO schools (id, name, city, created_at) VALUES (:id, :name, :city, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// ListSchools returns every school ordered by name.
func (r *TeamRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	const query = `SELECT id, name, city, created_at FROM schools ORDER BY name`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// Roster returns the active enrollments of a team with parent contact details
// and the latest payment status.
func (r *TeamRepository) Roster(ctx context.Context, teamID string) ([]models.RosterEntry, error) {
	const query = `SELECT st.first_name AS student_first_name, st.last_name AS student_last_name, st.date_of_birth, st.grade,
            p.first_name || ' ' || p.last_name AS parent_name, p.email AS parent_email, p.phone AS parent_phone,
            st.emergency_contact_name, st.emergency_contact_phone,
            COALESCE((SELECT pay.status FROM payments pay WHERE pay.enrollment_id = e.id ORDER BY pay.created_at DESC LIMIT 1), 'none') AS payment_status
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN parents p ON p.id = st.parent_id
        WHERE e.team_id = $1 AND e.active
        ORDER BY st.last_name, st.first_name`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, teamID); err != nil {
		return nil, fmt.Errorf("team roster: %w", err)
	}
	return roster, nil
}
