package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

const campaignRowSelect = `SELECT p.id AS parent_id, p.first_name AS parent_first_name, p.last_name AS parent_last_name,
        LOWER(p.email) AS parent_email,
        st.id AS student_id, st.first_name AS student_first_name, st.last_name AS student_last_name,
        e.id AS enrollment_id, t.id AS team_id, t.name AS team_name, s.name AS school_name
    FROM enrollments e
    JOIN students st ON st.id = e.student_id
    JOIN parents p ON p.id = st.parent_id
    JOIN teams t ON t.id = e.team_id
    JOIN schools s ON s.id = t.school_id`

// campaignPredicates maps each campaign to the WHERE clause selecting its rows.
var campaignPredicates = map[models.CampaignKind]string{
	models.CampaignCancellation: ` WHERE e.active = TRUE AND t.active = FALSE`,
	models.CampaignWinback: ` JOIN newsletter_subscribers ns ON ns.email = LOWER(p.email)
    WHERE e.active = FALSE AND t.active = TRUE`,
}

// CampaignRepository runs campaign targeting queries and records send runs.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Targets returns every joined row matching the campaign predicate in one query.
func (r *CampaignRepository) Targets(ctx context.Context, kind models.CampaignKind) ([]models.CampaignRow, error) {
	predicate, ok := campaignPredicates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown campaign %q", kind)
	}
	query := campaignRowSelect + predicate + ` ORDER BY parent_email, st.last_name, st.first_name`
	var rows []models.CampaignRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("campaign targets %s: %w", kind, err)
	}
	return rows, nil
}

// CreateRun inserts a run record before sending begins.
func (r *CampaignRepository) CreateRun(ctx context.Context, run *models.CampaignRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	const query = `INSERT INTO campaign_runs (id, campaign, run_key, test_mode, attempted, sent, failed, skipped, started_at)
        VALUES (:id, :campaign, :run_key, :test_mode, :attempted, :sent, :failed, :skipped, :started_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create campaign run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (r *CampaignRepository) FinishRun(ctx context.Context, run *models.CampaignRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	const query = `UPDATE campaign_runs SET attempted = :attempted, sent = :sent, failed = :failed, skipped = :skipped, finished_at = :finished_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("finish campaign run: %w", err)
	}
	return nil
}

// RecordDelivery stores the outcome for one recipient.
func (r *CampaignRepository) RecordDelivery(ctx context.Context, delivery *models.CampaignDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.NewString()
	}
	if delivery.SentAt.IsZero() {
		delivery.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO campaign_deliveries (id, run_id, email, status, error, sent_at)
        VALUES (:id, :run_id, :email, :status, :error, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, delivery); err != nil {
		return fmt.Errorf("record campaign delivery: %w", err)
	}
	return nil
}

// SentEmails returns the lower-cased addresses already delivered under a run key.
func (r *CampaignRepository) SentEmails(ctx context.Context, kind models.CampaignKind, runKey string) (map[string]struct{}, error) {
	const query = `SELECT DISTINCT d.email FROM campaign_deliveries d
        JOIN campaign_runs cr ON cr.id = d.run_id
        WHERE cr.campaign = $1 AND cr.run_key = $2 AND cr.test_mode = FALSE AND d.status = 'sent'`
	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, string(kind), runKey); err != nil {
		return nil, fmt.Errorf("campaign sent emails: %w", err)
	}
	sent := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		sent[strings.ToLower(email)] = struct{}{}
	}
	return sent, nil
}

// ListRuns returns the most recent runs, optionally for one campaign.
func (r *CampaignRepository) ListRuns(ctx context.Context, kind models.CampaignKind, limit int) ([]models.CampaignRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT id, campaign, run_key, test_mode, attempted, sent, failed, skipped, started_at, finished_at FROM campaign_runs`
	var args []interface{}
	if kind != "" {
		query += ` WHERE campaign = $1`
		args = append(args, string(kind))
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT %d`, limit)
	var runs []models.CampaignRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list campaign runs: %w", err)
	}
	return runs, nil
}
