package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

// NewsletterRepository persists marketing list subscriptions.
type NewsletterRepository struct {
	db *sqlx.DB
}

// NewNewsletterRepository constructs the repository.
func NewNewsletterRepository(db *sqlx.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Upsert subscribes an email, refreshing the sport preference when it is already listed.
func (r *NewsletterRepository) Upsert(ctx context.Context, sub *models.NewsletterSubscriber) error {
	now := time.Now().UTC()
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.CreatedAt = now
	sub.UpdatedAt = now
	const query = `INSERT INTO newsletter_subscribers (email, sport, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE SET sport = EXCLUDED.sport, updated_at = EXCLUDED.updated_at
        RETURNING email, sport, created_at, updated_at`
	if err := r.db.GetContext(ctx, sub, query, sub.Email, sub.Sport, sub.CreatedAt, sub.UpdatedAt); err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

// Delete removes an email from the list. Missing emails are not an error.
func (r *NewsletterRepository) Delete(ctx context.Context, email string) (bool, error) {
	const query = `DELETE FROM newsletter_subscribers WHERE email = $1`
	res, err := r.db.ExecContext(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, fmt.Errorf("delete subscriber: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return rows > 0, nil
}
