package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/storage"
)

const unsubscribePurpose = "unsubscribe"

type newsletterRepository interface {
	Upsert(ctx context.Context, sub *models.NewsletterSubscriber) error
	Delete(ctx context.Context, email string) (bool, error)
}

// NewsletterService manages the marketing list and its signed unsubscribe links.
type NewsletterService struct {
	repo      newsletterRepository
	signer    *storage.TokenSigner
	baseURL   string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsletterService constructs the service. baseURL is the public URL of
// the unsubscribe endpoint.
func NewNewsletterService(repo newsletterRepository, signer *storage.TokenSigner, baseURL string, validate *validator.Validate, logger *zap.Logger) *NewsletterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsletterService{repo: repo, signer: signer, baseURL: baseURL, validator: validate, logger: logger}
}

// Subscribe adds or refreshes an address. Subscribing twice is not an error.
func (s *NewsletterService) Subscribe(ctx context.Context, req dto.SubscribeRequest) (*models.NewsletterSubscriber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription")
	}
	sub := &models.NewsletterSubscriber{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Sport: strings.ToLower(strings.TrimSpace(req.Sport)),
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, appErrors.Classify(err, "failed to subscribe")
	}
	return sub, nil
}

// Unsubscribe verifies a signed token and removes its address.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrUnavailable, "unsubscribe links are not configured")
	}
	email, err := s.signer.Parse(unsubscribePurpose, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, storage.ErrExpiredToken) {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsubscribe link has expired")
		}
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unsubscribe link")
	}
	removed, err := s.repo.Delete(ctx, email)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unsubscribe")
	}
	s.logger.Info("newsletter unsubscribe", zap.String("email", email), zap.Bool("removed", removed))
	return email, nil
}

// UnsubscribeURL returns a signed one-click unsubscribe link, or "" when
// signing is unavailable.
func (s *NewsletterService) UnsubscribeURL(email string) string {
	if s.signer == nil || s.baseURL == "" {
		return ""
	}
	token, _, err := s.signer.Generate(unsubscribePurpose, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Warn("failed to sign unsubscribe link", zap.Error(err))
		return ""
	}
	return s.baseURL + "?token=" + url.QueryEscape(token)
}
