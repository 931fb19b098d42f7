package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type enrollmentStatusRepository interface {
	FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// EnrollmentService lets admins withdraw and reinstate enrollments.
type EnrollmentService struct {
	repo      enrollmentStatusRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the service. cache may be nil.
func NewEnrollmentService(repo enrollmentStatusRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// SetStatus flips an enrollment's active flag. A withdrawn enrollment on a
// running team makes a newsletter subscriber a winback target. Reinstating
// fails with a conflict when the student is already active on that team.
func (s *EnrollmentService) SetStatus(ctx context.Context, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Active == *req.Active {
		return current, nil
	}
	if err := s.repo.SetActive(ctx, id, *req.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Classify(err, "failed to update enrollment")
	}
	s.cache.Invalidate(ctx, teamsCachePattern)
	s.logger.Info("enrollment status changed",
		zap.String("enrollment_id", id),
		zap.String("team_id", current.TeamID),
		zap.Bool("active", *req.Active),
	)
	return s.find(ctx, id)
}

func (s *EnrollmentService) find(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Classify(err, "failed to load enrollment")
	}
	return detail, nil
}
