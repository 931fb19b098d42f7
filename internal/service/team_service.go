package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

const teamsCachePattern = "teams:*"

type teamRepository interface {
	List(ctx context.Context, filter models.TeamFilter) ([]models.TeamSummary, error)
	FindByID(ctx context.Context, id string) (*models.TeamSummary, error)
	Create(ctx context.Context, team *models.Team) error
	UpdateStatus(ctx context.Context, id string, active bool) error
	CreateSchool(ctx context.Context, school *models.School) error
	ListSchools(ctx context.Context) ([]models.School, error)
}

// TeamService serves the marketing catalogue and the admin team controls.
type TeamService struct {
	repo      teamRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
}

// NewTeamService constructs a TeamService. cache may be nil.
func NewTeamService(repo teamRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *TeamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{repo: repo, cache: cache, validator: validate, logger: logger, ttl: ttl}
}

// List returns teams with school names and enrollment counts. The bool
// reports whether the listing came from cache.
func (s *TeamService) List(ctx context.Context, filter models.TeamFilter) ([]models.TeamSummary, bool, error) {
	filter.Sport = strings.ToLower(strings.TrimSpace(filter.Sport))
	key := fmt.Sprintf("teams:list:%s:%s:%t", filter.SchoolID, filter.Sport, filter.IncludeInactive)

	var cached []models.TeamSummary
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	teams, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	if teams == nil {
		teams = []models.TeamSummary{}
	}
	s.cache.Set(ctx, key, teams, s.ttl)
	return teams, false, nil
}

// Get returns one team.
func (s *TeamService) Get(ctx context.Context, id string) (*models.TeamSummary, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, appErrors.Classify(err, "failed to load team")
	}
	return team, nil
}

// Create adds a team. New teams start active.
func (s *TeamService) Create(ctx context.Context, req dto.CreateTeamRequest) (*models.Team, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team payload")
	}
	team := &models.Team{
		SchoolID:   req.SchoolID,
		Name:       strings.TrimSpace(req.Name),
		Sport:      strings.ToLower(strings.TrimSpace(req.Sport)),
		Season:     strings.TrimSpace(req.Season),
		PriceCents: req.PriceCents,
		Capacity:   req.Capacity,
		Active:     true,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, appErrors.Classify(err, "failed to create team")
	}
	s.cache.Invalidate(ctx, teamsCachePattern)
	return team, nil
}

// SetStatus toggles a team. Deactivating a team with enrolled students makes
// it a cancellation campaign target.
func (s *TeamService) SetStatus(ctx context.Context, id string, req dto.UpdateTeamStatusRequest) (*models.TeamSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if err := s.repo.UpdateStatus(ctx, id, *req.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
	}
	s.cache.Invalidate(ctx, teamsCachePattern)
	s.logger.Info("team status changed", zap.String("team_id", id), zap.Bool("active", *req.Active))
	return s.Get(ctx, id)
}

// CreateSchool adds a school.
func (s *TeamService) CreateSchool(ctx context.Context, req dto.CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school := &models.School{Name: strings.TrimSpace(req.Name), City: strings.TrimSpace(req.City)}
	if err := s.repo.CreateSchool(ctx, school); err != nil {
		return nil, appErrors.Classify(err, "failed to create school")
	}
	return school, nil
}

// ListSchools returns all schools.
func (s *TeamService) ListSchools(ctx context.Context) ([]models.School, error) {
	schools, err := s.repo.ListSchools(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	if schools == nil {
		schools = []models.School{}
	}
	return schools, nil
}
