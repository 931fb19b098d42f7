package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

const couponsCachePattern = "coupons:*"

type couponRepository interface {
	FindActive(ctx context.Context, code string) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
}

// CouponService validates and manages discount codes.
type CouponService struct {
	repo      couponRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
}

// NewCouponService constructs a CouponService. cache may be nil.
func NewCouponService(repo couponRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *CouponService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{repo: repo, cache: cache, validator: validate, logger: logger, ttl: ttl}
}

// Validate reports whether code names an active coupon. Unknown and inactive
// codes are a valid=false answer, not an error.
func (s *CouponService) Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	code := models.NormalizeCouponCode(req.Code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coupon code is required")
	}
	coupon, err := s.Active(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return &dto.ValidateCouponResponse{Valid: false}, nil
	}
	return &dto.ValidateCouponResponse{Valid: true, Code: coupon.Code, Percentage: coupon.Percentage}, nil
}

// Active returns the active coupon for code, or nil when there is none.
func (s *CouponService) Active(ctx context.Context, code string) (*models.Coupon, error) {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return nil, nil
	}
	key := "coupons:" + code
	var cached models.Coupon
	if s.cache.Get(ctx, key, &cached) {
		if !cached.Active {
			return nil, nil
		}
		return &cached, nil
	}

	coupon, err := s.repo.FindActive(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.cache.Set(ctx, key, models.Coupon{Code: code}, s.ttl)
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}
	s.cache.Set(ctx, key, coupon, s.ttl)
	return coupon, nil
}

// List returns every coupon for the admin console.
func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coupons")
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	return coupons, nil
}

// Create adds an active coupon.
func (s *CouponService) Create(ctx context.Context, req dto.CreateCouponRequest) (*models.Coupon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}
	coupon := &models.Coupon{Code: models.NormalizeCouponCode(req.Code), Percentage: req.Percentage, Active: true}
	if coupon.Code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coupon code is required")
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, appErrors.Classify(err, "failed to create coupon")
	}
	s.cache.Invalidate(ctx, couponsCachePattern)
	return coupon, nil
}

// SetActive enables or disables a coupon.
func (s *CouponService) SetActive(ctx context.Context, code string, req dto.UpdateCouponRequest) (*models.Coupon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coupon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}
	coupon.Active = *req.Active
	if err := s.repo.Update(ctx, coupon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coupon not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coupon")
	}
	s.cache.Invalidate(ctx, couponsCachePattern)
	return coupon, nil
}
