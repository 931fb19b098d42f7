package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeCouponRepo struct {
	coupons     map[string]*models.Coupon
	activeCalls int
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: map[string]*models.Coupon{
		"SPRING20": {Code: "SPRING20", Percentage: 20, Active: true},
		"OLD50":    {Code: "OLD50", Percentage: 50, Active: false},
	}}
}

func (f *fakeCouponRepo) FindActive(ctx context.Context, code string) (*models.Coupon, error) {
	f.activeCalls++
	c, ok := f.coupons[models.NormalizeCouponCode(code)]
	if !ok || !c.Active {
		return nil, sql.ErrNoRows
	}
	found := *c
	return &found, nil
}

func (f *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[models.NormalizeCouponCode(code)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *c
	return &found, nil
}

func (f *fakeCouponRepo) List(ctx context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, c := range f.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	stored := *coupon
	f.coupons[coupon.Code] = &stored
	return nil
}

func (f *fakeCouponRepo) Update(ctx context.Context, coupon *models.Coupon) error {
	if _, ok := f.coupons[coupon.Code]; !ok {
		return sql.ErrNoRows
	}
	stored := *coupon
	f.coupons[coupon.Code] = &stored
	return nil
}

func newTestCouponService(repo *fakeCouponRepo) *CouponService {
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	return NewCouponService(repo, cache, nil, nil, time.Minute)
}

func TestCouponValidateIsCaseInsensitive(t *testing.T) {
	svc := newTestCouponService(newFakeCouponRepo())

	for _, code := range []string{"SPRING20", "spring20", "  Spring20 "} {
		resp, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{Code: code})
		require.NoError(t, err)
		assert.True(t, resp.Valid, code)
		assert.Equal(t, "SPRING20", resp.Code)
		assert.Equal(t, 20, resp.Percentage)
	}
}

func TestCouponValidateInactiveAndUnknown(t *testing.T) {
	svc := newTestCouponService(newFakeCouponRepo())

	for _, code := range []string{"OLD50", "NOPE"} {
		resp, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{Code: code})
		require.NoError(t, err)
		assert.False(t, resp.Valid, code)
	}
}

func TestCouponValidateEmptyCode(t *testing.T) {
	svc := newTestCouponService(newFakeCouponRepo())
	_, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{Code: "   "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCouponActiveCachesLookups(t *testing.T) {
	repo := newFakeCouponRepo()
	svc := newTestCouponService(repo)

	for i := 0; i < 3; i++ {
		_, err := svc.Active(context.Background(), "spring20")
		require.NoError(t, err)
		_, err = svc.Active(context.Background(), "NOPE")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.activeCalls)
}

func TestCouponDeactivateInvalidatesCache(t *testing.T) {
	repo := newFakeCouponRepo()
	svc := newTestCouponService(repo)

	coupon, err := svc.Active(context.Background(), "SPRING20")
	require.NoError(t, err)
	require.NotNil(t, coupon)

	off := false
	_, err = svc.SetActive(context.Background(), "spring20", dto.UpdateCouponRequest{Active: &off})
	require.NoError(t, err)

	resp, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{Code: "SPRING20"})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
}

func TestCouponCreate(t *testing.T) {
	repo := newFakeCouponRepo()
	svc := newTestCouponService(repo)

	coupon, err := svc.Create(context.Background(), dto.CreateCouponRequest{Code: "fall10", Percentage: 10})
	require.NoError(t, err)
	assert.Equal(t, "FALL10", coupon.Code)
	assert.True(t, coupon.Active)

	_, err = svc.Create(context.Background(), dto.CreateCouponRequest{Code: "BAD", Percentage: 150})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCouponSetActiveUnknown(t *testing.T) {
	svc := newTestCouponService(newFakeCouponRepo())
	on := true
	_, err := svc.SetActive(context.Background(), "missing", dto.UpdateCouponRequest{Active: &on})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCouponApply(t *testing.T) {
	c := models.Coupon{Code: "HALF", Percentage: 50, Active: true}
	assert.Equal(t, int64(6000), c.Apply(12000))
	c.Percentage = 100
	assert.Equal(t, int64(0), c.Apply(12000))
	c.Active = false
	assert.Equal(t, int64(12000), c.Apply(12000))
}
