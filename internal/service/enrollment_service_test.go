package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeEnrollmentStatusRepo struct {
	details  map[string]*models.EnrollmentDetail
	setErr   error
	setCalls int
}

func (f *fakeEnrollmentStatusRepo) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, ok := f.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *detail
	return &found, nil
}

func (f *fakeEnrollmentStatusRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.details[id].Active = active
	return nil
}

func newEnrollmentFixture() (*EnrollmentService, *fakeEnrollmentStatusRepo, *memoryCache) {
	repo := &fakeEnrollmentStatusRepo{details: map[string]*models.EnrollmentDetail{
		"enr-1": {Enrollment: models.Enrollment{ID: "enr-1", TeamID: "team-1", Active: true}, TeamName: "U10 Soccer", TeamActive: true},
	}}
	store := newMemoryCache()
	cache := NewCacheService(store, NewMetricsService(), time.Minute, nil, true)
	return NewEnrollmentService(repo, cache, nil, nil), repo, store
}

func TestEnrollmentWithdrawInvalidatesTeamListing(t *testing.T) {
	svc, repo, store := newEnrollmentFixture()
	require.NoError(t, store.Set(context.Background(), "teams:list:::false", []models.TeamSummary{}, time.Minute))

	inactive := false
	detail, err := svc.SetStatus(context.Background(), "enr-1", dto.UpdateEnrollmentStatusRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, detail.Active)
	assert.Equal(t, 1, repo.setCalls)
	assert.Empty(t, store.entries)
}

func TestEnrollmentSetStatusUnchangedSkipsWrite(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()

	active := true
	detail, err := svc.SetStatus(context.Background(), "enr-1", dto.UpdateEnrollmentStatusRequest{Active: &active})
	require.NoError(t, err)
	assert.True(t, detail.Active)
	assert.Zero(t, repo.setCalls)
}

func TestEnrollmentSetStatusErrors(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()

	_, err := svc.SetStatus(context.Background(), "enr-1", dto.UpdateEnrollmentStatusRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	inactive := false
	_, err = svc.SetStatus(context.Background(), "enr-missing", dto.UpdateEnrollmentStatusRequest{Active: &inactive})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	repo.details["enr-1"].Active = false
	repo.setErr = errors.New(`pq: duplicate key value violates unique constraint "uq_enrollments_active"`)
	active := true
	_, err = svc.SetStatus(context.Background(), "enr-1", dto.UpdateEnrollmentStatusRequest{Active: &active})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
