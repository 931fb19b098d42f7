package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeTeamRepo struct {
	teams     map[string]*models.TeamSummary
	listCalls int
	schools   []models.School
	findErr   error
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[string]*models.TeamSummary{
		"team-1": {Team: models.Team{ID: "team-1", Name: "U10 Soccer", Sport: "soccer", Active: true}, SchoolName: "Lincoln"},
	}}
}

func (f *fakeTeamRepo) List(ctx context.Context, filter models.TeamFilter) ([]models.TeamSummary, error) {
	f.listCalls++
	var out []models.TeamSummary
	for _, team := range f.teams {
		if team.Active || filter.IncludeInactive {
			out = append(out, *team)
		}
	}
	return out, nil
}

func (f *fakeTeamRepo) FindByID(ctx context.Context, id string) (*models.TeamSummary, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	team, ok := f.teams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *team
	return &found, nil
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	team.ID = "team-new"
	f.teams[team.ID] = &models.TeamSummary{Team: *team}
	return nil
}

func (f *fakeTeamRepo) UpdateStatus(ctx context.Context, id string, active bool) error {
	team, ok := f.teams[id]
	if !ok {
		return sql.ErrNoRows
	}
	team.Active = active
	return nil
}

func (f *fakeTeamRepo) CreateSchool(ctx context.Context, school *models.School) error {
	school.ID = "school-1"
	f.schools = append(f.schools, *school)
	return nil
}

func (f *fakeTeamRepo) ListSchools(ctx context.Context) ([]models.School, error) {
	return f.schools, nil
}

func newTestTeamService(repo *fakeTeamRepo) *TeamService {
	cache := NewCacheService(newMemoryCache(), NewMetricsService(), time.Minute, nil, true)
	return NewTeamService(repo, cache, nil, nil, time.Minute)
}

func TestTeamListUsesCache(t *testing.T) {
	repo := newFakeTeamRepo()
	svc := newTestTeamService(repo)

	teams, hit, err := svc.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, teams, 1)

	teams, hit, err = svc.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Lincoln", teams[0].SchoolName)
	assert.Equal(t, 1, repo.listCalls)
}

func TestTeamSetStatusInvalidatesCache(t *testing.T) {
	repo := newFakeTeamRepo()
	svc := newTestTeamService(repo)

	_, _, err := svc.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)

	inactive := false
	team, err := svc.SetStatus(context.Background(), "team-1", dto.UpdateTeamStatusRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, team.Active)

	teams, hit, err := svc.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, teams)
}

func TestTeamSetStatusErrors(t *testing.T) {
	svc := newTestTeamService(newFakeTeamRepo())

	_, err := svc.SetStatus(context.Background(), "team-1", dto.UpdateTeamStatusRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	active := true
	_, err = svc.SetStatus(context.Background(), "missing", dto.UpdateTeamStatusRequest{Active: &active})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeamCreateNormalisesSport(t *testing.T) {
	repo := newFakeTeamRepo()
	svc := newTestTeamService(repo)

	team, err := svc.Create(context.Background(), dto.CreateTeamRequest{SchoolID: "school-1", Name: " U8 Flag Football ", Sport: "Football", PriceCents: 8000})
	require.NoError(t, err)
	assert.Equal(t, "football", team.Sport)
	assert.Equal(t, "U8 Flag Football", team.Name)
	assert.True(t, team.Active)
}

func TestTeamGetNotFound(t *testing.T) {
	svc := newTestTeamService(newFakeTeamRepo())
	_, err := svc.Get(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeamGetMalformedIDIsValidationError(t *testing.T) {
	repo := newFakeTeamRepo()
	repo.findErr = fmt.Errorf("find team: %w", &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "soccer"`})
	svc := newTestTeamService(repo)

	_, err := svc.Get(context.Background(), "soccer")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestTeamListWithoutCache(t *testing.T) {
	repo := newFakeTeamRepo()
	svc := NewTeamService(repo, nil, nil, nil, 0)

	_, hit, err := svc.List(context.Background(), models.TeamFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	_, _, _ = svc.List(context.Background(), models.TeamFilter{})
	assert.Equal(t, 2, repo.listCalls)
}
