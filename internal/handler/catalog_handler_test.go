package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	"github.com/noah-isme/youth-sports-api/internal/service"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeTeamService struct {
	filter    models.TeamFilter
	hit       bool
	statusReq dto.UpdateTeamStatusRequest
}

func (f *fakeTeamService) List(_ context.Context, filter models.TeamFilter) ([]models.TeamSummary, bool, error) {
	f.filter = filter
	return []models.TeamSummary{{Team: models.Team{ID: "team-1", Name: "U10 Soccer"}, SchoolName: "Lincoln"}}, f.hit, nil
}

func (f *fakeTeamService) Get(_ context.Context, id string) (*models.TeamSummary, error) {
	if id != "team-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
	}
	return &models.TeamSummary{Team: models.Team{ID: id}}, nil
}

func (f *fakeTeamService) Create(_ context.Context, req dto.CreateTeamRequest) (*models.Team, error) {
	return &models.Team{ID: "team-2", Name: req.Name, Active: true}, nil
}

func (f *fakeTeamService) SetStatus(_ context.Context, id string, req dto.UpdateTeamStatusRequest) (*models.TeamSummary, error) {
	f.statusReq = req
	return &models.TeamSummary{Team: models.Team{ID: id, Active: *req.Active}}, nil
}

func (f *fakeTeamService) CreateSchool(_ context.Context, req dto.CreateSchoolRequest) (*models.School, error) {
	return &models.School{ID: "school-1", Name: req.Name}, nil
}

func (f *fakeTeamService) ListSchools(context.Context) ([]models.School, error) {
	return []models.School{{ID: "school-1"}}, nil
}

type fakeExporter struct{ format service.ExportFormat }

func (f *fakeExporter) Roster(_ context.Context, teamID string, format service.ExportFormat) (*service.ExportFile, error) {
	f.format = format
	if format != service.ExportFormatCSV && format != service.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	return &service.ExportFile{Filename: "roster_u10_soccer_20240301.csv", ContentType: "text/csv", Data: []byte("Student,Team\n")}, nil
}

func TestTeamHandlerListReportsCacheHit(t *testing.T) {
	svc := &fakeTeamService{hit: true}
	h := NewTeamHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/teams?sport=soccer&includeInactive=true", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "soccer", svc.filter.Sport)
	assert.False(t, svc.filter.IncludeInactive)
}

func TestTeamHandlerListAdminMayIncludeInactive(t *testing.T) {
	svc := &fakeTeamService{}
	h := NewTeamHandler(svc, nil)
	c, _ := newTestContext(http.MethodGet, "/teams?includeInactive=true", nil)
	asAdmin(c)

	h.List(c)

	assert.True(t, svc.filter.IncludeInactive)
}

func TestTeamHandlerGetNotFound(t *testing.T) {
	h := NewTeamHandler(&fakeTeamService{}, nil)
	c, rec := newTestContext(http.MethodGet, "/teams/missing", nil)
	c.AddParam("id", "missing")

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTeamHandlerSetStatus(t *testing.T) {
	svc := &fakeTeamService{}
	h := NewTeamHandler(svc, nil)
	c, rec := newTestContext(http.MethodPatch, "/admin/teams/team-1/status", strings.NewReader(`{"active":false}`))
	c.AddParam("id", "team-1")

	h.SetStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.statusReq.Active)
	assert.False(t, *svc.statusReq.Active)
}

func TestTeamHandlerCreate(t *testing.T) {
	h := NewTeamHandler(&fakeTeamService{}, nil)
	c, rec := newTestContext(http.MethodPost, "/admin/teams", strings.NewReader(`{"schoolId":"school-1","name":"U12 Hoops","sport":"basketball","priceCents":9000}`))

	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTeamHandlerExportRoster(t *testing.T) {
	exporter := &fakeExporter{}
	h := NewTeamHandler(&fakeTeamService{}, exporter)
	c, rec := newTestContext(http.MethodGet, "/admin/teams/team-1/roster/export", nil)
	c.AddParam("id", "team-1")

	h.ExportRoster(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster_u10_soccer_20240301.csv")
	assert.Equal(t, "Student,Team\n", rec.Body.String())
}

func TestTeamHandlerExportRosterRejectsFormat(t *testing.T) {
	h := NewTeamHandler(&fakeTeamService{}, &fakeExporter{})
	c, rec := newTestContext(http.MethodGet, "/admin/teams/team-1/roster/export?format=XLSX", nil)
	c.AddParam("id", "team-1")

	h.ExportRoster(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeRegistrationService struct{ req dto.RegistrationRequest }

func (f *fakeRegistrationService) Register(_ context.Context, req dto.RegistrationRequest) (*dto.RegistrationResponse, error) {
	f.req = req
	return &dto.RegistrationResponse{Parent: models.Parent{ID: "parent-1", Email: req.Parent.Email}, TotalCents: 12000}, nil
}

func TestRegistrationHandlerCreated(t *testing.T) {
	svc := &fakeRegistrationService{}
	h := NewRegistrationHandler(svc)
	payload := dto.RegistrationRequest{
		Parent: dto.RegistrationParent{FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com", Phone: "555-0100"},
		Students: []dto.RegistrationStudent{{
			FirstName: "Mia", LastName: "Reyes", DateOfBirth: "2015-04-02",
			EmergencyContactName: "Ana", EmergencyContactPhone: "555-0199", TeamIDs: []string{"team-1"},
		}},
	}
	c, rec := newTestContext(http.MethodPost, "/registrations", jsonBody(t, payload))

	h.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var res dto.RegistrationResponse
	decodeData(t, rec, &res)
	assert.Equal(t, "parent-1", res.Parent.ID)
	assert.Equal(t, []string{"team-1"}, svc.req.Students[0].TeamIDs)
}

func TestRegistrationHandlerMalformedBody(t *testing.T) {
	h := NewRegistrationHandler(&fakeRegistrationService{})
	c, rec := newTestContext(http.MethodPost, "/registrations", strings.NewReader(`[]`))

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeCouponService struct{}

func (fakeCouponService) Validate(_ context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	if code == "SPRING10" {
		return &dto.ValidateCouponResponse{Valid: true, Code: code, Percentage: 10}, nil
	}
	return &dto.ValidateCouponResponse{Valid: false}, nil
}

func (fakeCouponService) List(context.Context) ([]models.Coupon, error) {
	return []models.Coupon{}, nil
}

func (fakeCouponService) Create(_ context.Context, req dto.CreateCouponRequest) (*models.Coupon, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "coupon already exists")
}

func (fakeCouponService) SetActive(_ context.Context, code string, req dto.UpdateCouponRequest) (*models.Coupon, error) {
	return &models.Coupon{Code: code, Active: *req.Active}, nil
}

func TestCouponHandlerValidate(t *testing.T) {
	h := NewCouponHandler(fakeCouponService{})

	cases := []struct {
		body   string
		status int
		valid  bool
	}{
		{`{"code":" spring10 "}`, http.StatusOK, true},
		{`{"code":"EXPIRED"}`, http.StatusOK, false},
		{`{"code":""}`, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		c, rec := newTestContext(http.MethodPost, "/coupons/validate", strings.NewReader(tc.body))
		h.Validate(c)
		require.Equal(t, tc.status, rec.Code, tc.body)
		if tc.status == http.StatusOK {
			var res dto.ValidateCouponResponse
			decodeData(t, rec, &res)
			assert.Equal(t, tc.valid, res.Valid, tc.body)
		}
	}
}

func TestCouponHandlerCreateConflict(t *testing.T) {
	h := NewCouponHandler(fakeCouponService{})
	c, rec := newTestContext(http.MethodPost, "/admin/coupons", strings.NewReader(`{"code":"SPRING10","percentage":10}`))

	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCouponHandlerUpdate(t *testing.T) {
	h := NewCouponHandler(fakeCouponService{})
	c, rec := newTestContext(http.MethodPatch, "/admin/coupons/SPRING10", strings.NewReader(`{"active":false}`))
	c.AddParam("code", "SPRING10")

	h.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var coupon models.Coupon
	decodeData(t, rec, &coupon)
	assert.Equal(t, "SPRING10", coupon.Code)
	assert.False(t, coupon.Active)
}
