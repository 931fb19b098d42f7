package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/middleware"
	"github.com/noah-isme/youth-sports-api/internal/models"
	"github.com/noah-isme/youth-sports-api/internal/service"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/response"
)

type teamService interface {
	List(ctx context.Context, filter models.TeamFilter) ([]models.TeamSummary, bool, error)
	Get(ctx context.Context, id string) (*models.TeamSummary, error)
	Create(ctx context.Context, req dto.CreateTeamRequest) (*models.Team, error)
	SetStatus(ctx context.Context, id string, req dto.UpdateTeamStatusRequest) (*models.TeamSummary, error)
	CreateSchool(ctx context.Context, req dto.CreateSchoolRequest) (*models.School, error)
	ListSchools(ctx context.Context) ([]models.School, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, teamID string, format service.ExportFormat) (*service.ExportFile, error)
}

// TeamHandler serves the team and school catalogue.
type TeamHandler struct {
	service  teamService
	exporter rosterExporter
}

// NewTeamHandler constructs the handler. exporter may be nil when roster
// downloads are not mounted.
func NewTeamHandler(service teamService, exporter rosterExporter) *TeamHandler {
	return &TeamHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List teams
// @Description Active teams with school name and enrollment count. Admins may pass includeInactive.
// @Tags Teams
// @Produce json
// @Param schoolId query string false "School ID"
// @Param sport query string false "Sport"
// @Success 200 {object} response.Envelope
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	filter := models.TeamFilter{
		SchoolID: strings.TrimSpace(c.Query("schoolId")),
		Sport:    strings.TrimSpace(c.Query("sport")),
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleAdmin {
		filter.IncludeInactive, _ = strconv.ParseBool(c.Query("includeInactive"))
	}

	teams, hit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, teams, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get team
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Create godoc
// @Summary Create team
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeamRequest true "Team"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid team payload"))
		return
	}
	team, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// SetStatus godoc
// @Summary Activate or cancel a team
// @Description Deactivating a team with enrolled students makes it a cancellation campaign target
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body dto.UpdateTeamStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/teams/{id}/status [patch]
func (h *TeamHandler) SetStatus(c *gin.Context) {
	var req dto.UpdateTeamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	team, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// ListSchools godoc
// @Summary List schools
// @Tags Teams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *TeamHandler) ListSchools(c *gin.Context) {
	schools, err := h.service.ListSchools(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, nil)
}

// CreateSchool godoc
// @Summary Create school
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateSchoolRequest true "School"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/schools [post]
func (h *TeamHandler) CreateSchool(c *gin.Context) {
	var req dto.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid school payload"))
		return
	}
	school, err := h.service.CreateSchool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// ExportRoster godoc
// @Summary Download team roster
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Team ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/teams/{id}/roster/export [get]
func (h *TeamHandler) ExportRoster(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	file, err := h.exporter.Roster(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
