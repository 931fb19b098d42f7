package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/middleware"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/response"
)

type dashboardService interface {
	Parent(ctx context.Context, parentID string) (*dto.ParentDashboardResponse, error)
	Parents(ctx context.Context, filter models.ParentFilter) ([]models.Parent, *models.Pagination, error)
}

type parentMessenger interface {
	PostToParent(ctx context.Context, parentID string, req dto.ParentMessageRequest) (*models.Message, error)
	MarkRead(ctx context.Context, parentID, messageID string) error
}

// DashboardHandler wires the parent dashboard and its admin counterpart.
type DashboardHandler struct {
	service  dashboardService
	messages parentMessenger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, messages parentMessenger) *DashboardHandler {
	return &DashboardHandler{service: service, messages: messages}
}

// Parent godoc
// @Summary Parent dashboard
// @Description Profile, students, enrollments, payments and messages of the signed-in parent
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Parent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.Parent(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// MarkRead godoc
// @Summary Mark a dashboard message read
// @Tags Dashboard
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/messages/{id}/read [patch]
func (h *DashboardHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), claims.ParentID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Parents godoc
// @Summary List parents
// @Tags Admin
// @Produce json
// @Param q query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/parents [get]
func (h *DashboardHandler) Parents(c *gin.Context) {
	filter := models.ParentFilter{
		Search:   strings.TrimSpace(c.Query("q")),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "limit", 20),
	}
	parents, pagination, err := h.service.Parents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, pagination)
}

// ParentDashboard godoc
// @Summary View a parent's dashboard
// @Tags Admin
// @Produce json
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/parents/{id}/dashboard [get]
func (h *DashboardHandler) ParentDashboard(c *gin.Context) {
	summary, err := h.service.Parent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// PostMessage godoc
// @Summary Post a message to a parent's dashboard
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Parent ID"
// @Param payload body dto.ParentMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/parents/{id}/messages [post]
func (h *DashboardHandler) PostMessage(c *gin.Context) {
	var req dto.ParentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	msg, err := h.messages.PostToParent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}
