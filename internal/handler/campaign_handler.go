package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/response"
)

type campaignService interface {
	Preview(ctx context.Context, kind models.CampaignKind, limit int) (*dto.CampaignPreviewResponse, error)
	Send(ctx context.Context, kind models.CampaignKind, req dto.CampaignSendRequest) (*dto.CampaignSendResult, error)
	Runs(ctx context.Context, kind models.CampaignKind, limit int) ([]models.CampaignRun, error)
}

// CampaignHandler exposes the admin email campaigns.
type CampaignHandler struct {
	service campaignService
}

// NewCampaignHandler constructs the handler.
func NewCampaignHandler(service campaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// Preview godoc
// @Summary Preview campaign recipients
// @Description Lists recipients grouped by parent email without sending
// @Tags Campaigns
// @Produce json
// @Param kind path string true "cancellation or winback"
// @Param limit query int false "Recipients to return"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/campaigns/{kind}/preview [get]
func (h *CampaignHandler) Preview(c *gin.Context) {
	res, err := h.service.Preview(c.Request.Context(), campaignKind(c), parseQueryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Send godoc
// @Summary Send a campaign
// @Description Sends sequentially; per-recipient failures are reported, never fatal
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param kind path string true "cancellation or winback"
// @Param payload body dto.CampaignSendRequest false "Send options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/campaigns/{kind}/send [post]
func (h *CampaignHandler) Send(c *gin.Context) {
	var req dto.CampaignSendRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign options"))
			return
		}
	}
	res, err := h.service.Send(c.Request.Context(), campaignKind(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Runs godoc
// @Summary Recent campaign runs
// @Tags Campaigns
// @Produce json
// @Param campaign query string false "Filter by campaign"
// @Param limit query int false "Maximum runs"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/campaigns/runs [get]
func (h *CampaignHandler) Runs(c *gin.Context) {
	kind := models.CampaignKind(strings.ToLower(strings.TrimSpace(c.Query("campaign"))))
	runs, err := h.service.Runs(c.Request.Context(), kind, parseQueryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

func campaignKind(c *gin.Context) models.CampaignKind {
	return models.CampaignKind(strings.ToLower(strings.TrimSpace(c.Param("kind"))))
}
