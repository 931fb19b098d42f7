package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/response"
)

type couponService interface {
	Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, req dto.CreateCouponRequest) (*models.Coupon, error)
	SetActive(ctx context.Context, code string, req dto.UpdateCouponRequest) (*models.Coupon, error)
}

// CouponHandler exposes coupon validation and administration.
type CouponHandler struct {
	service couponService
}

// NewCouponHandler constructs the handler.
func NewCouponHandler(service couponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Validate godoc
// @Summary Validate a coupon code
// @Description Unknown or inactive codes return valid=false with 200
// @Tags Coupons
// @Accept json
// @Produce json
// @Param payload body dto.ValidateCouponRequest true "Code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coupon payload"))
		return
	}
	res, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List coupons
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupons, nil)
}

// Create godoc
// @Summary Create coupon
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateCouponRequest true "Coupon"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coupon payload"))
		return
	}
	coupon, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coupon)
}

// Update godoc
// @Summary Activate or deactivate a coupon
// @Tags Admin
// @Accept json
// @Produce json
// @Param code path string true "Coupon code"
// @Param payload body dto.UpdateCouponRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/coupons/{code} [patch]
func (h *CouponHandler) Update(c *gin.Context) {
	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coupon payload"))
		return
	}
	coupon, err := h.service.SetActive(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupon, nil)
}
