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

type newsletterService interface {
	Subscribe(ctx context.Context, req dto.SubscribeRequest) (*models.NewsletterSubscriber, error)
	Unsubscribe(ctx context.Context, token string) (string, error)
}

type contactService interface {
	Contact(ctx context.Context, req dto.ContactRequest) (*models.Message, error)
}

// OutreachHandler serves the newsletter and contact forms.
type OutreachHandler struct {
	newsletter newsletterService
	contact    contactService
}

// NewOutreachHandler constructs the handler.
func NewOutreachHandler(newsletter newsletterService, contact contactService) *OutreachHandler {
	return &OutreachHandler{newsletter: newsletter, contact: contact}
}

// Subscribe godoc
// @Summary Subscribe to the newsletter
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param payload body dto.SubscribeRequest true "Subscription"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /newsletter/subscribe [post]
func (h *OutreachHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}
	sub, err := h.newsletter.Subscribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Unsubscribe godoc
// @Summary Unsubscribe from the newsletter
// @Tags Newsletter
// @Produce json
// @Param token query string true "Signed unsubscribe token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /newsletter/unsubscribe [get]
func (h *OutreachHandler) Unsubscribe(c *gin.Context) {
	email, err := h.newsletter.Unsubscribe(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"email": email, "unsubscribed": true}, nil)
}

// Contact godoc
// @Summary Send a message to the league office
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body dto.ContactRequest true "Message"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *OutreachHandler) Contact(c *gin.Context) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}
	if _, err := h.contact.Contact(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusAccepted, "thanks, we will be in touch")
}
