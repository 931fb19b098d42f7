package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, id, parentID string) error
}

type parentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
}

// MessageService handles the public contact form and admin notes to parents.
type MessageService struct {
	repo         messageRepository
	parents      parentFinder
	mail         mailQueuer
	adminAddress string
	senderName   string
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewMessageService constructs a MessageService. Without an admin address
// contact submissions are stored but nobody is notified.
func NewMessageService(repo messageRepository, parents parentFinder, mailer mailQueuer, adminAddress, senderName string, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if senderName == "" {
		senderName = "League office"
	}
	return &MessageService{
		repo:         repo,
		parents:      parents,
		mail:         mailer,
		adminAddress: adminAddress,
		senderName:   senderName,
		validator:    validate,
		logger:       logger,
	}
}

// Contact stores a contact form submission and notifies the office.
func (s *MessageService) Contact(ctx context.Context, req dto.ContactRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact form")
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Website enquiry"
	}
	msg := &models.Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: subject,
		Body:    strings.TrimSpace(req.Message),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Classify(err, "failed to store message")
	}

	if s.mail != nil && s.adminAddress != "" {
		job := MailJob{
			Template: mail.TemplateContact,
			To:       s.adminAddress,
			Subject:  "Contact form: " + subject,
			ReplyTo:  msg.Email,
			Data:     mail.ContactData{Name: msg.Name, Email: msg.Email, Subject: subject, Body: msg.Body},
		}
		if err := s.mail.Queue(job); err != nil {
			s.logger.Warn("failed to queue contact notification", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return msg, nil
}

// PostToParent places an admin note on a parent's dashboard.
func (s *MessageService) PostToParent(ctx context.Context, parentID string, req dto.ParentMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message")
	}
	parent, err := s.parents.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	msg := &models.Message{
		ParentID: &parent.ID,
		Name:     s.senderName,
		Email:    s.adminAddress,
		Subject:  strings.TrimSpace(req.Subject),
		Body:     strings.TrimSpace(req.Body),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Classify(err, "failed to store message")
	}
	return msg, nil
}

// MarkRead flags a message in the parent's inbox as read.
func (s *MessageService) MarkRead(ctx context.Context, parentID, messageID string) error {
	if parentID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a parent")
	}
	if err := s.repo.MarkRead(ctx, messageID, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update message")
	}
	return nil
}
