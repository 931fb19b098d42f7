package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/payment"
)

type paymentGateway interface {
	CreateIntent(params payment.IntentParams) (*payment.Intent, error)
	CreateCheckout(params payment.CheckoutParams) (*payment.Session, error)
	GetSession(id string) (*payment.Session, error)
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

type paymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Payment, error)
	FindByIntent(ctx context.Context, intentID string) (*models.Payment, error)
	FindLatestByEnrollment(ctx context.Context, enrollmentID string) (*models.Payment, error)
	AttachSession(ctx context.Context, id, sessionID string, intentID *string) error
	ApplyCoupon(ctx context.Context, id string, amountCents int64, code *string) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, intentID *string) error
}

type enrollmentDetailFinder interface {
	FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

type couponLookup interface {
	Active(ctx context.Context, code string) (*models.Coupon, error)
}

// PaymentConfig carries checkout redirect targets and the default currency.
type PaymentConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// PaymentService creates processor sessions for enrollment payments and
// applies processor callbacks to them.
type PaymentService struct {
	gateway     paymentGateway
	payments    paymentRepository
	enrollments enrollmentDetailFinder
	coupons     couponLookup
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      PaymentConfig
}

// NewPaymentService wires payments. A nil gateway puts the service in
// unconfigured mode where processor calls answer 503.
func NewPaymentService(gateway paymentGateway, payments paymentRepository, enrollments enrollmentDetailFinder, coupons couponLookup, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PaymentConfig) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &PaymentService{
		gateway:     gateway,
		payments:    payments,
		enrollments: enrollments,
		coupons:     coupons,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      cfg,
	}
}

// Configured reports whether a processor is wired.
func (s *PaymentService) Configured() bool {
	return s.gateway != nil
}

// maxAmountCents is the largest charge the processor accepts in one payment.
const maxAmountCents = 99999999

// ParseAmount converts a major-unit amount given as a JSON number or numeric
// string into minor units. Non-numeric and non-positive values are rejected.
func ParseAmount(raw interface{}) (int64, error) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("amount must be numeric")
		}
		value = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("amount must be numeric")
		}
		value = f
	case nil:
		return 0, fmt.Errorf("amount is required")
	default:
		return 0, fmt.Errorf("amount must be numeric")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount must be numeric")
	}
	minor := math.Round(value * 100)
	if minor <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	if minor > maxAmountCents {
		return 0, fmt.Errorf("amount is too large")
	}
	return int64(minor), nil
}

// CreateIntent validates the amount before anything leaves the process and
// then opens a processor payment intent.
func (s *PaymentService) CreateIntent(ctx context.Context, req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	cents, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.config.Currency
	}
	if len(currency) != 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "currency must be a 3 letter ISO code")
	}
	if s.gateway == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "payments are not configured")
	}

	params := payment.IntentParams{AmountCents: cents, Currency: currency, Email: req.Email, Metadata: map[string]string{}}
	if req.EnrollmentID != "" {
		params.Metadata["enrollment_id"] = req.EnrollmentID
	}
	intent, err := s.gateway.CreateIntent(params)
	if err != nil {
		s.logger.Error("payment intent failed", zap.Int64("amount_cents", cents), zap.Error(err))
		return nil, appErrors.Classify(err, "payment processor error")
	}
	return &dto.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}, nil
}

// Checkout opens a hosted checkout for the enrollment's pending payment,
// applying an optional coupon to the team price. A fully discounted payment
// is marked paid without contacting the processor.
func (s *PaymentService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}

	detail, err := s.enrollments.FindDetail(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !detail.Active || !detail.TeamActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is not open for payment")
	}

	pay, err := s.payments.FindLatestByEnrollment(ctx, detail.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no payment is due for this enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	switch pay.Status {
	case models.PaymentStatusPaid, models.PaymentStatusRefunded:
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("payment is already %s", pay.Status))
	}

	amount := detail.PriceCents
	var couponCode *string
	if strings.TrimSpace(req.CouponCode) != "" {
		coupon, err := s.coupons.Active(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "coupon is not valid")
		}
		amount = coupon.Apply(amount)
		couponCode = &coupon.Code
	}
	if amount > 0 && s.gateway == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "payments are not configured")
	}

	if pay.Status == models.PaymentStatusCancelled {
		if err := s.payments.UpdateStatus(ctx, pay.ID, models.PaymentStatusPending, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen payment")
		}
	}
	if err := s.payments.ApplyCoupon(ctx, pay.ID, amount, couponCode); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to price payment")
	}

	if amount == 0 {
		if err := s.payments.UpdateStatus(ctx, pay.ID, models.PaymentStatusPaid, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
		}
		s.logger.Info("payment settled by coupon", zap.String("payment_id", pay.ID), zap.String("enrollment_id", detail.ID))
		return &dto.CheckoutResponse{PaymentID: pay.ID, URL: s.config.SuccessURL, AmountCents: 0}, nil
	}

	session, err := s.gateway.CreateCheckout(payment.CheckoutParams{
		AmountCents:     amount,
		Currency:        pay.Currency,
		ProductName:     fmt.Sprintf("%s - %s", detail.TeamName, strings.TrimSpace(detail.StudentFirstName+" "+detail.StudentLastName)),
		ClientReference: pay.ID,
		SuccessURL:      withSessionPlaceholder(s.config.SuccessURL),
		CancelURL:       s.config.CancelURL,
		Metadata: map[string]string{
			"enrollment_id": detail.ID,
			"payment_id":    pay.ID,
		},
	})
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("payment_id", pay.ID), zap.Error(err))
		return nil, appErrors.Classify(err, "payment processor error")
	}

	var intentID *string
	if session.PaymentIntentID != "" {
		intentID = &session.PaymentIntentID
	}
	if err := s.payments.AttachSession(ctx, pay.ID, session.ID, intentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store checkout session")
	}
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL, PaymentID: pay.ID, AmountCents: amount}, nil
}

// SessionStatus reads a checkout session back from the processor and marks
// the correlated payment paid when the processor says so.
func (s *PaymentService) SessionStatus(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error) {
	if s.gateway == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "payments are not configured")
	}
	session, err := s.gateway.GetSession(sessionID)
	if err != nil {
		return nil, appErrors.Classify(err, "failed to load checkout session")
	}
	pay, err := s.paymentForSession(ctx, session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found for session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if session.PaymentStatus == "paid" && pay.Status == models.PaymentStatusPending {
		if err := s.markPaid(ctx, pay, session); err != nil {
			return nil, err
		}
	}
	return &dto.SessionStatusResponse{
		SessionID:     session.ID,
		PaymentID:     pay.ID,
		EnrollmentID:  pay.EnrollmentID,
		PaymentStatus: string(pay.Status),
		AmountCents:   pay.AmountCents,
	}, nil
}

// HandleWebhook verifies and applies a processor event. Events for unknown
// payments are acknowledged and logged.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "payments are not configured")
	}
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "webhook secret is not configured")
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid webhook signature")
	}
	s.metrics.RecordWebhookEvent(evt.Type)
	log := s.logger.With(zap.String("event_id", evt.ID), zap.String("event_type", evt.Type))

	switch evt.Type {
	case payment.EventCheckoutCompleted:
		if evt.Session == nil || evt.Session.PaymentStatus != "paid" {
			return nil
		}
		pay, err := s.paymentForSession(ctx, evt.Session)
		if err != nil {
			return s.webhookLookupError(log, err)
		}
		if pay.Status == models.PaymentStatusPaid {
			return nil
		}
		return s.markPaid(ctx, pay, evt.Session)
	case payment.EventCheckoutExpired:
		if evt.Session == nil {
			return nil
		}
		pay, err := s.paymentForSession(ctx, evt.Session)
		if err != nil {
			return s.webhookLookupError(log, err)
		}
		if pay.Status != models.PaymentStatusPending {
			return nil
		}
		if err := s.payments.UpdateStatus(ctx, pay.ID, models.PaymentStatusCancelled, nil); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel payment")
		}
		log.Info("payment cancelled", zap.String("payment_id", pay.ID))
	case payment.EventChargeRefunded:
		if evt.ChargeIntentID == "" {
			return nil
		}
		pay, err := s.payments.FindByIntent(ctx, evt.ChargeIntentID)
		if err != nil {
			return s.webhookLookupError(log, err)
		}
		if err := s.payments.UpdateStatus(ctx, pay.ID, models.PaymentStatusRefunded, nil); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refund payment")
		}
		log.Info("payment refunded", zap.String("payment_id", pay.ID))
	default:
		log.Debug("webhook event ignored")
	}
	return nil
}

func (s *PaymentService) markPaid(ctx context.Context, pay *models.Payment, session *payment.Session) error {
	var intentID *string
	if session.PaymentIntentID != "" {
		intentID = &session.PaymentIntentID
	}
	if err := s.payments.UpdateStatus(ctx, pay.ID, models.PaymentStatusPaid, intentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark payment paid")
	}
	pay.Status = models.PaymentStatusPaid
	s.logger.Info("payment paid", zap.String("payment_id", pay.ID), zap.String("session_id", session.ID))
	return nil
}

// paymentForSession correlates through metadata first and falls back to the
// stored session id.
func (s *PaymentService) paymentForSession(ctx context.Context, session *payment.Session) (*models.Payment, error) {
	if id := session.Metadata["payment_id"]; id != "" {
		pay, err := s.payments.FindByID(ctx, id)
		if err == nil {
			return pay, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return s.payments.FindBySession(ctx, session.ID)
}

func (s *PaymentService) webhookLookupError(log *zap.Logger, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("webhook references unknown payment")
		return nil
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
}

func withSessionPlaceholder(successURL string) string {
	if successURL == "" || strings.Contains(successURL, "{CHECKOUT_SESSION_ID}") {
		return successURL
	}
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}
