package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/noah-isme/youth-sports-api/pkg/config"
)

// Webhook event types the service reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventChargeRefunded    = "charge.refunded"
)

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("payment processor not configured")

// IntentParams describes a bare payment intent.
type IntentParams struct {
	AmountCents int64
	Currency    string
	Email       string
	Metadata    map[string]string
}

// Intent is the processor's answer to IntentParams.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// CheckoutParams describes a hosted checkout for one line item.
type CheckoutParams struct {
	AmountCents     int64
	Currency        string
	ProductName     string
	CustomerEmail   string
	ClientReference string
	SuccessURL      string
	CancelURL       string
	Metadata        map[string]string
}

// Session is the processor-neutral view of a checkout session.
type Session struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	CustomerEmail   string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

// Event is a verified webhook event reduced to what the service needs.
type Event struct {
	ID             string
	Type           string
	Session        *Session
	ChargeIntentID string
}

// StripeGateway talks to Stripe.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway returns ErrNotConfigured when the secret key is missing.
func NewStripeGateway(cfg config.StripeConfig) (*StripeGateway, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{api: api, webhookSecret: cfg.WebhookSecret}, nil
}

// CreateIntent creates a payment intent with automatic payment methods.
func (g *StripeGateway) CreateIntent(params IntentParams) (*Intent, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(strings.ToLower(params.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.Email != "" {
		p.ReceiptEmail = stripe.String(params.Email)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, AmountCents: pi.Amount, Currency: string(pi.Currency)}, nil
}

// CreateCheckout opens a hosted checkout session. Metadata is copied onto
// both the session and its payment intent so refunds can be correlated.
func (g *StripeGateway) CreateCheckout(params CheckoutParams) (*Session, error) {
	p := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(params.Currency)),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.ProductName),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: params.Metadata,
		},
	}
	if params.CustomerEmail != "" {
		p.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if params.ClientReference != "" {
		p.ClientReferenceID = stripe.String(params.ClientReference)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(p)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toSession(s), nil
}

// GetSession fetches a checkout session.
func (g *StripeGateway) GetSession(id string) (*Session, error) {
	s, err := g.api.CheckoutSessions.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toSession(s), nil
}

// ParseWebhook verifies the signature header and decodes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret %w", ErrNotConfigured)
	}
	evt, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: evt.Type}
	if evt.Data == nil {
		return out, nil
	}
	switch evt.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = toSession(&s)
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.ChargeIntentID = ch.PaymentIntent.ID
		}
	}
	return out, nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}
