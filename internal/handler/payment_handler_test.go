package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/service"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakePaymentService struct {
	intentCalls int
	payload     []byte
	signature   string
	webhookErr  error
}

func (f *fakePaymentService) CreateIntent(_ context.Context, req dto.PaymentIntentRequest) (*dto.PaymentIntentResponse, error) {
	f.intentCalls++
	cents, err := service.ParseAmount(req.Amount)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return &dto.PaymentIntentResponse{ClientSecret: "pi_secret", AmountCents: cents, Currency: "usd"}, nil
}

func (f *fakePaymentService) Checkout(_ context.Context, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	return &dto.CheckoutResponse{SessionID: "cs_1", URL: "https://checkout.example/cs_1", AmountCents: 6000}, nil
}

func (f *fakePaymentService) SessionStatus(_ context.Context, id string) (*dto.SessionStatusResponse, error) {
	if id != "cs_1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return &dto.SessionStatusResponse{SessionID: id, PaymentStatus: "paid"}, nil
}

func (f *fakePaymentService) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.payload = payload
	f.signature = signature
	return f.webhookErr
}

func TestPaymentHandlerIntentAmounts(t *testing.T) {
	cases := map[string]int{
		`{"amount":120}`:     http.StatusCreated,
		`{"amount":"49.99"}`: http.StatusCreated,
		`{"amount":0}`:       http.StatusBadRequest,
		`{"amount":-5}`:      http.StatusBadRequest,
		`{"amount":"ten"}`:   http.StatusBadRequest,
		`{}`:                 http.StatusBadRequest,
	}
	for body, status := range cases {
		h := NewPaymentHandler(&fakePaymentService{})
		c, rec := newTestContext(http.MethodPost, "/payments/intent", strings.NewReader(body))
		h.CreateIntent(c)
		assert.Equal(t, status, rec.Code, body)
	}
}

func TestPaymentHandlerIntentMalformedJSONSkipsService(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/payments/intent", strings.NewReader(`{"amount":`))

	h.CreateIntent(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.intentCalls)
}

func TestPaymentHandlerCheckout(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{})
	c, rec := newTestContext(http.MethodPost, "/payments/checkout", strings.NewReader(`{"enrollmentId":"enr-1","couponCode":"half"}`))

	h.Checkout(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.CheckoutResponse
	decodeData(t, rec, &res)
	assert.Equal(t, "https://checkout.example/cs_1", res.URL)
}

func TestPaymentHandlerSession(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{})

	c, rec := newTestContext(http.MethodGet, "/payments/session/cs_1", nil)
	c.AddParam("id", "cs_1")
	h.Session(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/payments/session/cs_missing", nil)
	c.AddParam("id", "cs_missing")
	h.Session(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentHandlerWebhookPassesRawBodyAndSignature(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc)
	raw := `{"id":"evt_1","type":"checkout.session.completed"}`
	c, rec := newTestContext(http.MethodPost, "/payments/webhook", strings.NewReader(raw))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=abc")

	h.Webhook(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, raw, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.signature)
}

func TestPaymentHandlerWebhookBadSignature(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{webhookErr: appErrors.Clone(appErrors.ErrValidation, "invalid signature")})
	c, rec := newTestContext(http.MethodPost, "/payments/webhook", strings.NewReader(`{}`))

	h.Webhook(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandlerWebhookTooLarge(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{})
	c, rec := newTestContext(http.MethodPost, "/payments/webhook", strings.NewReader(strings.Repeat("x", maxWebhookBytes+1)))

	h.Webhook(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
