package dto

// PaymentIntentRequest asks for a payment intent. Amount is in major units and
// may arrive as a JSON number or numeric string.
type PaymentIntentRequest struct {
	Amount       interface{} `json:"amount"`
	Currency     string      `json:"currency"`
	EnrollmentID string      `json:"enrollmentId" validate:"omitempty,uuid"`
	Email        string      `json:"email" validate:"omitempty,email"`
}

// PaymentIntentResponse returns the client secret for the embedded payment form.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"intentId"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

// CheckoutRequest starts a hosted checkout for a pending enrollment payment.
type CheckoutRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required,uuid"`
	CouponCode   string `json:"couponCode" validate:"omitempty,max=64"`
}

// CheckoutResponse returns where to redirect the browser.
type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	URL         string `json:"url"`
	PaymentID   string `json:"paymentId"`
	AmountCents int64  `json:"amountCents"`
}

// SessionStatusResponse reports the payment state behind a checkout session.
type SessionStatusResponse struct {
	SessionID     string `json:"sessionId"`
	PaymentID     string `json:"paymentId"`
	EnrollmentID  string `json:"enrollmentId"`
	PaymentStatus string `json:"paymentStatus"`
	AmountCents   int64  `json:"amountCents"`
}
