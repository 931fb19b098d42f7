package dto

// CreateTeamRequest creates a team under a school.
type CreateTeamRequest struct {
	SchoolID   string `json:"schoolId" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
	Sport      string `json:"sport" validate:"required,max=60"`
	Season     string `json:"season" validate:"omitempty,max=60"`
	PriceCents int64  `json:"priceCents" validate:"gte=0"`
	Capacity   int    `json:"capacity" validate:"gte=0"`
}

// UpdateTeamStatusRequest toggles a team's active flag.
type UpdateTeamStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CreateSchoolRequest creates a school.
type CreateSchoolRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	City string `json:"city" validate:"omitempty,max=120"`
}

// ValidateCouponRequest checks a coupon code.
type ValidateCouponRequest struct {
	Code string `json:"code"`
}

// ValidateCouponResponse is always 200 for a well formed request.
type ValidateCouponResponse struct {
	Valid      bool   `json:"valid"`
	Code       string `json:"code,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// CreateCouponRequest creates a coupon.
type CreateCouponRequest struct {
	Code       string `json:"code" validate:"required,max=64"`
	Percentage int    `json:"percentage" validate:"required,min=1,max=100"`
}

// UpdateCouponRequest toggles a coupon.
type UpdateCouponRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SubscribeRequest adds an address to the newsletter.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Sport string `json:"sport" validate:"omitempty,max=60"`
}

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ParentMessageRequest lets an admin post a message to a parent's dashboard.
type ParentMessageRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=5000"`
}
