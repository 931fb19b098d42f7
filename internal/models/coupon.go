package models

import (
	"strings"
	"time"
)

// Coupon grants a percentage discount. Codes are stored upper-cased.
type Coupon struct {
	Code       string    `db:"code" json:"code"`
	Percentage int       `db:"percentage" json:"percentage"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeCouponCode trims and upper-cases a user supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply returns the discounted amount, never below zero.
func (c Coupon) Apply(amountCents int64) int64 {
	if !c.Active || c.Percentage <= 0 {
		return amountCents
	}
	pct := int64(c.Percentage)
	if pct > 100 {
		pct = 100
	}
	discounted := amountCents - amountCents*pct/100
	if discounted < 0 {
		return 0
	}
	return discounted
}
