package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCouponApply(t *testing.T) {
	assert.Equal(t, int64(7500), Coupon{Percentage: 25, Active: true}.Apply(10000))
	assert.Equal(t, int64(0), Coupon{Percentage: 100, Active: true}.Apply(10000))
	assert.Equal(t, int64(10000), Coupon{Percentage: 25, Active: false}.Apply(10000))
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "SPRING10", NormalizeCouponCode("  spring10 "))
}

func TestTeamSummarySpotsLeft(t *testing.T) {
	assert.Equal(t, -1, TeamSummary{}.SpotsLeft())
	assert.Equal(t, 3, TeamSummary{Team: Team{Capacity: 10}, EnrollmentCount: 7}.SpotsLeft())
	assert.Equal(t, 0, TeamSummary{Team: Team{Capacity: 10}, EnrollmentCount: 12}.SpotsLeft())
}

func TestCampaignKindValid(t *testing.T) {
	assert.True(t, CampaignCancellation.Valid())
	assert.True(t, CampaignWinback.Valid())
	assert.False(t, CampaignKind("spam").Valid())
}
