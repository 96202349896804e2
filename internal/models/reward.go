package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RewardAvailability string

const (
	AvailabilityUnlimited RewardAvailability = "unlimited"
	AvailabilityLimited   RewardAvailability = "limited"
)

// Reward is a catalog item points can be redeemed against. For limited
// rewards RedeemedQuantity never exceeds TotalQuantity; the counter moves up
// on redemption creation and back down on rejection.
type Reward struct {
	bun.BaseModel    `bun:"table:reward"`
	ID               int64              `bun:"id,pk,autoincrement" json:"id"`
	Name             string             `bun:"name" json:"name"`
	Description      string             `bun:"description" json:"description"`
	PointsRequired   int                `bun:"points_required" json:"points_required"`
	Availability     RewardAvailability `bun:"availability" json:"availability"`
	TotalQuantity    int                `bun:"total_quantity" json:"total_quantity"`
	RedeemedQuantity int                `bun:"redeemed_quantity" json:"redeemed_quantity"`
	StartDate        *time.Time         `bun:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time         `bun:"end_date" json:"end_date,omitempty"`
	Active           bool               `bun:"active" json:"active"`
	CreatedAt        time.Time          `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time          `bun:"updated_at" json:"updated_at"`
}

// Redeemable reports whether the reward can be redeemed at t, ignoring the
// caller's balance.
func (r *Reward) Redeemable(t time.Time) bool {
	if !r.Active {
		return false
	}
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	if r.Availability == AvailabilityLimited && r.RedeemedQuantity >= r.TotalQuantity {
		return false
	}
	return true
}
