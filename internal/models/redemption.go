package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionRejected  RedemptionStatus = "rejected"
	RedemptionUsed      RedemptionStatus = "used"
	RedemptionExpired   RedemptionStatus = "expired"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RedemptionStatus) Terminal() bool {
	switch s {
	case RedemptionRejected, RedemptionUsed, RedemptionExpired, RedemptionCancelled:
		return true
	}
	return false
}

// Redemption is an instance of spending points, either against a catalog
// reward (RewardID set, points debited at creation) or at the pump
// (RewardID nil, points debited at approval).
type Redemption struct {
	bun.BaseModel  `bun:"table:redemption"`
	ID             int64            `bun:"id,pk,autoincrement" json:"id"`
	AccountID      int64            `bun:"account_id" json:"account_id"`
	RewardID       *int64           `bun:"reward_id" json:"reward_id,omitempty"`
	PointsUsed     int              `bun:"points_used" json:"points_used"`
	Code           string           `bun:"code" json:"code"`
	Status         RedemptionStatus `bun:"status" json:"status"`
	ApprovedBy     *int64           `bun:"approved_by" json:"approved_by,omitempty"`
	UsedAtPump     *int64           `bun:"used_at_pump" json:"used_at_pump,omitempty"`
	ExpiryDate     time.Time        `bun:"expiry_date" json:"expiry_date"`
	UsedAt         *time.Time       `bun:"used_at" json:"used_at,omitempty"`
	RejectedReason string           `bun:"rejected_reason" json:"rejected_reason,omitempty"`
	CreatedAt      time.Time        `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time        `bun:"updated_at" json:"updated_at"`
}

func (r *Redemption) AtPump() bool {
	return r.RewardID == nil
}
