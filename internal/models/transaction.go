package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TransactionCategory string

const (
	CategoryFuel      TransactionCategory = "fuel"
	CategoryLubricant TransactionCategory = "lubricant"
	CategoryStore     TransactionCategory = "store"
	CategoryService   TransactionCategory = "service"
)

func (c TransactionCategory) Valid() bool {
	switch c {
	case CategoryFuel, CategoryLubricant, CategoryStore, CategoryService:
		return true
	}
	return false
}

// PumpTransaction is one purchase at a pump, recorded together with the
// points it earned and the campaign applied to it, if any.
type PumpTransaction struct {
	bun.BaseModel `bun:"table:pump_transaction"`
	ID            int64               `bun:"id,pk,autoincrement" json:"id"`
	AccountID     int64               `bun:"account_id" json:"account_id"`
	PumpID        int64               `bun:"pump_id" json:"pump_id"`
	Category      TransactionCategory `bun:"category" json:"category"`
	Amount        float64             `bun:"amount" json:"amount"`
	Liters        float64             `bun:"liters" json:"liters"`
	PointsEarned  int                 `bun:"points_earned" json:"points_earned"`
	CampaignID    *int64              `bun:"campaign_id" json:"campaign_id,omitempty"`
	RecordedBy    string              `bun:"recorded_by" json:"recorded_by"`
	CreatedAt     time.Time           `bun:"created_at,default:current_timestamp" json:"created_at"`
}
