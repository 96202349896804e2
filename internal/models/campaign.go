package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CampaignType string

const (
	CampaignMultiplier      CampaignType = "multiplier"
	CampaignBonusPoints     CampaignType = "bonus_points"
	CampaignBonusPercentage CampaignType = "bonus_percentage"
)

// Campaign is a time-boxed promotional rule. Exactly the value field matching
// Type is meaningful; the others stay zero. An empty PumpIDs list means the
// campaign applies at every pump.
type Campaign struct {
	bun.BaseModel `bun:"table:campaign"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	Name          string       `bun:"name" json:"name"`
	Type          CampaignType `bun:"type" json:"type"`

	Multiplier      float64 `bun:"multiplier" json:"multiplier,omitempty"`
	BonusPoints     int     `bun:"bonus_points" json:"bonus_points,omitempty"`
	BonusPercentage int     `bun:"bonus_percentage" json:"bonus_percentage,omitempty"`

	StartDate time.Time `bun:"start_date" json:"start_date"`
	EndDate   time.Time `bun:"end_date" json:"end_date"`

	MinAmount      float64  `bun:"min_amount" json:"min_amount,omitempty"`
	Categories     []string `bun:"categories,type:jsonb" json:"categories,omitempty"`
	PumpIDs        []int64  `bun:"pump_ids,type:jsonb" json:"pump_ids,omitempty"`
	FrequencyLimit int      `bun:"frequency_limit" json:"frequency_limit,omitempty"`

	Active    bool      `bun:"active" json:"active"`
	CreatedAt time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

// Matches reports whether the campaign applies to a purchase at pumpID for
// the given category and amount at time t.
func (c *Campaign) Matches(t time.Time, pumpID int64, category TransactionCategory, amount float64) bool {
	if !c.Active || t.Before(c.StartDate) || t.After(c.EndDate) {
		return false
	}
	if len(c.PumpIDs) > 0 {
		found := false
		for _, id := range c.PumpIDs {
			if id == pumpID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.MinAmount > 0 && amount < c.MinAmount {
		return false
	}
	if len(c.Categories) > 0 {
		found := false
		for _, cat := range c.Categories {
			if cat == string(category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
