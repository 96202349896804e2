package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Banner is a promotional banner shown in the customer app. Weight drives
// the display rotation; banners are not points-affecting.
type Banner struct {
	bun.BaseModel `bun:"table:banner"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Title         string     `bun:"title" json:"title"`
	ImageURL      string     `bun:"image_url" json:"image_url"`
	TargetURL     string     `bun:"target_url" json:"target_url"`
	Weight        uint       `bun:"weight" json:"weight"`
	StartDate     *time.Time `bun:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time `bun:"end_date" json:"end_date,omitempty"`
	Active        bool       `bun:"active" json:"active"`
	CreatedAt     time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
}
