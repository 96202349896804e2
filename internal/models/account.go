package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AccountRole string

const (
	RoleAdmin      AccountRole = "admin"
	RoleManager    AccountRole = "manager"
	RoleStaff      AccountRole = "staff"
	RoleCustomer   AccountRole = "customer"
	RoleFleetOwner AccountRole = "fleet_owner"
)

func (r AccountRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer, RoleFleetOwner:
		return true
	}
	return false
}

// Account is any points-holding identity. The wallet summary columns are
// denormalized and mutated only inside ledger transactions, never directly.
type Account struct {
	bun.BaseModel `bun:"table:account"`
	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	LoyaltyID     string      `bun:"loyalty_id" json:"loyalty_id"`
	Mobile        string      `bun:"mobile" json:"mobile"`
	Name          string      `bun:"name" json:"name"`
	Role          AccountRole `bun:"role" json:"role"`
	Active        bool        `bun:"active" json:"active"`

	TotalEarned     int `bun:"total_earned" json:"total_earned"`
	AvailablePoints int `bun:"available_points" json:"available_points"`
	RedeemedPoints  int `bun:"redeemed_points" json:"redeemed_points"`
	ExpiredPoints   int `bun:"expired_points" json:"expired_points"`

	CreatedAt time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

// WalletSummary is the read shape handed back to callers after every ledger
// operation, so upstream audit sinks can record before/after state.
type WalletSummary struct {
	AccountID       int64 `json:"account_id"`
	TotalEarned     int   `json:"total_earned"`
	AvailablePoints int   `json:"available_points"`
	RedeemedPoints  int   `json:"redeemed_points"`
	ExpiredPoints   int   `json:"expired_points"`
}

func (a *Account) Wallet() WalletSummary {
	return WalletSummary{
		AccountID:       a.ID,
		TotalEarned:     a.TotalEarned,
		AvailablePoints: a.AvailablePoints,
		RedeemedPoints:  a.RedeemedPoints,
		ExpiredPoints:   a.ExpiredPoints,
	}
}
