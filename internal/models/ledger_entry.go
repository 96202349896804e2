package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EntryType string

const (
	EntryCredit     EntryType = "credit"
	EntryDebit      EntryType = "debit"
	EntryExpiry     EntryType = "expiry"
	EntryAdjustment EntryType = "adjustment"
	EntryRefund     EntryType = "refund"
)

// LedgerEntry is one point-affecting event. Points is signed: positive for
// credit/refund/adjustment, negative for debit/expiry, so summing an
// account's entries reconstructs its available balance. Entries are
// append-only; the expiry sweeper only ever sets ConsumedAt.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entry"`
	ID            string    `bun:"id,pk" json:"id"`
	AccountID     int64     `bun:"account_id" json:"account_id"`
	Type          EntryType `bun:"type" json:"type"`
	Points        int       `bun:"points" json:"points"`
	BalanceAfter  int       `bun:"balance_after" json:"balance_after"`

	// ExpiryDate is set on credit entries only; ConsumedAt marks a credit
	// entry fully swept by the expiry job so it is never swept twice.
	ExpiryDate *time.Time `bun:"expiry_date" json:"expiry_date,omitempty"`
	ConsumedAt *time.Time `bun:"consumed_at" json:"consumed_at,omitempty"`

	RelatedTransactionID *int64 `bun:"related_transaction_id" json:"related_transaction_id,omitempty"`
	RelatedRedemptionID  *int64 `bun:"related_redemption_id" json:"related_redemption_id,omitempty"`

	Reason    string    `bun:"reason" json:"reason"`
	CreatedBy string    `bun:"created_by" json:"created_by"`
	CreatedAt time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type LedgerSum struct {
	AccountID   int64 `bun:"account_id"`
	TotalPoints int   `bun:"total_points"`
}
