package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableLedgerEntry(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.LedgerEntry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LedgerEntry)(nil)).Index("index_ledger_entry_account_id").IfNotExists().Column("account_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LedgerEntry)(nil)).Index("index_ledger_entry_expiry").IfNotExists().Column("account_id", "expiry_date").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertLedgerEntry(ctx context.Context, db bun.IDB, entry *models.LedgerEntry) error {
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	return err
}

func GetLedgerEntries(ctx context.Context, db bun.IDB, accountID int64, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := db.NewSelect().Model(&entries).
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SumLedgerPoints reconstructs the available balance from the ledger alone.
func SumLedgerPoints(ctx context.Context, db bun.IDB, accountID int64) (int, error) {
	var sum models.LedgerSum
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(points), 0) as total_points").
		ColumnExpr("account_id").
		TableExpr("ledger_entry").
		Where("account_id = ?", accountID).
		GroupExpr("account_id").
		Scan(ctx, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return sum.TotalPoints, nil
}

// GetExpirableCredits returns unconsumed credit entries whose expiry date has
// passed, oldest expiry first. The order is what makes the sweep FIFO.
func GetExpirableCredits(ctx context.Context, db bun.IDB, accountID int64, now time.Time) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := db.NewSelect().Model(&entries).
		Where("account_id = ?", accountID).
		Where("type = ?", models.EntryCredit).
		Where("points > 0").
		Where("expiry_date IS NOT NULL").
		Where("expiry_date <= ?", now).
		Where("consumed_at IS NULL").
		OrderExpr("expiry_date ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetCreditsExpiringOn returns unconsumed credits whose expiry date falls on
// the given calendar day, for expiry reminder notifications. The window uses
// the day's own location, which matches how credit expiry dates are stamped.
func GetCreditsExpiringOn(ctx context.Context, db bun.IDB, day time.Time) ([]models.LedgerEntry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var entries []models.LedgerEntry
	err := db.NewSelect().Model(&entries).
		Where("type = ?", models.EntryCredit).
		Where("points > 0").
		Where("expiry_date >= ?", start).
		Where("expiry_date < ?", end).
		Where("consumed_at IS NULL").
		OrderExpr("account_id ASC, expiry_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkEntryConsumed stamps a credit entry as fully swept. The points value is
// left untouched so the ledger keeps summing to the true balance history.
func MarkEntryConsumed(ctx context.Context, db bun.IDB, entryID string, at time.Time) error {
	_, err := db.NewUpdate().Model((*models.LedgerEntry)(nil)).
		Set("consumed_at = ?", at).
		Where("id = ?", entryID).
		Where("consumed_at IS NULL").
		Exec(ctx)
	return err
}
