package datastore

import (
	"context"
	"strconv"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Account)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Account)(nil)).Index("index_account_loyalty_id").Unique().IfNotExists().Column("loyalty_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Account)(nil)).Index("index_account_mobile").IfNotExists().Column("mobile").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateAccount(ctx context.Context, db bun.IDB, account *models.Account) (*models.Account, error) {
	_, err := db.NewInsert().Model(account).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func FindAccountByID(ctx context.Context, db bun.IDB, accountID int64) (*models.Account, error) {
	var account models.Account
	err := db.NewSelect().Model(&account).Where("id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountByIdentifier resolves a free-form identifier: loyalty ID,
// mobile number, or numeric internal ID.
func FindAccountByIdentifier(ctx context.Context, db bun.IDB, identifier string) (*models.Account, error) {
	var account models.Account
	q := db.NewSelect().Model(&account).
		Where("loyalty_id = ?", identifier).
		WhereOr("mobile = ?", identifier)
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		q = q.WhereOr("id = ?", id)
	}
	err := q.Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func GetActiveAccountIDs(ctx context.Context, db bun.IDB, limit, offset int) ([]int64, error) {
	var ids []int64
	err := db.NewSelect().Model((*models.Account)(nil)).
		Column("id").
		Where("active = ?", true).
		OrderExpr("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateWalletSummary writes the denormalized wallet columns. Callers hold
// the account mutex and run inside the same transaction as the matching
// ledger insert.
func UpdateWalletSummary(ctx context.Context, db bun.IDB, account *models.Account) error {
	_, err := db.NewUpdate().Model(account).
		Column("total_earned", "available_points", "redeemed_points", "expired_points", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}
