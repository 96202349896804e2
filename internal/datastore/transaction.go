package datastore

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePumpTransaction(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PumpTransaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PumpTransaction)(nil)).Index("index_pump_transaction_account_id").IfNotExists().Column("account_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertPumpTransaction(ctx context.Context, db bun.IDB, tx *models.PumpTransaction) (*models.PumpTransaction, error) {
	_, err := db.NewInsert().Model(tx).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return tx, nil
}

func FindPumpTransactionByID(ctx context.Context, db bun.IDB, id int64) (*models.PumpTransaction, error) {
	var tx models.PumpTransaction
	err := db.NewSelect().Model(&tx).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func DeletePumpTransaction(ctx context.Context, db bun.IDB, id int64) error {
	_, err := db.NewDelete().Model((*models.PumpTransaction)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func CountAccountCampaignUses(ctx context.Context, db bun.IDB, accountID int64, campaignID int64, since time.Time) (int, error) {
	return db.NewSelect().Model((*models.PumpTransaction)(nil)).
		Where("account_id = ?", accountID).
		Where("campaign_id = ?", campaignID).
		Where("created_at >= ?", since).
		Count(ctx)
}

func GetPumpTransactionsByAccount(ctx context.Context, db bun.IDB, accountID int64, limit, offset int) ([]models.PumpTransaction, error) {
	var txs []models.PumpTransaction
	err := db.NewSelect().Model(&txs).
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return txs, nil
}
