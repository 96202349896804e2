package datastore

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableRedemption(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Redemption)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Redemption)(nil)).Index("index_redemption_code").Unique().IfNotExists().Column("code").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Redemption)(nil)).Index("index_redemption_account_id").IfNotExists().Column("account_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertRedemption(ctx context.Context, db bun.IDB, redemption *models.Redemption) (*models.Redemption, error) {
	_, err := db.NewInsert().Model(redemption).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return redemption, nil
}

func FindRedemptionByID(ctx context.Context, db bun.IDB, id int64) (*models.Redemption, error) {
	var redemption models.Redemption
	err := db.NewSelect().Model(&redemption).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func FindRedemptionByCode(ctx context.Context, db bun.IDB, code string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := db.NewSelect().Model(&redemption).Where("code = ?", code).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func GetRedemptionsByAccount(ctx context.Context, db bun.IDB, accountID int64, limit, offset int) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	err := db.NewSelect().Model(&redemptions).
		Where("account_id = ?", accountID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return redemptions, nil
}

func RedemptionCodeExists(ctx context.Context, db bun.IDB, code string) (bool, error) {
	return db.NewSelect().Model((*models.Redemption)(nil)).Where("code = ?", code).Exists(ctx)
}

func UpdateRedemption(ctx context.Context, db bun.IDB, redemption *models.Redemption) (*models.Redemption, error) {
	redemption.UpdatedAt = time.Now()
	_, err := db.NewUpdate().Model(redemption).WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return redemption, nil
}

// TransitionRedemptionStatus flips status only when the row still holds the
// expected one, returning whether the transition won. This is the database
// side of the no-double-approve guarantee.
func TransitionRedemptionStatus(ctx context.Context, db bun.IDB, id int64, from, to models.RedemptionStatus) (bool, error) {
	res, err := db.NewUpdate().Model((*models.Redemption)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
