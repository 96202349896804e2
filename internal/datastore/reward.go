package datastore

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReward(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Reward)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertReward(ctx context.Context, db bun.IDB, reward *models.Reward) (*models.Reward, error) {
	_, err := db.NewInsert().Model(reward).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return reward, nil
}

func FindRewardByID(ctx context.Context, db bun.IDB, id int64) (*models.Reward, error) {
	var reward models.Reward
	err := db.NewSelect().Model(&reward).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func GetActiveRewards(ctx context.Context, db bun.IDB, now time.Time) ([]models.Reward, error) {
	var rewards []models.Reward
	err := db.NewSelect().Model(&rewards).
		Where("active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		OrderExpr("points_required ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

// IncrementRewardRedeemed takes one unit of stock. For limited rewards the
// conditional WHERE keeps redeemed_quantity at or below total_quantity even
// under concurrent redemptions; the caller treats zero rows as out of stock.
func IncrementRewardRedeemed(ctx context.Context, db bun.IDB, reward *models.Reward) (bool, error) {
	q := db.NewUpdate().Model((*models.Reward)(nil)).
		Set("redeemed_quantity = redeemed_quantity + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", reward.ID)
	if reward.Availability == models.AvailabilityLimited {
		q = q.Where("redeemed_quantity < total_quantity")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DecrementRewardRedeemed returns one unit of stock after a rejection.
func DecrementRewardRedeemed(ctx context.Context, db bun.IDB, rewardID int64) error {
	_, err := db.NewUpdate().Model((*models.Reward)(nil)).
		Set("redeemed_quantity = redeemed_quantity - 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", rewardID).
		Where("redeemed_quantity > 0").
		Exec(ctx)
	return err
}
