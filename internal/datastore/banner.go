package datastore

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableBanner(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Banner)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func InsertBanner(ctx context.Context, db bun.IDB, banner *models.Banner) (*models.Banner, error) {
	_, err := db.NewInsert().Model(banner).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return banner, nil
}

func GetActiveBanners(ctx context.Context, db bun.IDB, now time.Time) ([]models.Banner, error) {
	var banners []models.Banner
	err := db.NewSelect().Model(&banners).
		Where("active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return banners, nil
}
