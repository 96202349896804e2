package datastore

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCampaign(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Campaign)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Campaign)(nil)).Index("index_campaign_dates").IfNotExists().Column("start_date", "end_date").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertCampaign(ctx context.Context, db bun.IDB, campaign *models.Campaign) (*models.Campaign, error) {
	_, err := db.NewInsert().Model(campaign).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

// GetActiveCampaigns returns campaigns whose window covers now, in creation
// order. The ordering is part of the contract: the first matching campaign
// wins, so it has to be stable.
func GetActiveCampaigns(ctx context.Context, db bun.IDB, now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := db.NewSelect().Model(&campaigns).
		Where("active = ?", true).
		Where("start_date <= ?", now).
		Where("end_date >= ?", now).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}
