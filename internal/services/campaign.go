package services

import (
	"context"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	weightedrand "github.com/mroth/weightedrand/v2"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceCampaign struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceCampaign(container *do.Injector) (*ServiceCampaign, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceCampaign{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceCampaign) GetActiveCampaigns(ctx context.Context) ([]models.Campaign, error) {
	callback := func() ([]models.Campaign, error) {
		return datastore.GetActiveCampaigns(ctx, service.readonlyPostgresDB, time.Now())
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyActiveCampaigns(), CACHE_TTL_ACTIVE_CAMPAIGNS, callback)
}

// FindApplicable returns the campaign applied to a purchase, or nil when none
// matches. Active campaigns are ordered oldest first, so when several match
// the earliest created one wins. A campaign with a frequency limit is skipped
// once the account has already benefited that many times inside its window.
func (service *ServiceCampaign) FindApplicable(ctx context.Context, accountID int64, pumpID int64, category models.TransactionCategory, amount float64) (*models.Campaign, error) {
	campaigns, err := service.GetActiveCampaigns(ctx)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	now := time.Now()
	for i := range campaigns {
		campaign := &campaigns[i]
		if !campaign.Matches(now, pumpID, category, amount) {
			continue
		}

		if campaign.FrequencyLimit > 0 {
			uses, err := datastore.CountAccountCampaignUses(ctx, service.postgresDB, accountID, campaign.ID, campaign.StartDate)
			if err != nil {
				return nil, errorx.Wrap(err, errorx.Service)
			}
			if uses >= campaign.FrequencyLimit {
				continue
			}
		}

		return campaign, nil
	}

	return nil, nil
}

func (service *ServiceCampaign) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign.EndDate.Before(campaign.StartDate) {
		return nil, errorx.Wrap(errInvalidCampaignWindow, errorx.Invalid)
	}

	campaign, err := datastore.InsertCampaign(ctx, service.postgresDB, campaign)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyActiveCampaigns())
	return campaign, nil
}

func (service *ServiceCampaign) GetActiveRewards(ctx context.Context) ([]models.Reward, error) {
	callback := func() ([]models.Reward, error) {
		return datastore.GetActiveRewards(ctx, service.readonlyPostgresDB, time.Now())
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyActiveRewards(), CACHE_TTL_ACTIVE_REWARDS, callback)
}

func (service *ServiceCampaign) GetActiveBanners(ctx context.Context) ([]models.Banner, error) {
	callback := func() ([]models.Banner, error) {
		return datastore.GetActiveBanners(ctx, service.readonlyPostgresDB, time.Now())
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyActiveBanners(), CACHE_TTL_ACTIVE_BANNERS, callback)
}

// PickBanner selects one active banner, weighted by Banner.Weight. Banners
// with zero weight still get a minimal share of the rotation.
func (service *ServiceCampaign) PickBanner(ctx context.Context) (*models.Banner, error) {
	banners, err := service.GetActiveBanners(ctx)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if len(banners) == 0 {
		return nil, errorx.Wrap(errNoActiveBanner, errorx.NotExist)
	}

	choices := make([]weightedrand.Choice[*models.Banner, uint], 0, len(banners))
	for i := range banners {
		weight := banners[i].Weight
		if weight == 0 {
			weight = 1
		}
		choices = append(choices, weightedrand.NewChoice(&banners[i], weight))
	}

	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return &banners[0], nil
	}

	return chooser.Pick(), nil
}
