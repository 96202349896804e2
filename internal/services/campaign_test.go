package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func insertCampaign(t *testing.T, injector *do.Injector, campaign *models.Campaign) *models.Campaign {
	t.Helper()

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	campaign, err := datastore.InsertCampaign(context.Background(), db, campaign)
	require.NoError(t, err)
	return campaign
}

func activeWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestCampaign_MatchesWindow(t *testing.T) {
	start, end := activeWindow()
	campaign := &models.Campaign{Active: true, StartDate: start, EndDate: end}

	assert.True(t, campaign.Matches(time.Now(), 1, models.CategoryFuel, 100))
	assert.False(t, campaign.Matches(end.Add(time.Minute), 1, models.CategoryFuel, 100))
	assert.False(t, campaign.Matches(start.Add(-time.Minute), 1, models.CategoryFuel, 100))
}

func TestCampaign_MatchesFilters(t *testing.T) {
	start, end := activeWindow()
	campaign := &models.Campaign{
		Active:     true,
		StartDate:  start,
		EndDate:    end,
		Categories: []string{string(models.CategoryFuel)},
		PumpIDs:    []int64{3, 4},
		MinAmount:  500,
	}

	now := time.Now()
	assert.True(t, campaign.Matches(now, 3, models.CategoryFuel, 600))
	assert.False(t, campaign.Matches(now, 1, models.CategoryFuel, 600), "wrong pump")
	assert.False(t, campaign.Matches(now, 3, models.CategoryStore, 600), "wrong category")
	assert.False(t, campaign.Matches(now, 3, models.CategoryFuel, 400), "below min amount")
}

func TestCampaign_FindApplicablePicksEarliestCreated(t *testing.T) {
	// GIVEN: two matching campaigns
	// THEN: the one created first wins, deterministically

	injector := newTestInjector(t)
	serviceCampaign := do.MustInvoke[*services.ServiceCampaign](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()

	start, end := activeWindow()
	first := insertCampaign(t, injector, &models.Campaign{
		Name: "First", Type: models.CampaignMultiplier, Multiplier: 2,
		StartDate: start, EndDate: end, Active: true,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	insertCampaign(t, injector, &models.Campaign{
		Name: "Second", Type: models.CampaignBonusPoints, BonusPoints: 50,
		StartDate: start, EndDate: end, Active: true,
		CreatedAt: time.Now().Add(-1 * time.Hour),
	})

	got, err := serviceCampaign.FindApplicable(ctx, account.ID, 1, models.CategoryFuel, 1000)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestCampaign_FindApplicableNoMatch(t *testing.T) {
	injector := newTestInjector(t)
	serviceCampaign := do.MustInvoke[*services.ServiceCampaign](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)

	got, err := serviceCampaign.FindApplicable(context.Background(), account.ID, 1, models.CategoryFuel, 1000)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCampaign_FrequencyLimitSkipsExhaustedCampaign(t *testing.T) {
	// GIVEN: a once-per-account campaign the account already used
	// THEN: it no longer applies

	injector := newTestInjector(t)
	serviceCampaign := do.MustInvoke[*services.ServiceCampaign](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	start, end := activeWindow()
	campaign := insertCampaign(t, injector, &models.Campaign{
		Name: "Once", Type: models.CampaignBonusPoints, BonusPoints: 100,
		StartDate: start, EndDate: end, Active: true, FrequencyLimit: 1,
	})

	got, err := serviceCampaign.FindApplicable(ctx, account.ID, 1, models.CategoryFuel, 1000)
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = datastore.InsertPumpTransaction(ctx, db, &models.PumpTransaction{
		AccountID: account.ID, PumpID: 1, Category: models.CategoryFuel,
		Amount: 1000, PointsEarned: 100, CampaignID: &campaign.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	got, err = serviceCampaign.FindApplicable(ctx, account.ID, 1, models.CategoryFuel, 1000)
	require.NoError(t, err)
	assert.Nil(t, got, "the frequency limit is spent")
}

func TestCampaign_PickBannerWithoutBanners(t *testing.T) {
	injector := newTestInjector(t)
	serviceCampaign := do.MustInvoke[*services.ServiceCampaign](injector)

	_, err := serviceCampaign.PickBanner(context.Background())
	assert.Error(t, err)
}

func TestCampaign_PickBanner(t *testing.T) {
	injector := newTestInjector(t)
	serviceCampaign := do.MustInvoke[*services.ServiceCampaign](injector)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	_, err := datastore.InsertBanner(ctx, db, &models.Banner{Title: "Only", Weight: 5, Active: true})
	require.NoError(t, err)
	_, err = datastore.InsertBanner(ctx, db, &models.Banner{Title: "Zero weight", Weight: 0, Active: true})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		banner, err := serviceCampaign.PickBanner(ctx)
		require.NoError(t, err)
		seen[banner.Title] = true
	}
	assert.True(t, seen["Only"], "the heavy banner should show up")
}
