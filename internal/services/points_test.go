package services_test

import (
	"testing"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/stretchr/testify/assert"
)

var defaultRates = services.PointsRates{FuelPerLiter: 1, PerHundred: 5}

func TestCalculateBasePoints_Fuel(t *testing.T) {
	// GIVEN: 20 liters of fuel at 1 point per liter
	// THEN: 20 points
	got := services.CalculateBasePoints(models.CategoryFuel, 1500, 20, defaultRates)
	assert.Equal(t, 20, got)
}

func TestCalculateBasePoints_FuelFractionRoundsDown(t *testing.T) {
	got := services.CalculateBasePoints(models.CategoryFuel, 1000, 12.8, defaultRates)
	assert.Equal(t, 12, got)
}

func TestCalculateBasePoints_FuelWithoutLiters(t *testing.T) {
	// A fuel purchase with no liters recorded earns nothing.
	got := services.CalculateBasePoints(models.CategoryFuel, 1500, 0, defaultRates)
	assert.Equal(t, 0, got)
}

func TestCalculateBasePoints_Lubricant(t *testing.T) {
	// GIVEN: 250 spent on lubricant at 5 points per 100
	// THEN: 12.5 rounds down to 12
	got := services.CalculateBasePoints(models.CategoryLubricant, 250, 0, defaultRates)
	assert.Equal(t, 12, got)
}

func TestCalculateBasePoints_Store(t *testing.T) {
	got := services.CalculateBasePoints(models.CategoryStore, 1000, 0, defaultRates)
	assert.Equal(t, 50, got)
}

func TestCalculateBasePoints_ZeroAmount(t *testing.T) {
	got := services.CalculateBasePoints(models.CategoryStore, 0, 0, defaultRates)
	assert.Equal(t, 0, got)
}

func TestApplyCampaign_Nil(t *testing.T) {
	assert.Equal(t, 20, services.ApplyCampaign(20, nil))
}

func TestApplyCampaign_Multiplier(t *testing.T) {
	// GIVEN: 20 base points and a x2 fuel campaign
	// THEN: 40 points
	campaign := &models.Campaign{Type: models.CampaignMultiplier, Multiplier: 2}
	assert.Equal(t, 40, services.ApplyCampaign(20, campaign))
}

func TestApplyCampaign_MultiplierRoundsDown(t *testing.T) {
	campaign := &models.Campaign{Type: models.CampaignMultiplier, Multiplier: 1.5}
	assert.Equal(t, 7, services.ApplyCampaign(5, campaign))
}

func TestApplyCampaign_BonusPoints(t *testing.T) {
	campaign := &models.Campaign{Type: models.CampaignBonusPoints, BonusPoints: 100}
	assert.Equal(t, 120, services.ApplyCampaign(20, campaign))
}

func TestApplyCampaign_BonusPercentage(t *testing.T) {
	// GIVEN: 50 base points and a +10% store campaign
	// THEN: 55 points
	campaign := &models.Campaign{Type: models.CampaignBonusPercentage, BonusPercentage: 10}
	assert.Equal(t, 55, services.ApplyCampaign(50, campaign))
}

func TestApplyCampaign_ZeroBase(t *testing.T) {
	// A purchase that earned nothing gets no campaign bonus either.
	campaign := &models.Campaign{Type: models.CampaignBonusPoints, BonusPoints: 100}
	assert.Equal(t, 0, services.ApplyCampaign(0, campaign))
}
