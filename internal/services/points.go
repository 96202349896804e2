package services

import (
	"math"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
)

// PointsRates holds the earn rates used by the base calculation.
type PointsRates struct {
	FuelPerLiter float64
	PerHundred   float64
}

// CalculateBasePoints computes points before any campaign is applied.
// Fuel earns per liter, every other category earns per 100 currency units.
// Fractions always round down.
func CalculateBasePoints(category models.TransactionCategory, amount float64, liters float64, rates PointsRates) int {
	if category == models.CategoryFuel {
		if liters <= 0 {
			return 0
		}
		return int(math.Floor(liters * rates.FuelPerLiter))
	}

	if amount <= 0 {
		return 0
	}
	return int(math.Floor(amount / 100 * rates.PerHundred))
}

// ApplyCampaign applies at most one campaign on top of the base points.
func ApplyCampaign(base int, campaign *models.Campaign) int {
	if campaign == nil || base <= 0 {
		return base
	}

	switch campaign.Type {
	case models.CampaignMultiplier:
		return int(math.Floor(float64(base) * campaign.Multiplier))
	case models.CampaignBonusPoints:
		return base + campaign.BonusPoints
	case models.CampaignBonusPercentage:
		return base + base*campaign.BonusPercentage/100
	}

	return base
}
