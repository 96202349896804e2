package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type RecordTransactionInput struct {
	AccountID  int64
	PumpID     int64
	Category   models.TransactionCategory
	Amount     float64
	Liters     float64
	RecordedBy string
}

// RecordTransactionResult is what the pump terminal shows after a purchase.
type RecordTransactionResult struct {
	Transaction *models.PumpTransaction `json:"transaction"`
	Wallet      *models.WalletSummary   `json:"wallet"`
	Campaign    *models.Campaign        `json:"campaign,omitempty"`
}

type ServiceTransaction struct {
	container  *do.Injector
	postgresDB *bun.DB
	ledger     *ServiceLedger
	campaign   *ServiceCampaign
	config     *ServiceConfig
}

func NewServiceTransaction(container *do.Injector) (*ServiceTransaction, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	campaign, err := do.Invoke[*ServiceCampaign](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceTransaction{container, postgresDB, ledger, campaign, config}, nil
}

func (service *ServiceTransaction) rates(ctx context.Context) PointsRates {
	fuelPerLiter, _ := service.config.GetFloatConfig(ctx, CONFIG_POINTS_RATE_FUEL_PER_LITER, DEFAULT_POINTS_RATE_FUEL_PER_LITER)
	perHundred, _ := service.config.GetFloatConfig(ctx, CONFIG_POINTS_RATE_PER_100, DEFAULT_POINTS_RATE_PER_100)
	return PointsRates{FuelPerLiter: fuelPerLiter, PerHundred: perHundred}
}

// Record stores a pump purchase and credits the points it earns in one go.
// At most one campaign applies. A purchase that earns nothing is still
// recorded, it just writes no ledger entry.
func (service *ServiceTransaction) Record(ctx context.Context, input RecordTransactionInput) (*RecordTransactionResult, error) {
	if !input.Category.Valid() {
		return nil, errorx.Wrap(fmt.Errorf("unknown category %q", input.Category), errorx.Invalid)
	}
	if input.Amount <= 0 {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Invalid)
	}

	campaign, err := service.campaign.FindApplicable(ctx, input.AccountID, input.PumpID, input.Category, input.Amount)
	if err != nil {
		// a broken campaign lookup must not block earning
		log.Println("campaign lookup:", err)
		campaign = nil
	}

	base := CalculateBasePoints(input.Category, input.Amount, input.Liters, service.rates(ctx))
	points := ApplyCampaign(base, campaign)

	transaction := &models.PumpTransaction{
		AccountID:    input.AccountID,
		PumpID:       input.PumpID,
		Category:     input.Category,
		Amount:       input.Amount,
		Liters:       input.Liters,
		PointsEarned: points,
		RecordedBy:   input.RecordedBy,
		CreatedAt:    time.Now(),
	}
	if campaign != nil {
		transaction.CampaignID = &campaign.ID
	}

	transaction, err = datastore.InsertPumpTransaction(ctx, service.postgresDB, transaction)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	result := &RecordTransactionResult{Transaction: transaction, Campaign: campaign}
	if points <= 0 {
		wallet, err := service.ledger.GetWallet(ctx, input.AccountID)
		if err != nil {
			return nil, err
		}
		result.Wallet = wallet
		return result, nil
	}

	reason := fmt.Sprintf("Purchase at pump %d", input.PumpID)
	if campaign != nil {
		reason = fmt.Sprintf("%s (%s)", reason, campaign.Name)
	}

	wallet, err := service.ledger.Credit(ctx, input.AccountID, points, models.EntryCredit, reason,
		EntryOptions{RelatedTransactionID: &transaction.ID, CreatedBy: input.RecordedBy})
	if err != nil {
		// keep the ledger authoritative: no credit, no transaction row
		if derr := datastore.DeletePumpTransaction(ctx, service.postgresDB, transaction.ID); derr != nil {
			log.Println("roll back pump transaction:", transaction.ID, derr)
		}
		return nil, err
	}

	result.Wallet = wallet
	return result, nil
}

func (service *ServiceTransaction) GetHistory(ctx context.Context, accountID int64, limit, offset int) ([]models.PumpTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	transactions, err := datastore.GetPumpTransactionsByAccount(ctx, service.postgresDB, accountID, limit, offset)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return transactions, nil
}
