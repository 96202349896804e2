package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/locking"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// EntryOptions carries the optional attributes of a ledger write.
type EntryOptions struct {
	// ExpiryMonths overrides the configured expiry window for credit entries.
	ExpiryMonths         int
	RelatedTransactionID *int64
	RelatedRedemptionID  *int64
	CreatedBy            string
}

type ServiceLedger struct {
	container  *do.Injector
	postgresDB *bun.DB
	locker     locking.Locker
	config     *ServiceConfig
}

func NewServiceLedger(container *do.Injector) (*ServiceLedger, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[locking.Locker](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLedger{container, postgresDB, locker, config}, nil
}

// withAccountLock serializes point-affecting writes per account. The lock is
// tried a few times with a short backoff; a caller that still cannot acquire
// it gets ErrConcurrencyConflict and is expected to retry.
func (service *ServiceLedger) withAccountLock(accountID int64, fn func() error) error {
	mutex := service.locker.NewMutex(LockKeyAccountPoints(accountID))

	var lockErr error
	for attempt := 1; attempt <= LOCK_MAX_ATTEMPTS; attempt++ {
		lockErr = mutex.TryLock()
		if lockErr == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * LOCK_RETRY_BACKOFF)
	}
	if lockErr != nil {
		return errorx.Wrap(ErrConcurrencyConflict, errorx.Service)
	}

	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Println("unlock account mutex:", accountID, err)
		}
	}()

	return fn()
}

// Credit adds points to an account. Plain credits get an expiry date; refunds
// and manual adjustments never expire. Returns the wallet after the write.
func (service *ServiceLedger) Credit(ctx context.Context, accountID int64, points int, entryType models.EntryType, reason string, opts EntryOptions) (*models.WalletSummary, error) {
	if points <= 0 {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Invalid)
	}

	switch entryType {
	case models.EntryCredit, models.EntryRefund, models.EntryAdjustment:
	default:
		return nil, errorx.Wrap(fmt.Errorf("%s is not a credit entry type", entryType), errorx.Invalid)
	}

	var expiryDate *time.Time
	if entryType == models.EntryCredit {
		months := opts.ExpiryMonths
		if months <= 0 {
			months, _ = service.config.GetIntConfig(ctx, CONFIG_POINTS_EXPIRY_MONTHS, DEFAULT_POINTS_EXPIRY_MONTHS)
		}
		t := time.Now().AddDate(0, months, 0)
		expiryDate = &t
	}

	var wallet *models.WalletSummary
	err := service.withAccountLock(accountID, func() error {
		return service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			account, err := datastore.FindAccountByID(ctx, tx, accountID)
			if errors.Is(err, sql.ErrNoRows) {
				return errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
			}
			if err != nil {
				return errorx.Wrap(err, errorx.Service)
			}

			account.AvailablePoints += points
			switch entryType {
			case models.EntryCredit, models.EntryAdjustment:
				account.TotalEarned += points
			case models.EntryRefund:
				account.RedeemedPoints -= points
			}
			account.UpdatedAt = time.Now()

			entry := &models.LedgerEntry{
				ID:                   uuid.NewString(),
				AccountID:            accountID,
				Type:                 entryType,
				Points:               points,
				BalanceAfter:         account.AvailablePoints,
				ExpiryDate:           expiryDate,
				RelatedTransactionID: opts.RelatedTransactionID,
				RelatedRedemptionID:  opts.RelatedRedemptionID,
				Reason:               reason,
				CreatedBy:            opts.CreatedBy,
				CreatedAt:            time.Now(),
			}
			if err := datastore.InsertLedgerEntry(ctx, tx, entry); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
			if err := datastore.UpdateWalletSummary(ctx, tx, account); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}

			w := account.Wallet()
			wallet = &w
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// Debit removes points from an account, failing when the available balance
// does not cover the full amount. Partial debits never happen.
func (service *ServiceLedger) Debit(ctx context.Context, accountID int64, points int, entryType models.EntryType, reason string, opts EntryOptions) (*models.WalletSummary, error) {
	if points <= 0 {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Invalid)
	}

	switch entryType {
	case models.EntryDebit, models.EntryExpiry:
	default:
		return nil, errorx.Wrap(fmt.Errorf("%s is not a debit entry type", entryType), errorx.Invalid)
	}

	var wallet *models.WalletSummary
	err := service.withAccountLock(accountID, func() error {
		return service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			account, err := datastore.FindAccountByID(ctx, tx, accountID)
			if errors.Is(err, sql.ErrNoRows) {
				return errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
			}
			if err != nil {
				return errorx.Wrap(err, errorx.Service)
			}

			if account.AvailablePoints < points {
				return errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
			}

			account.AvailablePoints -= points
			switch entryType {
			case models.EntryDebit:
				account.RedeemedPoints += points
			case models.EntryExpiry:
				account.ExpiredPoints += points
			}
			account.UpdatedAt = time.Now()

			entry := &models.LedgerEntry{
				ID:                   uuid.NewString(),
				AccountID:            accountID,
				Type:                 entryType,
				Points:               -points,
				BalanceAfter:         account.AvailablePoints,
				RelatedTransactionID: opts.RelatedTransactionID,
				RelatedRedemptionID:  opts.RelatedRedemptionID,
				Reason:               reason,
				CreatedBy:            opts.CreatedBy,
				CreatedAt:            time.Now(),
			}
			if err := datastore.InsertLedgerEntry(ctx, tx, entry); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
			if err := datastore.UpdateWalletSummary(ctx, tx, account); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}

			w := account.Wallet()
			wallet = &w
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetWallet reads the wallet summary. It always hits the primary to avoid
// replica lag right after a write.
func (service *ServiceLedger) GetWallet(ctx context.Context, accountID int64) (*models.WalletSummary, error) {
	account, err := datastore.FindAccountByID(ctx, service.postgresDB, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	wallet := account.Wallet()
	return &wallet, nil
}

func (service *ServiceLedger) GetHistory(ctx context.Context, accountID int64, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := datastore.GetLedgerEntries(ctx, service.postgresDB, accountID, limit, offset)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return entries, nil
}

// ReconcileReport compares the denormalized wallet against the ledger sum.
type ReconcileReport struct {
	AccountID       int64 `json:"account_id"`
	AvailablePoints int   `json:"available_points"`
	LedgerSum       int   `json:"ledger_sum"`
	Consistent      bool  `json:"consistent"`
}

func (service *ServiceLedger) Reconcile(ctx context.Context, accountID int64) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := service.withAccountLock(accountID, func() error {
		account, err := datastore.FindAccountByID(ctx, service.postgresDB, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
		}
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		sum, err := datastore.SumLedgerPoints(ctx, service.postgresDB, accountID)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		report = &ReconcileReport{
			AccountID:       accountID,
			AvailablePoints: account.AvailablePoints,
			LedgerSum:       sum,
			Consistent:      account.AvailablePoints == sum,
		}
		if !report.Consistent {
			log.Println("wallet drift detected, account:", accountID, "wallet:", account.AvailablePoints, "ledger:", sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
