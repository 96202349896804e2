package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/interfaces"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/limiter"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/locking"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceRedemption struct {
	container  *do.Injector
	postgresDB *bun.DB
	locker     locking.Locker
	ledger     *ServiceLedger
	config     *ServiceConfig
	notifier   interfaces.Notifier
	limiter    interfaces.Limiter

	// CodeDigits produces the numeric part of a redemption code.
	CodeDigits func(n int) string
}

func NewServiceRedemption(container *do.Injector) (*ServiceRedemption, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	locker, err := do.Invoke[locking.Locker](container)
	if err != nil {
		return nil, err
	}

	ledger, err := do.Invoke[*ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRedemption{container, postgresDB, locker, ledger, config, notifier, rateLimiter, pkg.RandomDigits}, nil
}

func (service *ServiceRedemption) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < REDEMPTION_CODE_MAX_ATTEMPTS; attempt++ {
		code := REDEMPTION_CODE_PREFIX + service.CodeDigits(REDEMPTION_CODE_DIGITS)
		exists, err := datastore.RedemptionCodeExists(ctx, service.postgresDB, code)
		if err != nil {
			return "", errorx.Wrap(err, errorx.Service)
		}
		if !exists {
			return code, nil
		}
	}

	return "", errorx.Wrap(ErrCodeGeneration, errorx.Service)
}

func (service *ServiceRedemption) codeExpiry(ctx context.Context) time.Time {
	days, _ := service.config.GetIntConfig(ctx, CONFIG_REDEMPTION_EXPIRY_DAYS, DEFAULT_REDEMPTION_EXPIRY_DAYS)
	if days <= 0 {
		days = DEFAULT_REDEMPTION_EXPIRY_DAYS
	}
	return time.Now().AddDate(0, 0, days)
}

// RedeemFromCatalog reserves reward stock and debits the points up front, so
// a pending catalog redemption is already paid for. On any later failure the
// redemption is cancelled and both stock and points come back.
func (service *ServiceRedemption) RedeemFromCatalog(ctx context.Context, accountID int64, rewardID int64, createdBy string) (*models.Redemption, error) {
	reward, err := datastore.FindRewardByID(ctx, service.postgresDB, rewardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrRewardNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	now := time.Now()
	if !reward.Redeemable(now) {
		if reward.Availability == models.AvailabilityLimited && reward.RedeemedQuantity >= reward.TotalQuantity {
			return nil, errorx.Wrap(ErrRewardOutOfStock, errorx.Invalid)
		}
		return nil, errorx.Wrap(ErrRewardNotAvailable, errorx.Invalid)
	}

	code, err := service.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	redemption := &models.Redemption{
		AccountID:  accountID,
		RewardID:   &reward.ID,
		PointsUsed: reward.PointsRequired,
		Code:       code,
		Status:     models.RedemptionPending,
		ExpiryDate: service.codeExpiry(ctx),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	redemption, err = datastore.InsertRedemption(ctx, service.postgresDB, redemption)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	taken, err := datastore.IncrementRewardRedeemed(ctx, service.postgresDB, reward)
	if err != nil {
		service.cancel(ctx, redemption)
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if !taken {
		service.cancel(ctx, redemption)
		return nil, errorx.Wrap(ErrRewardOutOfStock, errorx.Invalid)
	}

	_, err = service.ledger.Debit(ctx, accountID, reward.PointsRequired, models.EntryDebit,
		fmt.Sprintf("Redeemed: %s", reward.Name),
		EntryOptions{RelatedRedemptionID: &redemption.ID, CreatedBy: createdBy})
	if err != nil {
		if derr := datastore.DecrementRewardRedeemed(ctx, service.postgresDB, reward.ID); derr != nil {
			log.Println("return reward stock:", reward.ID, derr)
		}
		service.cancel(ctx, redemption)
		return nil, err
	}

	return redemption, nil
}

// RedeemAtPump creates a pending redemption for an arbitrary points amount.
// Points stay in the wallet until a manager approves; only the balance is
// checked here.
func (service *ServiceRedemption) RedeemAtPump(ctx context.Context, accountID int64, points int, createdBy string) (*models.Redemption, error) {
	if points <= 0 {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Invalid)
	}

	wallet, err := service.ledger.GetWallet(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if wallet.AvailablePoints < points {
		return nil, errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
	}

	code, err := service.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	redemption := &models.Redemption{
		AccountID:  accountID,
		PointsUsed: points,
		Code:       code,
		Status:     models.RedemptionPending,
		ExpiryDate: service.codeExpiry(ctx),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	redemption, err = datastore.InsertRedemption(ctx, service.postgresDB, redemption)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return redemption, nil
}

// Approve moves a pending redemption to approved. For at-pump redemptions
// this is the moment the points actually leave the wallet. Approving twice
// fails the second time; the debit happens at most once.
func (service *ServiceRedemption) Approve(ctx context.Context, redemptionID int64, approverID int64) (*models.Redemption, error) {
	var redemption *models.Redemption
	err := service.withRedemptionLock(redemptionID, func() error {
		var err error
		redemption, err = service.findByID(ctx, redemptionID)
		if err != nil {
			return err
		}

		won, err := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemptionID, models.RedemptionPending, models.RedemptionApproved)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if !won {
			return errorx.Wrap(ErrInvalidState, errorx.Invalid)
		}

		if redemption.AtPump() {
			_, err = service.ledger.Debit(ctx, redemption.AccountID, redemption.PointsUsed, models.EntryDebit,
				"Redeemed at pump",
				EntryOptions{RelatedRedemptionID: &redemption.ID, CreatedBy: fmt.Sprintf("account:%d", approverID)})
			if err != nil {
				// give the redemption back so it can be retried or rejected
				if _, rerr := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemptionID, models.RedemptionApproved, models.RedemptionPending); rerr != nil {
					log.Println("revert redemption approval:", redemptionID, rerr)
				}
				return err
			}
		}

		redemption.Status = models.RedemptionApproved
		redemption.ApprovedBy = &approverID
		redemption, err = datastore.UpdateRedemption(ctx, service.postgresDB, redemption)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.notify(redemption.AccountID, "Redemption approved",
		fmt.Sprintf("Your redemption %s was approved.", redemption.Code))
	return redemption, nil
}

// Reject moves a pending redemption to rejected. Catalog redemptions get
// their points refunded and the reserved stock returned.
func (service *ServiceRedemption) Reject(ctx context.Context, redemptionID int64, reason string, rejectedBy int64) (*models.Redemption, error) {
	if reason == "" {
		return nil, errorx.Wrap(ErrReasonRequired, errorx.Invalid)
	}

	var redemption *models.Redemption
	err := service.withRedemptionLock(redemptionID, func() error {
		var err error
		redemption, err = service.findByID(ctx, redemptionID)
		if err != nil {
			return err
		}

		won, err := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemptionID, models.RedemptionPending, models.RedemptionRejected)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if !won {
			return errorx.Wrap(ErrInvalidState, errorx.Invalid)
		}

		if !redemption.AtPump() {
			_, err = service.ledger.Credit(ctx, redemption.AccountID, redemption.PointsUsed, models.EntryRefund,
				fmt.Sprintf("Redemption %s rejected: %s", redemption.Code, reason),
				EntryOptions{RelatedRedemptionID: &redemption.ID, CreatedBy: fmt.Sprintf("account:%d", rejectedBy)})
			if err != nil {
				if _, rerr := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemptionID, models.RedemptionRejected, models.RedemptionPending); rerr != nil {
					log.Println("revert redemption rejection:", redemptionID, rerr)
				}
				return err
			}

			if derr := datastore.DecrementRewardRedeemed(ctx, service.postgresDB, *redemption.RewardID); derr != nil {
				log.Println("return reward stock:", *redemption.RewardID, derr)
			}
		}

		redemption.Status = models.RedemptionRejected
		redemption.RejectedReason = reason
		redemption, err = datastore.UpdateRedemption(ctx, service.postgresDB, redemption)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.notify(redemption.AccountID, "Redemption rejected",
		fmt.Sprintf("Your redemption %s was rejected: %s", redemption.Code, reason))
	return redemption, nil
}

// VerifyAndUse redeems an approved code at a pump. A code past its expiry
// date is expired on the spot, whatever its current status. Lookups are rate
// limited per pump so codes cannot be brute forced from a terminal.
func (service *ServiceRedemption) VerifyAndUse(ctx context.Context, code string, pumpID int64) (*models.Redemption, error) {
	err := service.limiter.Allow(ctx, LimitKeyRedemptionVerify(pumpID), redis_rate.PerMinute(REDEMPTION_VERIFY_RATE_LIMIT_PER_MINUTE))
	if err != nil {
		if err.Error() == limiter.ErrRateLimited.Error() {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	redemption, err := datastore.FindRedemptionByCode(ctx, service.postgresDB, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrRedemptionNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	var result *models.Redemption
	err = service.withRedemptionLock(redemption.ID, func() error {
		redemption, err := service.findByID(ctx, redemption.ID)
		if err != nil {
			return err
		}

		if redemption.Status == models.RedemptionUsed {
			return errorx.Wrap(ErrAlreadyUsed, errorx.Invalid)
		}
		// a lazily expired code keeps reporting expired on later lookups
		if redemption.Status == models.RedemptionExpired {
			return errorx.Wrap(ErrCodeExpired, errorx.Invalid)
		}
		if redemption.Status.Terminal() {
			return errorx.Wrap(ErrInvalidState, errorx.Invalid)
		}

		if time.Now().After(redemption.ExpiryDate) {
			if _, terr := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemption.ID, redemption.Status, models.RedemptionExpired); terr != nil {
				log.Println("expire redemption:", redemption.ID, terr)
			}
			return errorx.Wrap(ErrCodeExpired, errorx.Invalid)
		}

		if redemption.Status != models.RedemptionApproved {
			return errorx.Wrap(ErrInvalidState, errorx.Invalid)
		}

		won, err := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemption.ID, models.RedemptionApproved, models.RedemptionUsed)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if !won {
			return errorx.Wrap(ErrAlreadyUsed, errorx.Invalid)
		}

		now := time.Now()
		redemption.Status = models.RedemptionUsed
		redemption.UsedAt = &now
		redemption.UsedAtPump = &pumpID
		result, err = datastore.UpdateRedemption(ctx, service.postgresDB, redemption)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (service *ServiceRedemption) GetByCode(ctx context.Context, code string) (*models.Redemption, error) {
	redemption, err := datastore.FindRedemptionByCode(ctx, service.postgresDB, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrRedemptionNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return redemption, nil
}

func (service *ServiceRedemption) GetHistory(ctx context.Context, accountID int64, limit, offset int) ([]models.Redemption, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	redemptions, err := datastore.GetRedemptionsByAccount(ctx, service.postgresDB, accountID, limit, offset)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return redemptions, nil
}

func (service *ServiceRedemption) findByID(ctx context.Context, id int64) (*models.Redemption, error) {
	redemption, err := datastore.FindRedemptionByID(ctx, service.postgresDB, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrRedemptionNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return redemption, nil
}

func (service *ServiceRedemption) withRedemptionLock(redemptionID int64, fn func() error) error {
	mutex := service.locker.NewMutex(LockKeyRedemption(redemptionID))
	if err := mutex.TryLock(); err != nil {
		return errorx.Wrap(ErrConcurrencyConflict, errorx.Service)
	}

	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Println("unlock redemption mutex:", redemptionID, err)
		}
	}()

	return fn()
}

func (service *ServiceRedemption) cancel(ctx context.Context, redemption *models.Redemption) {
	if _, err := datastore.TransitionRedemptionStatus(ctx, service.postgresDB, redemption.ID, models.RedemptionPending, models.RedemptionCancelled); err != nil {
		log.Println("cancel redemption:", redemption.ID, err)
	}
}

func (service *ServiceRedemption) notify(accountID int64, title, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.notifier.Notify(ctx, accountID, title, body); err != nil {
			log.Println("notify account:", accountID, err)
		}
	}()
}
