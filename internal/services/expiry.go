package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore/redis_store"
	"github.com/jrpal2001/scan2Reword-sub000/internal/interfaces"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceExpiry struct {
	container  *do.Injector
	postgresDB *bun.DB
	redisDB    redis.UniversalClient
	ledger     *ServiceLedger
	config     *ServiceConfig
	notifier   interfaces.Notifier
}

func NewServiceExpiry(container *do.Injector) (*ServiceExpiry, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	// reminders degrade to best-effort without redis
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		redisDB = nil
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

	return &ServiceExpiry{container, postgresDB, redisDB, ledger, config, notifier}, nil
}

// SweepResult aggregates one sweep run for logging and the admin endpoint.
type SweepResult struct {
	AccountsSwept  int `json:"accounts_swept"`
	EntriesExpired int `json:"entries_expired"`
	PointsExpired  int `json:"points_expired"`
	Failures       int `json:"failures"`
}

// SweepAccount expires the account's overdue credits oldest first. Each entry
// becomes its own expiry debit, so the ledger keeps one row per expired
// credit. The sweep stops at the first entry the balance cannot cover:
// expiring a newer credit past an uncovered older one would break the FIFO
// order.
func (service *ServiceExpiry) SweepAccount(ctx context.Context, accountID int64) (*SweepResult, error) {
	entries, err := datastore.GetExpirableCredits(ctx, service.postgresDB, accountID, time.Now())
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	result := &SweepResult{}
	if len(entries) == 0 {
		return result, nil
	}

	wallet, err := service.ledger.GetWallet(ctx, accountID)
	if err != nil {
		return nil, err
	}

	available := wallet.AvailablePoints
	for _, entry := range entries {
		if available < entry.Points {
			log.Println("expiry sweep halted, balance below expirable credit, account:", accountID, "entry:", entry.ID)
			break
		}

		wallet, err := service.ledger.Debit(ctx, accountID, entry.Points, models.EntryExpiry,
			fmt.Sprintf("Points expired (earned %s)", entry.CreatedAt.Format("2006-01-02")),
			EntryOptions{CreatedBy: "expiry-sweeper"})
		if err != nil {
			return result, err
		}
		available = wallet.AvailablePoints

		if err := datastore.MarkEntryConsumed(ctx, service.postgresDB, entry.ID, time.Now()); err != nil {
			return result, errorx.Wrap(err, errorx.Service)
		}

		result.EntriesExpired++
		result.PointsExpired += entry.Points
	}

	if result.PointsExpired > 0 {
		result.AccountsSwept = 1
		service.notify(accountID, "Points expired",
			fmt.Sprintf("%d points expired from your wallet.", result.PointsExpired))
	}

	return result, nil
}

// SweepAll walks every active account in batches. A failing account is
// logged and counted; the sweep carries on.
func (service *ServiceExpiry) SweepAll(ctx context.Context) (*SweepResult, error) {
	total := &SweepResult{}
	offset := 0
	for {
		ids, err := datastore.GetActiveAccountIDs(ctx, service.postgresDB, EXPIRY_SWEEP_BATCH_SIZE, offset)
		if err != nil {
			return total, errorx.Wrap(err, errorx.Service)
		}
		if len(ids) == 0 {
			break
		}

		for _, accountID := range ids {
			result, err := service.SweepAccount(ctx, accountID)
			if err != nil {
				log.Println("expiry sweep failed, account:", accountID, err)
				total.Failures++
				continue
			}
			total.AccountsSwept += result.AccountsSwept
			total.EntriesExpired += result.EntriesExpired
			total.PointsExpired += result.PointsExpired
		}

		offset += EXPIRY_SWEEP_BATCH_SIZE
	}

	log.Println("expiry sweep done, accounts:", total.AccountsSwept, "entries:", total.EntriesExpired, "points:", total.PointsExpired, "failures:", total.Failures)
	return total, nil
}

// SendReminders notifies accounts whose credits expire N days out, for each
// configured N. Redis dedupes so a rerun of the job stays quiet.
func (service *ServiceExpiry) SendReminders(ctx context.Context) error {
	days, _ := service.config.GetIntsConfig(ctx, CONFIG_POINTS_EXPIRY_NOTIFY_DAYS, []int{7, 3, 1})

	now := time.Now()
	for _, n := range days {
		day := now.AddDate(0, 0, n)
		entries, err := datastore.GetCreditsExpiringOn(ctx, service.postgresDB, day)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		points := map[int64]int{}
		for _, entry := range entries {
			points[entry.AccountID] += entry.Points
		}

		for accountID, total := range points {
			if service.redisDB != nil {
				first, err := redis_store.MarkExpiryReminderSent(ctx, service.redisDB, accountID, day, time.Duration(n+1)*24*time.Hour)
				if err != nil {
					log.Println("mark expiry reminder:", accountID, err)
				} else if !first {
					continue
				}
			}

			service.notify(accountID, "Points expiring soon",
				fmt.Sprintf("%d points expire on %s. Use them before they are gone.", total, day.Format("2006-01-02")))
		}
	}

	return nil
}

func (service *ServiceExpiry) notify(accountID int64, title, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.notifier.Notify(ctx, accountID, title, body); err != nil {
			log.Println("notify account:", accountID, err)
		}
	}()
}
