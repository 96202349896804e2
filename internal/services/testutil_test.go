package services_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/interfaces"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/caching"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/locking"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var (
	dbSeq      int64
	accountSeq int64
)

// allowAllLimiter stands in for the redis-backed rate limiter.
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	return nil
}

// recordingNotifier captures notifications instead of calling a webhook.
// Notifications are sent from goroutines, hence the mutex.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, accountID int64, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, fmt.Sprintf("%d:%s", accountID, title))
	return nil
}

func (n *recordingNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func newTestInjector(t *testing.T) *do.Injector {
	t.Helper()

	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, datastore.CreateTableAccount(ctx, db))
	require.NoError(t, datastore.CreateTableLedgerEntry(ctx, db))
	require.NoError(t, datastore.CreateTablePumpTransaction(ctx, db))
	require.NoError(t, datastore.CreateTableReward(ctx, db))
	require.NoError(t, datastore.CreateTableRedemption(ctx, db))
	require.NoError(t, datastore.CreateTableCampaign(ctx, db))
	require.NoError(t, datastore.CreateTableBanner(ctx, db))
	require.NoError(t, datastore.CreateTableAuditLog(ctx, db))
	require.NoError(t, datastore.CreateTableConfig(ctx, db))

	injector := do.New()
	do.ProvideNamedValue[*bun.DB](injector, "db", db)
	do.ProvideNamedValue[*bun.DB](injector, "db-readonly", db)

	cache := caching.NewCacheMemory()
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[caching.ReadOnlyCache](injector, cache)

	do.ProvideValue[locking.Locker](injector, locking.NewLocalLocker())
	do.ProvideValue[interfaces.Limiter](injector, allowAllLimiter{})
	notifier := &recordingNotifier{}
	do.ProvideValue[interfaces.Notifier](injector, notifier)
	do.ProvideValue(injector, notifier)

	do.Provide(injector, services.NewServiceConfig)
	do.Provide(injector, services.NewServiceAccount)
	do.Provide(injector, services.NewServiceLedger)
	do.Provide(injector, services.NewServiceCampaign)
	do.Provide(injector, services.NewServiceTransaction)
	do.Provide(injector, services.NewServiceRedemption)
	do.Provide(injector, services.NewServiceExpiry)

	return injector
}

func newTestAccount(t *testing.T, injector *do.Injector, role models.AccountRole) *models.Account {
	t.Helper()

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	n := atomic.AddInt64(&accountSeq, 1)
	account, err := datastore.CreateAccount(context.Background(), db, &models.Account{
		LoyaltyID: fmt.Sprintf("LOY%08d", n),
		Mobile:    fmt.Sprintf("+1555%07d", n),
		Name:      "Test Account",
		Role:      role,
		Active:    true,
	})
	require.NoError(t, err)
	return account
}

func setConfig(t *testing.T, injector *do.Injector, key, value string) {
	t.Helper()

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	require.NoError(t, datastore.InsertConfig(context.Background(), db, models.Config{Key: key, Value: value}))
}
