package services_test

import (
	"context"
	"strings"
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

func insertReward(t *testing.T, injector *do.Injector, reward *models.Reward) *models.Reward {
	t.Helper()

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	reward, err := datastore.InsertReward(context.Background(), db, reward)
	require.NoError(t, err)
	return reward
}

func creditAccount(t *testing.T, injector *do.Injector, accountID int64, points int) {
	t.Helper()

	ledger := do.MustInvoke[*services.ServiceLedger](injector)
	_, err := ledger.Credit(context.Background(), accountID, points, models.EntryCredit, "seed", services.EntryOptions{})
	require.NoError(t, err)
}

func TestRedemption_FromCatalogDebitsUpFront(t *testing.T) {
	// GIVEN: 1000 points and a 500-point reward
	// WHEN: redeeming from the catalog
	// THEN: a pending redemption with a code exists, the points are gone
	// and the stock is reserved

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	ledger := do.MustInvoke[*services.ServiceLedger](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 1000)
	reward := insertReward(t, injector, &models.Reward{
		Name: "Car Wash", PointsRequired: 500,
		Availability: models.AvailabilityLimited, TotalQuantity: 10, Active: true,
	})

	redemption, err := serviceRedemption.RedeemFromCatalog(ctx, account.ID, reward.ID, "account:1")
	require.NoError(t, err)

	assert.Equal(t, models.RedemptionPending, redemption.Status)
	assert.Equal(t, 500, redemption.PointsUsed)
	assert.True(t, strings.HasPrefix(redemption.Code, "RED"))
	assert.False(t, redemption.AtPump())

	wallet, err := ledger.GetWallet(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, wallet.AvailablePoints)
	assert.Equal(t, 500, wallet.RedeemedPoints)

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	reward, err = datastore.FindRewardByID(ctx, db, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reward.RedeemedQuantity)
}

func TestRedemption_FromCatalogInsufficientBalance(t *testing.T) {
	// WHEN: the account cannot afford the reward
	// THEN: the redemption is cancelled and the reserved stock comes back

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 100)
	reward := insertReward(t, injector, &models.Reward{
		Name: "Oil", PointsRequired: 500,
		Availability: models.AvailabilityLimited, TotalQuantity: 10, Active: true,
	})

	_, err := serviceRedemption.RedeemFromCatalog(ctx, account.ID, reward.ID, "account:1")
	assert.Error(t, err)

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	reward, err = datastore.FindRewardByID(ctx, db, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reward.RedeemedQuantity, "the reserved stock must be returned")

	redemptions, err := datastore.GetRedemptionsByAccount(ctx, db, account.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, models.RedemptionCancelled, redemptions[0].Status)
}

func TestRedemption_FromCatalogOutOfStock(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	first := newTestAccount(t, injector, models.RoleCustomer)
	second := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()

	creditAccount(t, injector, first.ID, 1000)
	creditAccount(t, injector, second.ID, 1000)
	reward := insertReward(t, injector, &models.Reward{
		Name: "Last One", PointsRequired: 500,
		Availability: models.AvailabilityLimited, TotalQuantity: 1, Active: true,
	})

	_, err := serviceRedemption.RedeemFromCatalog(ctx, first.ID, reward.ID, "account:1")
	require.NoError(t, err)

	_, err = serviceRedemption.RedeemFromCatalog(ctx, second.ID, reward.ID, "account:2")
	assert.Error(t, err, "the second redemption must fail on stock")
}

func TestRedemption_AtPumpKeepsPointsUntilApproval(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	ledger := do.MustInvoke[*services.ServiceLedger](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	manager := newTestAccount(t, injector, models.RoleManager)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 1000)

	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 300, "account:1")
	require.NoError(t, err)
	assert.True(t, redemption.AtPump())
	assert.Equal(t, models.RedemptionPending, redemption.Status)

	wallet, err := ledger.GetWallet(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, wallet.AvailablePoints, "no debit before approval")

	redemption, err = serviceRedemption.Approve(ctx, redemption.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, redemption.Status)
	require.NotNil(t, redemption.ApprovedBy)
	assert.Equal(t, manager.ID, *redemption.ApprovedBy)

	wallet, err = ledger.GetWallet(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 700, wallet.AvailablePoints, "approval debits the points")
}

func TestRedemption_AtPumpRequiresBalance(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)

	creditAccount(t, injector, account.ID, 100)

	_, err := serviceRedemption.RedeemAtPump(context.Background(), account.ID, 300, "account:1")
	assert.Error(t, err)
}

func TestRedemption_ApproveTwiceFails(t *testing.T) {
	// The second approval must not debit again.

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	ledger := do.MustInvoke[*services.ServiceLedger](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	manager := newTestAccount(t, injector, models.RoleManager)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 1000)
	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 300, "account:1")
	require.NoError(t, err)

	_, err = serviceRedemption.Approve(ctx, redemption.ID, manager.ID)
	require.NoError(t, err)

	_, err = serviceRedemption.Approve(ctx, redemption.ID, manager.ID)
	assert.Error(t, err)

	wallet, err := ledger.GetWallet(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 700, wallet.AvailablePoints, "only one debit")
}

func TestRedemption_RejectRefundsCatalogRedemption(t *testing.T) {
	// GIVEN: a pending catalog redemption, already paid for
	// WHEN: a manager rejects it
	// THEN: points and stock both come back

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	ledger := do.MustInvoke[*services.ServiceLedger](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	manager := newTestAccount(t, injector, models.RoleManager)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 1000)
	reward := insertReward(t, injector, &models.Reward{
		Name: "Car Wash", PointsRequired: 500,
		Availability: models.AvailabilityLimited, TotalQuantity: 10, Active: true,
	})

	redemption, err := serviceRedemption.RedeemFromCatalog(ctx, account.ID, reward.ID, "account:1")
	require.NoError(t, err)

	redemption, err = serviceRedemption.Reject(ctx, redemption.ID, "out of vouchers", manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionRejected, redemption.Status)
	assert.Equal(t, "out of vouchers", redemption.RejectedReason)

	wallet, err := ledger.GetWallet(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, wallet.AvailablePoints)
	assert.Equal(t, 0, wallet.RedeemedPoints)

	db := do.MustInvokeNamed[*bun.DB](injector, "db")
	reward, err = datastore.FindRewardByID(ctx, db, reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reward.RedeemedQuantity)
}

func TestRedemption_RejectRequiresReason(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	manager := newTestAccount(t, injector, models.RoleManager)

	_, err := serviceRedemption.Reject(context.Background(), 1, "", manager.ID)
	assert.Error(t, err)
}

func TestRedemption_VerifyAndUse(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	manager := newTestAccount(t, injector, models.RoleManager)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 1000)
	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 300, "account:1")
	require.NoError(t, err)

	// a pending code cannot be used yet
	_, err = serviceRedemption.VerifyAndUse(ctx, redemption.Code, 7)
	assert.Error(t, err)

	_, err = serviceRedemption.Approve(ctx, redemption.ID, manager.ID)
	require.NoError(t, err)

	used, err := serviceRedemption.VerifyAndUse(ctx, redemption.Code, 7)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionUsed, used.Status)
	require.NotNil(t, used.UsedAt)
	require.NotNil(t, used.UsedAtPump)
	assert.Equal(t, int64(7), *used.UsedAtPump)

	// and never twice
	_, err = serviceRedemption.VerifyAndUse(ctx, redemption.Code, 7)
	assert.Error(t, err)
}

func TestRedemption_VerifyUnknownCode(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)

	_, err := serviceRedemption.VerifyAndUse(context.Background(), "RED00000000", 1)
	assert.Error(t, err)
}

func TestRedemption_VerifyExpiredCode(t *testing.T) {
	// GIVEN: an approved code past its expiry date
	// WHEN: verifying it
	// THEN: the code is rejected and flipped to expired

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	manager := newTestAccount(t, injector, models.RoleManager)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	creditAccount(t, injector, account.ID, 1000)
	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 300, "account:1")
	require.NoError(t, err)
	_, err = serviceRedemption.Approve(ctx, redemption.ID, manager.ID)
	require.NoError(t, err)

	_, err = db.NewUpdate().Model((*models.Redemption)(nil)).
		Set("expiry_date = ?", time.Now().Add(-time.Hour)).
		Where("id = ?", redemption.ID).
		Exec(ctx)
	require.NoError(t, err)

	_, err = serviceRedemption.VerifyAndUse(ctx, redemption.Code, 1)
	assert.ErrorContains(t, err, services.ErrCodeExpired.Error())

	redemption, err = datastore.FindRedemptionByID(ctx, db, redemption.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionExpired, redemption.Status)

	// presenting the code again reports expired, not a generic state error
	_, err = serviceRedemption.VerifyAndUse(ctx, redemption.Code, 1)
	assert.ErrorContains(t, err, services.ErrCodeExpired.Error())
}

func TestRedemption_CodeExistsLookup(t *testing.T) {
	// The generator leans on this check to avoid handing out a code twice.

	injector := newTestInjector(t)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	_, err := datastore.InsertRedemption(ctx, db, &models.Redemption{
		AccountID:  account.ID,
		PointsUsed: 100,
		Code:       "RED12345678",
		Status:     models.RedemptionPending,
		ExpiryDate: time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	exists, err := datastore.RedemptionCodeExists(ctx, db, "RED12345678")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = datastore.RedemptionCodeExists(ctx, db, "RED00000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedemption_CodeGenerationRetriesOnCollision(t *testing.T) {
	// GIVEN: the first candidate code is already taken
	// WHEN: redeeming
	// THEN: the generator retries and hands out the next candidate

	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	creditAccount(t, injector, account.ID, 1000)
	_, err := datastore.InsertRedemption(ctx, db, &models.Redemption{
		AccountID:  account.ID,
		PointsUsed: 100,
		Code:       "RED11111111",
		Status:     models.RedemptionPending,
		ExpiryDate: time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	calls := 0
	serviceRedemption.CodeDigits = func(n int) string {
		calls++
		if calls == 1 {
			return "11111111"
		}
		return "22222222"
	}

	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 100, "account:1")
	require.NoError(t, err)
	assert.Equal(t, "RED22222222", redemption.Code)
	assert.Equal(t, 2, calls, "one collision, one retry")
}

func TestRedemption_CodeGenerationGivesUpOnPersistentCollision(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()
	db := do.MustInvokeNamed[*bun.DB](injector, "db")

	creditAccount(t, injector, account.ID, 1000)
	_, err := datastore.InsertRedemption(ctx, db, &models.Redemption{
		AccountID:  account.ID,
		PointsUsed: 100,
		Code:       "RED11111111",
		Status:     models.RedemptionPending,
		ExpiryDate: time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	calls := 0
	serviceRedemption.CodeDigits = func(n int) string {
		calls++
		return "11111111"
	}

	_, err = serviceRedemption.RedeemAtPump(ctx, account.ID, 100, "account:1")
	assert.Error(t, err)
	assert.Equal(t, services.REDEMPTION_CODE_MAX_ATTEMPTS, calls, "the generator must give up eventually")

	redemptions, err := datastore.GetRedemptionsByAccount(ctx, db, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, redemptions, 1, "no second redemption was created")
}

func TestRedemption_CodesAreUnique(t *testing.T) {
	injector := newTestInjector(t)
	serviceRedemption := do.MustInvoke[*services.ServiceRedemption](injector)
	account := newTestAccount(t, injector, models.RoleCustomer)
	ctx := context.Background()

	creditAccount(t, injector, account.ID, 10000)

	codes := map[string]bool{}
	for i := 0; i < 20; i++ {
		redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, 10, "account:1")
		require.NoError(t, err)
		assert.False(t, codes[redemption.Code], "codes must not repeat")
		codes[redemption.Code] = true
	}
}
