package handler

import (
	"strconv"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupWallet struct {
	container *do.Injector
}

func paging(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	return limit, page * limit
}

func (gr *groupWallet) Me(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	wallet, err := serviceLedger.GetWallet(ctx, account.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, wallet, nil)
}

func (gr *groupWallet) History(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, offset := paging(c)
	entries, err := serviceLedger.GetHistory(ctx, account.ID, limit, offset)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, entries, nil)
}

func (gr *groupWallet) Transactions(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceTransaction, err := do.Invoke[*services.ServiceTransaction](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, offset := paging(c)
	transactions, err := serviceTransaction.GetHistory(ctx, account.ID, limit, offset)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, transactions, nil)
}

func (gr *groupWallet) Redemptions(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, offset := paging(c)
	redemptions, err := serviceRedemption.GetHistory(ctx, account.ID, limit, offset)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemptions, nil)
}

// Adjust credits points manually, outside the purchase flow. Admin only; the
// signed-in admin lands in the ledger row and the audit trail.
func (gr *groupWallet) Adjust(c echo.Context) error {
	ctx := c.Request().Context()

	admin, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		AccountID int64  `json:"account_id"`
		Points    int    `json:"points"`
		Reason    string `json:"reason"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	wallet, err := serviceLedger.Credit(ctx, payload.AccountID, payload.Points, models.EntryAdjustment, payload.Reason,
		services.EntryOptions{CreatedBy: "account:" + strconv.FormatInt(admin.ID, 10)})
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	if serviceAudit, aerr := do.Invoke[*services.ServiceAudit](gr.container); aerr == nil {
		serviceAudit.Record(ctx, services.AuditEntry{
			Action:     "wallet.adjust",
			EntityType: "account",
			EntityID:   strconv.FormatInt(payload.AccountID, 10),
			ActorID:    admin.ID,
			After:      map[string]interface{}{"available_points": wallet.AvailablePoints},
			Metadata:   map[string]interface{}{"points": payload.Points, "reason": payload.Reason},
		})
	}

	return httpx.RestAbort(c, wallet, nil)
}

func (gr *groupWallet) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceLedger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	report, err := serviceLedger.Reconcile(ctx, accountID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, report, nil)
}
