package handler

import (
	"strconv"

	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupRedemption struct {
	container *do.Injector
}

func (gr *groupRedemption) RedeemFromCatalog(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		RewardID int64 `json:"reward_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.RedeemFromCatalog(ctx, account.ID, payload.RewardID, "account:"+strconv.FormatInt(account.ID, 10))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) RedeemAtPump(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Points int `json:"points"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.RedeemAtPump(ctx, account.ID, payload.Points, "account:"+strconv.FormatInt(account.ID, 10))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) Approve(c echo.Context) error {
	ctx := c.Request().Context()

	manager, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	redemptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.Approve(ctx, redemptionID, manager.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	gr.audit(c, "redemption.approve", redemption.ID, manager.ID, map[string]interface{}{"status": redemption.Status})
	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) Reject(c echo.Context) error {
	ctx := c.Request().Context()

	manager, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	redemptionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.Reject(ctx, redemptionID, payload.Reason, manager.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	gr.audit(c, "redemption.reject", redemption.ID, manager.ID, map[string]interface{}{"status": redemption.Status, "reason": payload.Reason})
	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) VerifyAndUse(c echo.Context) error {
	ctx := c.Request().Context()

	staff, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Code   string `json:"code"`
		PumpID int64  `json:"pump_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.VerifyAndUse(ctx, payload.Code, payload.PumpID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	gr.audit(c, "redemption.use", redemption.ID, staff.ID, map[string]interface{}{"pump_id": payload.PumpID})
	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) GetByCode(c echo.Context) error {
	ctx := c.Request().Context()

	serviceRedemption, err := do.Invoke[*services.ServiceRedemption](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	redemption, err := serviceRedemption.GetByCode(ctx, c.Param("code"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, redemption, nil)
}

func (gr *groupRedemption) audit(c echo.Context, action string, redemptionID int64, actorID int64, metadata map[string]interface{}) {
	serviceAudit, err := do.Invoke[*services.ServiceAudit](gr.container)
	if err != nil {
		return
	}

	serviceAudit.Record(c.Request().Context(), services.AuditEntry{
		Action:     action,
		EntityType: "redemption",
		EntityID:   strconv.FormatInt(redemptionID, 10),
		ActorID:    actorID,
		Metadata:   metadata,
	})
}
