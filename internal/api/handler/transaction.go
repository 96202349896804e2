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

type groupTransaction struct {
	container *do.Injector
}

// Record registers a pump purchase for a customer. The customer is addressed
// by any identifier the attendant can scan or type.
func (gr *groupTransaction) Record(c echo.Context) error {
	ctx := c.Request().Context()

	staff, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Identifier string  `json:"identifier"`
		PumpID     int64   `json:"pump_id"`
		Category   string  `json:"category"`
		Amount     float64 `json:"amount"`
		Liters     float64 `json:"liters"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceAccount, err := do.Invoke[*services.ServiceAccount](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	account, err := serviceAccount.Resolve(ctx, payload.Identifier)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceTransaction, err := do.Invoke[*services.ServiceTransaction](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceTransaction.Record(ctx, services.RecordTransactionInput{
		AccountID:  account.ID,
		PumpID:     payload.PumpID,
		Category:   models.TransactionCategory(payload.Category),
		Amount:     payload.Amount,
		Liters:     payload.Liters,
		RecordedBy: "account:" + strconv.FormatInt(staff.ID, 10),
	})
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}
