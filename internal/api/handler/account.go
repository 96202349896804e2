package handler

import (
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAccount struct {
	container *do.Injector
}

// IssueToken exchanges a loyalty identifier for a session token. The caller
// proves little here; card possession is the factor, as on the forecourt.
func (gr *groupAccount) IssueToken(c echo.Context) error {
	ctx := c.Request().Context()

	var payload struct {
		Identifier string `json:"identifier"`
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

	authentication, err := do.Invoke[*services.Authentication](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	token, err := authentication.CreateToken(account)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"token":   token,
		"account": account,
	}, nil)
}

func (gr *groupAccount) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var payload models.Account
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceAccount, err := do.Invoke[*services.ServiceAccount](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	account, err := serviceAccount.CreateAccount(ctx, &payload)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, account, nil)
}

func (gr *groupAccount) Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	serviceAccount, err := do.Invoke[*services.ServiceAccount](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	account, err := serviceAccount.Resolve(ctx, c.Param("identifier"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, account, nil)
}
