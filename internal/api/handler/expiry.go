package handler

import (
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupExpiry struct {
	container *do.Injector
}

// Sweep runs the expiry pass on demand, outside the nightly schedule.
func (gr *groupExpiry) Sweep(c echo.Context) error {
	ctx := c.Request().Context()

	serviceExpiry, err := do.Invoke[*services.ServiceExpiry](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceExpiry.SweepAll(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}
