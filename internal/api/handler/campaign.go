package handler

import (
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupCampaign struct {
	container *do.Injector
}

func (gr *groupCampaign) GetActiveCampaigns(c echo.Context) error {
	ctx := c.Request().Context()

	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	campaigns, err := serviceCampaign.GetActiveCampaigns(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, campaigns, nil)
}

func (gr *groupCampaign) CreateCampaign(c echo.Context) error {
	ctx := c.Request().Context()

	var payload models.Campaign
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	campaign, err := serviceCampaign.CreateCampaign(ctx, &payload)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, campaign, nil)
}

func (gr *groupCampaign) GetActiveRewards(c echo.Context) error {
	ctx := c.Request().Context()

	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	rewards, err := serviceCampaign.GetActiveRewards(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, rewards, nil)
}

func (gr *groupCampaign) PickBanner(c echo.Context) error {
	ctx := c.Request().Context()

	serviceCampaign, err := do.Invoke[*services.ServiceCampaign](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	banner, err := serviceCampaign.PickBanner(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, banner, nil)
}
