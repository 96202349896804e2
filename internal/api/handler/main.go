package handler

import (
	"net/http"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "⛽")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		a := groupAccount{cfg.Container}
		routesAPIv1.POST("/auth/token", a.IssueToken)

		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.

		routesAPIv1Wallet := routesAPIv1.Group("/wallet/me")
		{
			w := groupWallet{cfg.Container}
			routesAPIv1Wallet.GET("", w.Me)
			routesAPIv1Wallet.GET("/history", w.History)
			routesAPIv1Wallet.GET("/transactions", w.Transactions)
			routesAPIv1Wallet.GET("/redemptions", w.Redemptions)
		}

		cm := groupCampaign{cfg.Container}
		routesAPIv1.GET("/campaigns/active", cm.GetActiveCampaigns)
		routesAPIv1.GET("/rewards", cm.GetActiveRewards)
		routesAPIv1.GET("/banner", cm.PickBanner)

		rd := groupRedemption{cfg.Container}
		routesAPIv1.POST("/redemptions/catalog", rd.RedeemFromCatalog)
		routesAPIv1.POST("/redemptions/pump", rd.RedeemAtPump)

		routesAPIv1Staff := routesAPIv1.Group("")
		routesAPIv1Staff.Use(RequireRole(cfg.Container, models.RoleStaff, models.RoleManager, models.RoleAdmin))
		{
			routesAPIv1Staff.POST("/accounts", a.Create)
			routesAPIv1Staff.GET("/accounts/resolve/:identifier", a.Resolve)

			t := groupTransaction{cfg.Container}
			routesAPIv1Staff.POST("/transactions", t.Record)

			routesAPIv1Staff.POST("/redemptions/verify", rd.VerifyAndUse)
			routesAPIv1Staff.GET("/redemption/code/:code", rd.GetByCode)
		}

		routesAPIv1Manager := routesAPIv1.Group("")
		routesAPIv1Manager.Use(RequireRole(cfg.Container, models.RoleManager, models.RoleAdmin))
		{
			routesAPIv1Manager.POST("/redemption/:id/approve", rd.Approve)
			routesAPIv1Manager.POST("/redemption/:id/reject", rd.Reject)
		}

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		routesAPIv1Admin.Use(RequireRole(cfg.Container, models.RoleAdmin))
		{
			w := groupWallet{cfg.Container}
			routesAPIv1Admin.POST("/adjust", w.Adjust)
			routesAPIv1Admin.GET("/reconcile/:account_id", w.Reconcile)

			routesAPIv1Admin.POST("/campaigns", cm.CreateCampaign)

			e := groupExpiry{cfg.Container}
			routesAPIv1Admin.POST("/expiry/sweep", e.Sweep)
		}
	}

	return r, nil
}
