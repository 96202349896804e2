package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthClaims ctxKey = "AUTH_CLAIMS"

func Authn(verifier interface {
	Validate(token string) (*services.CustomClaims, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			claims, err := verifier.Validate(token)
			if err != nil {
				// although it's a client error, we don't want to leak details
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthClaims, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidAccount(ctx context.Context, container *do.Injector) (*models.Account, error) {
	claims, ok := ctx.Value(ctxKeyAuthClaims).(*services.CustomClaims)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	serviceAccount, err := do.Invoke[*services.ServiceAccount](container)
	if err != nil {
		return nil, err
	}

	return serviceAccount.GetByID(ctx, claims.AccountID)
}

// RequireRole terminates requests whose session does not carry one of the
// given roles. It relies on Authn having run first.
func RequireRole(container *do.Injector, roles ...models.AccountRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Request().Context().Value(ctxKeyAuthClaims).(*services.CustomClaims)
			if !ok {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("missing session"), errorx.Authn), -1)
				return nil
			}

			for _, role := range roles {
				if claims.Role == string(role) {
					return next(c)
				}
			}

			//nolint:errcheck
			httpx.Abort(c, errorx.Wrap(errors.New("insufficient role"), errorx.Authn), -1)
			return nil
		}
	}
}
