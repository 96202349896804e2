package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"
	"github.com/jrpal2001/scan2Reword-sub000/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceAccount struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceAccount(container *do.Injector) (*ServiceAccount, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceAccount{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceAccount) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.Role == "" {
		account.Role = models.RoleCustomer
	}
	if !account.Role.Valid() {
		return nil, errorx.Wrap(fmt.Errorf("unknown role %q", account.Role), errorx.Invalid)
	}
	if account.LoyaltyID == "" {
		return nil, errorx.Wrap(errors.New("loyalty id required"), errorx.Invalid)
	}

	account.Active = true
	account, err := datastore.CreateAccount(ctx, service.postgresDB, account)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return account, nil
}

// Resolve maps a scanned or typed identifier (loyalty ID, mobile, internal
// ID) to an account. Identity data changes rarely, so the lookup is cached;
// wallet reads stay fresh through the ledger service.
func (service *ServiceAccount) Resolve(ctx context.Context, identifier string) (*models.Account, error) {
	if identifier == "" {
		return nil, errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
	}

	callback := func() (*models.Account, error) {
		return datastore.FindAccountByIdentifier(ctx, service.readonlyPostgresDB, identifier)
	}

	account, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyAccountByIdentifier(identifier), CACHE_TTL_ACCOUNT, callback)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return account, nil
}

func (service *ServiceAccount) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := datastore.FindAccountByID(ctx, service.postgresDB, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrAccountNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return account, nil
}
