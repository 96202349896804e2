package services

import (
	"fmt"
	"time"
)

const (
	CONFIG_SERVER_MODE = "SERVER_MODE"

	CONFIG_POINTS_RATE_FUEL_PER_LITER = "POINTS_RATE_FUEL_PER_LITER"
	CONFIG_POINTS_RATE_PER_100        = "POINTS_RATE_PER_100"
	CONFIG_POINTS_EXPIRY_MONTHS       = "POINTS_EXPIRY_MONTHS"
	CONFIG_POINTS_EXPIRY_NOTIFY_DAYS  = "POINTS_EXPIRY_NOTIFY_DAYS"
	CONFIG_REDEMPTION_EXPIRY_DAYS     = "REDEMPTION_EXPIRY_DAYS"
	CONFIG_EXPIRY_SWEEP_CRON          = "EXPIRY_SWEEP_CRON"
	CONFIG_EXPIRY_SWEEP_ENABLED       = "EXPIRY_SWEEP_ENABLED"
)

const (
	DEFAULT_POINTS_RATE_FUEL_PER_LITER = 1.0
	DEFAULT_POINTS_RATE_PER_100        = 5.0
	DEFAULT_POINTS_EXPIRY_MONTHS       = 12
	DEFAULT_POINTS_EXPIRY_NOTIFY_DAYS  = "7,3,1"
	DEFAULT_REDEMPTION_EXPIRY_DAYS     = 30
	DEFAULT_EXPIRY_SWEEP_CRON          = "0 2 * * *"
)

const (
	CACHE_TTL_CONFIG           = 5 * time.Minute
	CACHE_TTL_ACCOUNT          = 5 * time.Minute
	CACHE_TTL_ACTIVE_CAMPAIGNS = 1 * time.Minute
	CACHE_TTL_ACTIVE_REWARDS   = 1 * time.Minute
	CACHE_TTL_ACTIVE_BANNERS   = 5 * time.Minute
)

const (
	LOCK_MAX_ATTEMPTS  = 3
	LOCK_RETRY_BACKOFF = 50 * time.Millisecond
)

const (
	REDEMPTION_CODE_PREFIX       = "RED"
	REDEMPTION_CODE_DIGITS       = 8
	REDEMPTION_CODE_MAX_ATTEMPTS = 20
)

const EXPIRY_SWEEP_BATCH_SIZE = 100

const REDEMPTION_VERIFY_RATE_LIMIT_PER_MINUTE = 30

func LockKeyAccountPoints(accountID int64) string {
	return fmt.Sprintf("lock:account-points:%d", accountID)
}

func LockKeyRedemption(redemptionID int64) string {
	return fmt.Sprintf("lock:redemption:%d", redemptionID)
}

func LimitKeyRedemptionVerify(pumpID int64) string {
	return fmt.Sprintf("limit:redemption-verify:%d", pumpID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("db:config:%s", key)
}

func DBKeyAccountByIdentifier(identifier string) string {
	return fmt.Sprintf("db:account:identifier:%s", identifier)
}

func DBKeyActiveCampaigns() string {
	return "db:campaigns:active"
}

func DBKeyActiveRewards() string {
	return "db:rewards:active"
}

func DBKeyActiveBanners() string {
	return "db:banners:active"
}
