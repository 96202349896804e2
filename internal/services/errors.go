package services

import "errors"

var (
	ErrInvalidAmount       = errors.New("points amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrRedemptionNotFound  = errors.New("redemption not found")
	ErrRewardNotAvailable  = errors.New("reward is not available")
	ErrRewardOutOfStock    = errors.New("reward is out of stock")
	ErrInvalidState        = errors.New("redemption is not in an eligible state")
	ErrAlreadyUsed         = errors.New("redemption code already used")
	ErrCodeExpired         = errors.New("redemption code expired")
	ErrReasonRequired      = errors.New("rejection reason required")
	ErrCodeGeneration      = errors.New("could not generate a unique redemption code")
	ErrConcurrencyConflict = errors.New("wallet is busy, please retry")
)

var (
	errInvalidCampaignWindow = errors.New("campaign end date before start date")
	errNoActiveBanner        = errors.New("no active banner")
)
