package interfaces

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Notifier delivers a message to an account. Calls are fire-and-forget: the
// ledger operation that triggered the notification never waits on it and
// never rolls back when it fails.
type Notifier interface {
	Notify(ctx context.Context, accountID int64, title, body string) error
}
