package redis_store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	AUDIT_QUEUE_KEY   = "audit:events"
	AUDIT_QUEUE_LIMIT = 100000
)

func dbKeyExpiryReminderSent(accountID int64, day string) string {
	return fmt.Sprintf("expiry_reminder:sent:%d:%s", accountID, day)
}

// AuditEvent is the wire shape pushed to the reporting consumer. It mirrors
// models.AuditLog but stays independent of bun tags.
type AuditEvent struct {
	ID         string                 `msgpack:"id"`
	Action     string                 `msgpack:"action"`
	EntityType string                 `msgpack:"entity_type"`
	EntityID   string                 `msgpack:"entity_id"`
	ActorID    int64                  `msgpack:"actor_id"`
	Before     map[string]interface{} `msgpack:"before,omitempty"`
	After      map[string]interface{} `msgpack:"after,omitempty"`
	Metadata   map[string]interface{} `msgpack:"metadata,omitempty"`
	CreatedAt  time.Time              `msgpack:"created_at"`
}

// PushAuditEvent enqueues an event for the downstream reporting service.
// The list is trimmed so a stalled consumer cannot grow it without bound.
func PushAuditEvent(ctx context.Context, cmd redis.Cmdable, event *AuditEvent) error {
	b, err := msgpack.Marshal(event)
	if err != nil {
		return err
	}

	err = cmd.RPush(ctx, AUDIT_QUEUE_KEY, b).Err()
	if err != nil {
		return err
	}

	return cmd.LTrim(ctx, AUDIT_QUEUE_KEY, -AUDIT_QUEUE_LIMIT, -1).Err()
}

// PopAuditEvent dequeues the oldest pending event; redis.Nil when empty.
func PopAuditEvent(ctx context.Context, cmd redis.Cmdable) (*AuditEvent, error) {
	b, err := cmd.LPop(ctx, AUDIT_QUEUE_KEY).Bytes()
	if err != nil {
		return nil, err
	}

	var event AuditEvent
	err = msgpack.Unmarshal(b, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkExpiryReminderSent records that an expiry reminder went out to the
// account for the given expiry day, so repeated cron runs do not re-notify.
// Returns false when a reminder was already sent.
func MarkExpiryReminderSent(ctx context.Context, cmd redis.Cmdable, accountID int64, expiryDay time.Time, ttl time.Duration) (bool, error) {
	day := expiryDay.UTC().Format("2006-01-02")
	return cmd.SetNX(ctx, dbKeyExpiryReminderSent(accountID, day), 1, ttl).Result()
}
