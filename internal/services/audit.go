package services

import (
	"context"
	"log"
	"time"

	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore"
	"github.com/jrpal2001/scan2Reword-sub000/internal/datastore/redis_store"
	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// AuditEntry is the caller-facing shape of one audit record.
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    int64
	Before     map[string]interface{}
	After      map[string]interface{}
	Metadata   map[string]interface{}
}

type ServiceAudit struct {
	container  *do.Injector
	postgresDB *bun.DB
	redisDB    redis.UniversalClient
}

func NewServiceAudit(container *do.Injector) (*ServiceAudit, error) {
	postgresDB, err := do.InvokeNamed[*bun.DB](container, "db")
	if err != nil {
		return nil, err
	}

	// the queue for the reporting consumer is optional
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		redisDB = nil
	}

	return &ServiceAudit{container, postgresDB, redisDB}, nil
}

// Record writes the audit row and pushes the event to the reporting queue.
// Both writes are best-effort: auditing never fails the audited operation.
func (service *ServiceAudit) Record(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		ID:         uuid.NewString(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		Before:     entry.Before,
		After:      entry.After,
		Metadata:   entry.Metadata,
		CreatedAt:  time.Now(),
	}

	if err := datastore.InsertAuditLog(ctx, service.postgresDB, row); err != nil {
		log.Println("audit insert:", entry.Action, err)
	}

	if service.redisDB == nil {
		return
	}

	event := &redis_store.AuditEvent{
		ID:         row.ID,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		ActorID:    row.ActorID,
		Before:     row.Before,
		After:      row.After,
		Metadata:   row.Metadata,
		CreatedAt:  row.CreatedAt,
	}
	if err := redis_store.PushAuditEvent(ctx, service.redisDB, event); err != nil {
		log.Println("audit enqueue:", entry.Action, err)
	}
}
