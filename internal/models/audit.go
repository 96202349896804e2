package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditLog records before/after state of a core operation. Writes are
// best-effort: a failed audit insert never rolls back the operation itself.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            string                 `bun:"id,pk" json:"id"`
	Action        string                 `bun:"action" json:"action"`
	EntityType    string                 `bun:"entity_type" json:"entity_type"`
	EntityID      string                 `bun:"entity_id" json:"entity_id"`
	ActorID       int64                  `bun:"actor_id" json:"actor_id"`
	Before        map[string]interface{} `bun:"before,type:jsonb" json:"before,omitempty"`
	After         map[string]interface{} `bun:"after,type:jsonb" json:"after,omitempty"`
	Metadata      map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time              `bun:"created_at,default:current_timestamp" json:"created_at"`
}
