package datastore

import (
	"context"

	"github.com/jrpal2001/scan2Reword-sub000/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAuditLog(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.AuditLog)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.AuditLog)(nil)).Index("index_audit_log_entity").IfNotExists().Column("entity_type", "entity_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertAuditLog(ctx context.Context, db bun.IDB, entry *models.AuditLog) error {
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	return err
}
