package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ctks/admin-console/internal/model"
)

// AuditRepository is the primary (MySQL) store of console audit events.
type AuditRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, ev model.AuditEvent) error
	// ListRecent is the fallback listing when ClickHouse is not configured.
	ListRecent(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error)
}

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Insert is idempotent on the event id.
func (r *auditRepository) Insert(ctx context.Context, tx *sqlx.Tx, ev model.AuditEvent) error {
	const q = `
		INSERT IGNORE INTO audit_events (id, actor, entity, action, entity_id, detail, at)
		VALUES (:id, :actor, :entity, :action, :entity_id, :detail, :at)
	`
	return withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, q, ev)
		return err
	})
}

func (r *auditRepository) ListRecent(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error) {
	q, args := f.query("SELECT id, actor, entity, action, entity_id, detail, at FROM audit_events")
	var rows []model.AuditEvent
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
