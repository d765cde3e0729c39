package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ctks/admin-console/internal/model"
)

// AuditFilter narrows an audit listing. Zero fields match everything.
type AuditFilter struct {
	Actor    string
	Entity   string
	EntityID string
	Limit    int
	Offset   int
}

func (f AuditFilter) normalized() AuditFilter {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// query appends the filter to base; both stores speak the same dialect here.
func (f AuditFilter) query(base string) (string, []any) {
	f = f.normalized()
	var (
		where []string
		args  []any
	)
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if f.Entity != "" {
		where = append(where, "entity = ?")
		args = append(args, f.Entity)
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, f.EntityID)
	}

	q := base
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)
	return q, args
}

// CHAuditRepository is the ClickHouse projection of the audit trail.
type CHAuditRepository interface {
	InsertBatch(ctx context.Context, events []model.AuditEvent) error
	List(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error)
}

type chAuditRepository struct {
	ch *sqlx.DB
}

func NewCHAuditRepository(ch *sqlx.DB) CHAuditRepository {
	return &chAuditRepository{ch: ch}
}

// InsertBatch sends events as one ClickHouse block. console_audit is a
// ReplacingMergeTree on id, so redelivered events collapse.
func (r *chAuditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO console_audit (id, actor, entity, action, entity_id, detail, at)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.ID, ev.Actor, ev.Entity, ev.Action, ev.EntityID, ev.Detail, ev.At); err != nil {
			return fmt.Errorf("append %s: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}

func (r *chAuditRepository) List(ctx context.Context, f AuditFilter) ([]model.AuditEvent, error) {
	q, args := f.query("SELECT id, actor, entity, action, entity_id, detail, at FROM console_audit FINAL")
	var rows []model.AuditEvent
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
