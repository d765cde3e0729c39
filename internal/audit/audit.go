// Package audit records successful admin mutations made from the console.
package audit

import (
	"context"
	"time"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/util"
)

func NewEvent(actor, entity, action, entityID, detail string) model.AuditEvent {
	return model.AuditEvent{
		ID:       util.NewID(),
		Actor:    actor,
		Entity:   entity,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
		At:       time.Now().UTC(),
	}
}

type Recorder interface {
	Record(ctx context.Context, e model.AuditEvent) error
}

// Nop drops every event; used when audit is disabled.
type Nop struct{}

func (Nop) Record(context.Context, model.AuditEvent) error { return nil }
