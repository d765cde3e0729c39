// Package console holds the per-session state of every admin screen and the
// operations the admin performs on them. Screens are safe for concurrent use;
// network calls run outside their locks.
package console

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/metrics"
	"github.com/ctks/admin-console/internal/validation"
)

// Env is what every screen of one console session shares.
type Env struct {
	API            *apiclient.Client
	Audit          audit.Recorder
	Log            *zap.Logger
	Notices        *Notifier
	Actor          string
	PageSize       int
	SearchDebounce time.Duration
	PricePolicy    validation.PricePolicy
}

func (e *Env) withDefaults() *Env {
	cp := *e
	if cp.Audit == nil {
		cp.Audit = audit.Nop{}
	}
	if cp.Log == nil {
		cp.Log = zap.NewNop()
	}
	if cp.Notices == nil {
		cp.Notices = NewNotifier(0)
	}
	if cp.PageSize <= 0 {
		cp.PageSize = 5
	}
	if cp.PricePolicy == "" {
		cp.PricePolicy = validation.PriceNonNegative
	}
	return &cp
}

// settle finishes a mutation: counts it, notifies the admin and, on success,
// records the audit event. It returns err unchanged.
func (e *Env) settle(ctx context.Context, entity, action, id, detail string, err error, okMsg, failMsg string) error {
	outcome := "ok"
	switch {
	case err == nil:
	case refusal(err) || isValidation(err):
		outcome = "refused"
	default:
		outcome = "failed"
	}
	metrics.WorkflowTransitionsTotal.WithLabelValues(entity, action, outcome).Inc()

	if err != nil {
		e.Notices.Error(err, failMsg)
		if outcome == "failed" {
			e.Log.Warn("admin action failed",
				zap.String("entity", entity), zap.String("action", action),
				zap.String("id", id), zap.Error(err))
		}
		return err
	}

	e.Notices.Success(okMsg)
	ev := audit.NewEvent(e.Actor, entity, action, id, detail)
	if aerr := e.Audit.Record(ctx, ev); aerr != nil {
		metrics.AuditEventsTotal.WithLabelValues("record_failed").Inc()
		e.Log.Error("record audit event", zap.String("event_id", ev.ID), zap.Error(aerr))
	} else {
		metrics.AuditEventsTotal.WithLabelValues("recorded").Inc()
	}
	return nil
}

// fetchFailed notifies about a failed list fetch; superseded fetches are silent.
func (e *Env) fetchFailed(err error, fallback string) {
	if errors.Is(err, ErrStale) || errors.Is(err, context.Canceled) {
		return
	}
	e.Log.Warn("fetch failed", zap.Error(err))
	e.Notices.Error(err, fallback)
}

func isValidation(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr)
}
