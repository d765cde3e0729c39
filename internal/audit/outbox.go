package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/repository"
)

const DefaultTopic = "console.audit"

// OutboxRecorder writes the event and its outbox row in one MySQL
// transaction; Debezium relays the outbox to Kafka.
type OutboxRecorder struct {
	db     *sqlx.DB
	events repository.AuditRepository
	outbox repository.OutboxRepository
	topic  string
}

func NewOutboxRecorder(db *sqlx.DB, events repository.AuditRepository, outbox repository.OutboxRepository, topic string) *OutboxRecorder {
	if topic == "" {
		topic = DefaultTopic
	}
	return &OutboxRecorder{db: db, events: events, outbox: outbox, topic: topic}
}

func (r *OutboxRecorder) Record(ctx context.Context, e model.AuditEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.events.Insert(ctx, tx, e); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	if err := r.outbox.Insert(ctx, tx, model.OutboxEvent{
		Aggregate:   model.AggregateAuditEvent,
		AggregateID: e.ID,
		Topic:       r.topic,
		Payload:     payload,
	}); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return tx.Commit()
}

// Decode parses an outbox payload as relayed to Kafka. Debezium may deliver
// the JSON column either expanded or as a JSON string.
func Decode(raw []byte) (model.AuditEvent, error) {
	var e model.AuditEvent
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return e, fmt.Errorf("decode payload string: %w", err)
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("decode audit event: %w", err)
	}
	if e.ID == "" {
		return e, fmt.Errorf("audit event without id")
	}
	return e, nil
}
