package model

import "time"

const AggregateAuditEvent = "audit_event"

// OutboxEvent is a row of the transactional outbox. Debezium's outbox router
// publishes Payload to the Kafka topic named by Topic.
type OutboxEvent struct {
	ID          int64     `db:"id"`
	Aggregate   string    `db:"aggregate"`
	AggregateID string    `db:"aggregate_id"`
	Topic       string    `db:"topic"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}
