package model

import "time"

// AuditEvent is one successful admin mutation made from the console. IDs are
// ULIDs so events sort by time.
type AuditEvent struct {
	ID       string    `json:"id" db:"id"`
	Actor    string    `json:"actor" db:"actor"`
	Entity   string    `json:"entity" db:"entity"`
	Action   string    `json:"action" db:"action"`
	EntityID string    `json:"entityId" db:"entity_id"`
	Detail   string    `json:"detail" db:"detail"`
	At       time.Time `json:"at" db:"at"`
}
