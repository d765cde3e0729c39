package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditFilterQuery(t *testing.T) {
	q, args := AuditFilter{}.query("SELECT * FROM console_audit")
	assert.Equal(t, "SELECT * FROM console_audit ORDER BY at DESC, id DESC LIMIT ? OFFSET ?", q)
	assert.Equal(t, []any{50, 0}, args)

	q, args = AuditFilter{Actor: "root", Entity: "vendor", Limit: 10, Offset: 20}.query("SELECT * FROM audit_events")
	assert.Equal(t, "SELECT * FROM audit_events WHERE actor = ? AND entity = ? ORDER BY at DESC, id DESC LIMIT ? OFFSET ?", q)
	assert.Equal(t, []any{"root", "vendor", 10, 20}, args)

	_, args = AuditFilter{EntityID: "V1", Limit: 9999, Offset: -4}.query("x")
	assert.Equal(t, []any{"V1", 50, 0}, args)
}
