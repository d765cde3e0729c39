package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	a := NewEvent("root", "token_request", "approve", "R123", "")
	b := NewEvent("root", "token_request", "issue", "R123", "45012345678")

	_, err := ulid.ParseStrict(a.ID)
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID, "ids sort in creation order")
	assert.Equal(t, "UTC", a.At.Location().String())
	assert.NoError(t, Nop{}.Record(context.Background(), a))
}

func TestDecode(t *testing.T) {
	ev := NewEvent("root", "vendor", "approve", "V1", "")
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.True(t, ev.At.Equal(got.At))

	quoted, err := json.Marshal(string(raw))
	require.NoError(t, err)
	got, err = Decode(quoted)
	require.NoError(t, err)
	assert.Equal(t, "vendor", got.Entity)

	_, err = Decode([]byte(`{"actor":"root"}`))
	require.Error(t, err)
	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
}
