package apiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_HalfOpenTrial(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.Record(&Error{Kind: KindTransport, Err: errors.New("connection refused")})
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow(), "first trial after the cooldown")
	assert.False(t, b.Allow(), "only one trial in flight")

	b.Record(context.Canceled)
	assert.True(t, b.Allow(), "a cancelled trial frees the slot")
	b.Record(nil)
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	b.Record(&Error{Kind: KindServer, Status: 503})
	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.Record(&Error{Kind: KindServer, Status: 502})
	assert.False(t, b.Allow(), "cooldown restarts from the failed trial")

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow())
	now = now.Add(time.Minute)
	assert.True(t, b.Allow())
}

func TestBreaker_Verdicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want verdict
	}{
		{"success", nil, verdictUp},
		{"transport", &Error{Kind: KindTransport}, verdictDown},
		{"5xx", &Error{Kind: KindServer, Status: 500}, verdictDown},
		{"undecodable 2xx", &Error{Kind: KindServer, Status: 200}, verdictUp},
		{"4xx", &Error{Kind: KindValidation, Status: 422}, verdictUp},
		{"auth", &Error{Kind: KindAuth, Status: 401}, verdictUp},
		{"cancelled", context.Canceled, verdictNone},
		{"deadline", context.DeadlineExceeded, verdictNone},
		{"other", errors.New("boom"), verdictDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, verdictOf(tc.err))
		})
	}
}

func TestBreaker_ClientErrorsResetFailureCount(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	b.Record(&Error{Kind: KindServer, Status: 500})
	b.Record(&Error{Kind: KindValidation, Status: 400})
	b.Record(&Error{Kind: KindServer, Status: 500})
	assert.True(t, b.Allow(), "failures must be consecutive")

	b.Record(&Error{Kind: KindServer, Status: 500})
	assert.False(t, b.Allow())
}
