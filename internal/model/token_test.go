package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatus_Transitions(t *testing.T) {
	cases := []struct {
		status  RequestStatus
		approve bool
		reject  bool
		issue   bool
	}{
		{RequestPending, true, true, false},
		{RequestApproved, false, true, true},
		{RequestCompleted, false, false, false},
		{RequestRejected, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.status.String(), func(t *testing.T) {
			assert.Equal(t, tc.approve, tc.status.CanApprove())
			assert.Equal(t, tc.reject, tc.status.CanReject())
			assert.Equal(t, tc.issue, tc.status.CanIssue())
		})
	}
}

func TestRequestStatus_Actions(t *testing.T) {
	assert.Equal(t, []RowAction{ActionApprove, ActionReject}, RequestPending.Actions())
	assert.Equal(t, []RowAction{ActionIssueToken, ActionReject}, RequestApproved.Actions())
	assert.Empty(t, RequestCompleted.Actions())
	assert.Equal(t, "ISSUED", RequestCompleted.Badge())
	assert.Equal(t, "REJECTED", RequestRejected.Badge())
}

func TestTokenStatus_CanReissue(t *testing.T) {
	assert.True(t, TokenIssued.CanReissue())
	for _, s := range []TokenStatus{TokenUsed, TokenExpired, TokenReplaced} {
		assert.False(t, s.CanReissue(), s)
	}
}

func TestVerification_State(t *testing.T) {
	assert.Equal(t, VerificationPending, Verification{}.State())
	assert.Equal(t, VerificationVerified, Verification{IsVerified: true}.State())
	assert.Equal(t, VerificationRejected, Verification{Rejected: true}.State())
	assert.Equal(t, VerificationRejected, Verification{IsVerified: true, Rejected: true}.State())
}

func TestTokenRequest_DecodeWire(t *testing.T) {
	raw := `{"_id":"R123","vendorId":{"_id":"V1","name":"Acme"},"meterNumber":"45010000001",
		"units":"12.5","amount":5000,"status":"pending","createdAt":"2025-01-02T10:00:00Z"}`

	var r TokenRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, "R123", r.ID)
	assert.Equal(t, "V1", r.Vendor.ID)
	assert.Equal(t, "Acme", r.Vendor.Label())
	assert.Equal(t, "5000", r.Amount.String())
	assert.Equal(t, RequestPending, r.Status)
	assert.Nil(t, r.CustomerVerification)
}
