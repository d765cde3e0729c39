package model

import (
	"strings"
	"time"
)

type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
	VerificationRejected VerificationState = "rejected"
)

func (s VerificationState) String() string { return string(s) }

func (s VerificationState) Valid() bool {
	return s == VerificationPending || s == VerificationVerified || s == VerificationRejected
}

// ParseVerificationState normalizes tab names; empty => pending.
func ParseVerificationState(s string) (VerificationState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending":
		return VerificationPending, true
	case "verified":
		return VerificationVerified, true
	case "rejected":
		return VerificationRejected, true
	default:
		return VerificationPending, false
	}
}

// CryptoParams are the meter parameters required once a customer is verified.
// Opaque strings from the console's point of view.
type CryptoParams struct {
	KRN  string `json:"KRN"`
	SGC  string `json:"SGC"`
	TI   string `json:"TI"`
	MSN  string `json:"MSN"`
	MTK1 string `json:"MTK1"`
	MTK2 string `json:"MTK2"`
	RTK1 string `json:"RTK1"`
	RTK2 string `json:"RTK2"`
}

// Fields returns the params keyed by their wire names, in display order.
func (p CryptoParams) Fields() [][2]string {
	return [][2]string{
		{"KRN", p.KRN}, {"SGC", p.SGC}, {"TI", p.TI}, {"MSN", p.MSN},
		{"MTK1", p.MTK1}, {"MTK2", p.MTK2}, {"RTK1", p.RTK1}, {"RTK2", p.RTK2},
	}
}

type Verification struct {
	IsVerified      bool       `json:"isVerified"`
	Rejected        bool       `json:"rejected"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	CryptoParams
}

// State collapses the two flags into the tri-state; a rejection wins.
func (v Verification) State() VerificationState {
	switch {
	case v.Rejected:
		return VerificationRejected
	case v.IsVerified:
		return VerificationVerified
	default:
		return VerificationPending
	}
}

type Customer struct {
	ID           string       `json:"_id"`
	MeterNumber  string       `json:"meterNumber"`
	Disco        string       `json:"disco"`
	LastToken    string       `json:"lastToken,omitempty"`
	Verification Verification `json:"verification"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
