package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestCompleted:
		return true
	}
	return false
}

// CanApprove: pending -> approved.
func (s RequestStatus) CanApprove() bool { return s == RequestPending }

// CanReject: pending|approved -> rejected. Rejection after approval is the
// last-chance override before issuance.
func (s RequestStatus) CanReject() bool { return s == RequestPending || s == RequestApproved }

// CanIssue: approved -> completed.
func (s RequestStatus) CanIssue() bool { return s == RequestApproved }

func (s RequestStatus) Terminal() bool { return s == RequestRejected || s == RequestCompleted }

type RowAction string

const (
	ActionApprove    RowAction = "approve"
	ActionReject     RowAction = "reject"
	ActionIssueToken RowAction = "issue_token"
)

// Actions lists the buttons rendered for a request row.
func (s RequestStatus) Actions() []RowAction {
	switch s {
	case RequestPending:
		return []RowAction{ActionApprove, ActionReject}
	case RequestApproved:
		return []RowAction{ActionIssueToken, ActionReject}
	default:
		return nil
	}
}

// Badge is the label shown in place of actions (completed rows read "ISSUED").
func (s RequestStatus) Badge() string {
	if s == RequestCompleted {
		return "ISSUED"
	}
	if s == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(s))
}

type TokenStatus string

const (
	TokenIssued   TokenStatus = "issued"
	TokenUsed     TokenStatus = "used"
	TokenExpired  TokenStatus = "expired"
	TokenReplaced TokenStatus = "replaced"
)

func (s TokenStatus) String() string { return string(s) }

func (s TokenStatus) CanReissue() bool { return s == TokenIssued }

type VendorRef struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// Label is the display name of the vendor.
func (v VendorRef) Label() string {
	if v.Name != "" {
		return v.Name
	}
	return v.Username
}

type TokenRequest struct {
	ID              string          `json:"_id"`
	Vendor          VendorRef       `json:"vendorId"`
	MeterNumber     string          `json:"meterNumber"`
	Units           decimal.Decimal `json:"units"`
	Amount          decimal.Decimal `json:"amount"`
	Status          RequestStatus   `json:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`

	// Joined client-side from the customer list at fetch time; nil when the
	// meter has no customer record.
	CustomerVerification *Verification `json:"customerVerification,omitempty"`
}

type Token struct {
	ID          string          `json:"_id"`
	TokenValue  string          `json:"tokenValue"`
	MeterNumber string          `json:"meterNumber"`
	Disco       string          `json:"disco"`
	Units       decimal.Decimal `json:"units"`
	Amount      decimal.Decimal `json:"amount"`
	Status      TokenStatus     `json:"status"`
	Vendor      VendorRef       `json:"vendorId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ExpiryDate  *time.Time      `json:"expiryDate,omitempty"`
}

// TokenDetails joins a token with its customer's meter parameters for display.
type TokenDetails struct {
	Token        Token         `json:"token"`
	Verification *Verification `json:"verification,omitempty"`
}
