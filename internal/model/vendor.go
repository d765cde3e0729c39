package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID         string     `json:"_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approvedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// VendorInput is the create/edit form. Password is optional on edit.
type VendorInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type BankAccount struct {
	ID            string    `json:"_id"`
	AccountNumber string    `json:"accountNumber"`
	BankName      string    `json:"bankName"`
	AccountName   string    `json:"accountName"`
	CreatedAt     time.Time `json:"createdAt"`
}

type BankAccountInput struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
}

type UpgradeStatus string

const (
	UpgradePending  UpgradeStatus = "pending"
	UpgradeApproved UpgradeStatus = "approved"
	UpgradeRejected UpgradeStatus = "rejected"
)

func (s UpgradeStatus) String() string { return string(s) }

type VendorInfo struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	BusinessName string `json:"businessName"`
}

// UpgradeRequest is a vendor's request for additional customer space.
// The admin decision is one-shot: complete (paid) or reject.
type UpgradeRequest struct {
	ID                  string          `json:"_id"`
	VendorInfo          VendorInfo      `json:"vendorInfo"`
	AdditionalCustomers int             `json:"additionalCustomers"`
	Amount              decimal.Decimal `json:"amount"`
	Status              UpgradeStatus   `json:"status"`
	Reference           string          `json:"reference"`
	Date                time.Time       `json:"date"`
}
