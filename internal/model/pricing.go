package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscoPrice is the per-unit electricity price of one distribution company.
// DiscoName is immutable after creation; price and Disabled change independently.
type DiscoPrice struct {
	ID           string          `json:"_id"`
	DiscoName    string          `json:"discoName"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Disabled     bool            `json:"disabled"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
