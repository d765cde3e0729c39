package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

func (g Granularity) String() string { return string(g) }

// ParseGranularity normalizes input; empty => daily.
func ParseGranularity(s string) (Granularity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return GranularityDaily, true
	case "weekly":
		return GranularityWeekly, true
	case "monthly":
		return GranularityMonthly, true
	default:
		return GranularityDaily, false
	}
}

type DashboardStats struct {
	TotalCustomers int `json:"totalCustomers"`
	PendingVendors int `json:"pendingVendors"`
	PendingTokens  int `json:"pendingTokens"`
}

type Activity struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
}

type TrendPoint struct {
	Period string          `json:"period"`
	Tokens int             `json:"tokens"`
	Amount decimal.Decimal `json:"amount"`
}

type SalesReportRow struct {
	Period      string          `json:"period"`
	Vendor      string          `json:"vendor"`
	Disco       string          `json:"disco"`
	TokensCount int             `json:"tokensCount"`
	Units       decimal.Decimal `json:"units"`
	Amount      decimal.Decimal `json:"amount"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
