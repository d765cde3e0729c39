package console

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctks/admin-console/internal/export"
	"github.com/ctks/admin-console/internal/model"
)

func seedDashboard(b *fakeBackend) {
	b.counts = map[string]int{"customers": 120, "vendors": 3, "tokens": 7}
	b.trends = []model.TrendPoint{{Period: "2025-03-01", Tokens: 4, Amount: decimal.NewFromInt(20000)}}
	for i := 1; i <= 12; i++ {
		b.sales = append(b.sales, model.SalesReportRow{
			Period: fmt.Sprintf("2025-03-%02d", i), Vendor: "alpha", Disco: "IKEDC",
			TokensCount: i, Units: decimal.NewFromInt(int64(10 * i)), Amount: decimal.NewFromInt(int64(1000 * i)),
		})
	}
}

func TestDashboard_Refresh(t *testing.T) {
	b, api := newBackend(t)
	seedDashboard(b)
	s := NewDashboardScreen(newEnv(api))
	require.NoError(t, s.Refresh(context.Background()))

	v := s.View()
	assert.Equal(t, model.DashboardStats{TotalCustomers: 120, PendingVendors: 3, PendingTokens: 7}, v.Stats)
	require.Len(t, v.Activities, 1)
	assert.Equal(t, "Approved vendor", v.Activities[0].Action)
	assert.Len(t, v.Trends, 1)
	assert.Len(t, v.Sales, 5)
	assert.Equal(t, 3, v.SalesPage.TotalPages)
	assert.False(t, v.Loading)
	assert.Equal(t, "daily", b.LastQuery("GET /admin/dashboard/trends").Get("granularity"))
}

func TestDashboard_PartialFailureKeepsPrevious(t *testing.T) {
	b, api := newBackend(t)
	seedDashboard(b)
	s := NewDashboardScreen(newEnv(api))
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	b.mu.Lock()
	b.counts = map[string]int{"customers": 121, "vendors": 0, "tokens": 9}
	b.mu.Unlock()
	b.Fail("GET /admin/pending-vendor-count", 500)
	b.Fail("GET /admin/dashboard/trends", 502)

	err := s.Refresh(ctx)
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)

	v := s.View()
	assert.Equal(t, 121, v.Stats.TotalCustomers)
	assert.Equal(t, 3, v.Stats.PendingVendors, "failed panel keeps its value")
	assert.Equal(t, 9, v.Stats.PendingTokens)
	assert.Len(t, v.Trends, 1)
}

func TestDashboard_GranularityResetsSalesPage(t *testing.T) {
	b, api := newBackend(t)
	seedDashboard(b)
	s := NewDashboardScreen(newEnv(api))
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	require.NoError(t, s.SetSalesPage(ctx, 3))
	v := s.View()
	assert.Equal(t, 3, v.SalesPage.Page)
	require.Len(t, v.Sales, 2)
	assert.Equal(t, "2025-03-11", v.Sales[0].Period)

	require.NoError(t, s.SetGranularity(ctx, "Weekly"))
	q := b.LastQuery("GET /admin/reports/sales")
	assert.Equal(t, "weekly", q.Get("granularity"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, model.GranularityWeekly, s.View().Granularity)

	require.Error(t, s.SetGranularity(ctx, "hourly"))

	require.NoError(t, s.SetSalesSize(ctx, 10))
	assert.Equal(t, "10", b.LastQuery("GET /admin/reports/sales").Get("limit"))
	assert.Equal(t, 2, s.View().SalesPage.TotalPages)
}

func TestDashboard_StaleSalesPageDropped(t *testing.T) {
	const route = "GET /admin/reports/sales"
	b, api := newBackend(t)
	seedDashboard(b)
	s := NewDashboardScreen(newEnv(api))
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	open := b.Gate(route)
	defer open()

	slow := make(chan error, 1)
	go func() { slow <- s.SetSalesPage(ctx, 2) }()
	require.Eventually(t, func() bool { return b.Calls(route) >= 2 }, time.Second, 5*time.Millisecond)

	switched := make(chan error, 1)
	go func() { switched <- s.SetGranularity(ctx, "weekly") }()

	require.ErrorIs(t, <-slow, ErrStale, "the granularity switch supersedes the page fetch")
	open()
	require.NoError(t, <-switched)

	r := s.Report()
	assert.Equal(t, model.GranularityWeekly, r.Granularity)
	assert.Equal(t, 1, r.Page)
	require.NotEmpty(t, r.Rows)
	assert.Equal(t, "2025-03-01", r.Rows[0].Period)
	assert.Equal(t, "1", b.LastQuery(route).Get("page"))
}

func TestDashboard_ExportUsesLoadedPage(t *testing.T) {
	b, api := newBackend(t)
	seedDashboard(b)
	s := NewDashboardScreen(newEnv(api))
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.SetSalesPage(ctx, 2))
	calls := b.Calls("GET /admin/reports/sales")

	var buf bytes.Buffer
	r, err := s.Export(&buf, export.CSV)
	require.NoError(t, err)
	assert.Equal(t, calls, b.Calls("GET /admin/reports/sales"), "export does not refetch")
	assert.Equal(t, "sales-report-daily-p2.csv", r.Filename(export.CSV))
	assert.Len(t, r.Rows, 5)
	assert.Contains(t, buf.String(), "2025-03-06,alpha,IKEDC,6,60,6000.00")
	assert.NotContains(t, buf.String(), "2025-03-01")
}
