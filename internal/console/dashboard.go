package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/ctks/admin-console/internal/export"
	"github.com/ctks/admin-console/internal/model"
)

type DashboardView struct {
	Stats       model.DashboardStats   `json:"stats"`
	Activities  []model.Activity       `json:"activities"`
	Granularity model.Granularity      `json:"granularity"`
	Trends      []model.TrendPoint     `json:"trends"`
	Sales       []model.SalesReportRow `json:"sales"`
	SalesPage   PageInfo               `json:"salesPage"`
	Loading     bool                   `json:"loading"`
}

// DashboardScreen is read only: precomputed counters, trend points and one
// page of the sales report.
type DashboardScreen struct {
	env *Env

	mu          sync.RWMutex
	stats       model.DashboardStats
	activities  []model.Activity
	granularity model.Granularity
	trends      []model.TrendPoint
	sales       []model.SalesReportRow
	salesPager  Pager
	loading     bool

	latest *Latest
}

func NewDashboardScreen(env *Env) *DashboardScreen {
	env = env.withDefaults()
	return &DashboardScreen{
		env:         env,
		granularity: model.GranularityDaily,
		salesPager:  NewPager(1, env.PageSize),
		latest:      NewLatest(),
	}
}

// Refresh fetches every panel in parallel. A failed panel keeps its previous
// value; the failures come back aggregated.
func (s *DashboardScreen) Refresh(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "dashboard")
	defer tk.Done()

	s.mu.Lock()
	s.loading = true
	g := s.granularity
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var (
		emu  sync.Mutex
		errs *multierror.Error
		eg   errgroup.Group
	)
	collect := func(panel string, err error) bool {
		if err == nil {
			return true
		}
		emu.Lock()
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", panel, err))
		emu.Unlock()
		return false
	}
	apply := func(fn func()) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if tk.Current() {
			fn()
		}
	}

	counter := func(panel string, fetch func(context.Context) (int, error), set func(int)) func() error {
		return func() error {
			n, err := fetch(fctx)
			if collect(panel, err) {
				apply(func() { set(n) })
			}
			return nil
		}
	}
	eg.Go(counter("customers", s.env.API.CustomerCount, func(n int) { s.stats.TotalCustomers = n }))
	eg.Go(counter("pending vendors", s.env.API.PendingVendorCount, func(n int) { s.stats.PendingVendors = n }))
	eg.Go(counter("pending tokens", s.env.API.PendingTokenCount, func(n int) { s.stats.PendingTokens = n }))
	eg.Go(func() error {
		acts, err := s.env.API.Activities(fctx)
		if collect("activities", err) {
			apply(func() { s.activities = acts })
		}
		return nil
	})
	eg.Go(func() error {
		pts, err := s.env.API.Trends(fctx, g)
		if collect("trends", err) {
			apply(func() { s.trends = pts })
		}
		return nil
	})
	eg.Go(func() error {
		if err := s.loadSales(fctx); !errors.Is(err, ErrStale) {
			collect("sales report", err)
		}
		return nil
	})
	_ = eg.Wait()

	if !tk.Current() {
		return ErrStale
	}
	if err := errs.ErrorOrNil(); err != nil {
		s.env.fetchFailed(err, "Failed to fetch dashboard data")
		return err
	}
	return nil
}

// RefreshSales reloads only the sales report page.
func (s *DashboardScreen) RefreshSales(ctx context.Context) error {
	if err := s.loadSales(ctx); err != nil {
		s.env.fetchFailed(err, "Failed to fetch sales report")
		return err
	}
	return nil
}

// loadSales fetches the current report page under the "sales" ticket, which
// both the full refresh and page changes share.
func (s *DashboardScreen) loadSales(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "sales")
	defer tk.Done()

	s.mu.RLock()
	g, page, size := s.granularity, s.salesPager.Page, s.salesPager.Size
	s.mu.RUnlock()

	res, err := s.env.API.SalesReport(fctx, g, page, size)
	if err = tk.Settle(err); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !tk.Current() {
		return ErrStale
	}
	s.sales = res.Rows
	s.salesPager.Page = res.Pagination.Page
	s.salesPager.SetTotal(res.Pagination.Total)
	return nil
}

// SetGranularity switches trends and the sales report; the report returns to
// its first page.
func (s *DashboardScreen) SetGranularity(ctx context.Context, raw string) error {
	g, ok := model.ParseGranularity(raw)
	if !ok {
		return fmt.Errorf("unknown granularity %q", raw)
	}
	s.mu.Lock()
	s.granularity = g
	s.salesPager.Reset()
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *DashboardScreen) SetSalesPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.salesPager.Page = max(page, 1)
	s.mu.Unlock()
	return s.RefreshSales(ctx)
}

func (s *DashboardScreen) SetSalesSize(ctx context.Context, n int) error {
	s.mu.Lock()
	s.salesPager.SetSize(n)
	s.mu.Unlock()
	return s.RefreshSales(ctx)
}

// Report returns the currently loaded sales page for export.
func (s *DashboardScreen) Report() export.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return export.Report{
		Granularity: s.granularity,
		Page:        s.salesPager.Page,
		Rows:        append([]model.SalesReportRow{}, s.sales...),
	}
}

// Export writes the loaded sales page; nothing is refetched.
func (s *DashboardScreen) Export(w io.Writer, f export.Format) (export.Report, error) {
	r := s.Report()
	if err := export.Write(w, f, r); err != nil {
		s.env.Notices.Error(err, "Export failed")
		return r, err
	}
	return r, nil
}

func (s *DashboardScreen) View() DashboardView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DashboardView{
		Stats:       s.stats,
		Activities:  append([]model.Activity{}, s.activities...),
		Granularity: s.granularity,
		Trends:      append([]model.TrendPoint{}, s.trends...),
		Sales:       append([]model.SalesReportRow{}, s.sales...),
		SalesPage:   s.salesPager.Info(),
		Loading:     s.loading,
	}
}
