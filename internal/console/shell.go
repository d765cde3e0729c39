package console

import (
	"context"
	"fmt"
	"sync"
)

// ViewID names a sidebar entry.
type ViewID string

const (
	ViewDashboard ViewID = "dashboard"
	ViewVendors   ViewID = "vendors"
	ViewCustomers ViewID = "customers"
	ViewPricing   ViewID = "pricing"
	ViewTokens    ViewID = "tokens"
	ViewAccounts  ViewID = "accounts"
	ViewUpgrades  ViewID = "upgrades"
)

type NavItem struct {
	ID     ViewID `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

var navigation = []NavItem{
	{ID: ViewDashboard, Label: "Dashboard"},
	{ID: ViewVendors, Label: "Vendors"},
	{ID: ViewCustomers, Label: "Verify Customers"},
	{ID: ViewPricing, Label: "Disco Pricing"},
	{ID: ViewTokens, Label: "Token Management"},
	{ID: ViewAccounts, Label: "Bank Accounts"},
	{ID: ViewUpgrades, Label: "Vendor Space"},
}

// Workspace is one console session: one instance of every screen plus the
// navigation state.
type Workspace struct {
	Dashboard *DashboardScreen
	Vendors   *VendorScreen
	Customers *CustomerScreen
	Pricing   *PricingScreen
	Tokens    *TokenScreen
	Accounts  *AccountScreen
	Upgrades  *UpgradeScreen

	env    *Env
	mu     sync.RWMutex
	active ViewID
}

func NewWorkspace(env *Env) *Workspace {
	env = env.withDefaults()
	return &Workspace{
		Dashboard: NewDashboardScreen(env),
		Vendors:   NewVendorScreen(env),
		Customers: NewCustomerScreen(env),
		Pricing:   NewPricingScreen(env),
		Tokens:    NewTokenScreen(env),
		Accounts:  NewAccountScreen(env),
		Upgrades:  NewUpgradeScreen(env),
		env:       env,
		active:    ViewDashboard,
	}
}

func (w *Workspace) Notices() *Notifier { return w.env.Notices }

func (w *Workspace) Actor() string { return w.env.Actor }

func (w *Workspace) Active() ViewID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

func (w *Workspace) Nav() []NavItem {
	active := w.Active()
	out := make([]NavItem, len(navigation))
	for i, it := range navigation {
		it.Active = it.ID == active
		out[i] = it
	}
	return out
}

// Navigate switches the active view and loads it. Entering the dashboard
// always refreshes it.
func (w *Workspace) Navigate(ctx context.Context, id ViewID) error {
	r, ok := w.refresher(id)
	if !ok {
		return fmt.Errorf("unknown view %q", id)
	}
	w.mu.Lock()
	w.active = id
	w.mu.Unlock()
	return r(ctx)
}

func (w *Workspace) refresher(id ViewID) (func(context.Context) error, bool) {
	switch id {
	case ViewDashboard:
		return w.Dashboard.Refresh, true
	case ViewVendors:
		return w.Vendors.Refresh, true
	case ViewCustomers:
		return w.Customers.Refresh, true
	case ViewPricing:
		return w.Pricing.Refresh, true
	case ViewTokens:
		return w.Tokens.Refresh, true
	case ViewAccounts:
		return w.Accounts.Refresh, true
	case ViewUpgrades:
		return w.Upgrades.Refresh, true
	}
	return nil, false
}

// Close stops background work (the debounced history search).
func (w *Workspace) Close() { w.Tokens.Close() }
