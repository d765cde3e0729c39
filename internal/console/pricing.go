package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const entityPrice = "disco_price"

type PricingView struct {
	View[model.DiscoPrice]
	Policy  validation.PricePolicy `json:"policy"`
	Busy    map[string]string      `json:"busy,omitempty"`
	Confirm *ConfirmDialog         `json:"confirm,omitempty"`
}

// PricingScreen manages per-DISCO unit prices. Rows are keyed by name: it is
// the path key on the backend and immutable after creation.
type PricingScreen struct {
	env      *Env
	table    *Table[model.DiscoPrice]
	inflight *InFlight
	confirm  Confirm
}

func NewPricingScreen(env *Env) *PricingScreen {
	env = env.withDefaults()
	return &PricingScreen{
		env:      env,
		table:    NewTable(func(p model.DiscoPrice) string { return p.DiscoName }, env.PageSize),
		inflight: NewInFlight(),
	}
}

func sameName(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }

func (s *PricingScreen) Refresh(ctx context.Context) error {
	err := s.table.Refresh(ctx, s.env.API.ListPrices)
	if err != nil {
		s.env.fetchFailed(err, "Failed to fetch prices")
	}
	return err
}

func (s *PricingScreen) SetPage(p int) { s.table.SetPage(p) }
func (s *PricingScreen) SetSize(n int) { s.table.SetSize(n) }

func (s *PricingScreen) View() PricingView {
	return PricingView{View: s.table.View(), Policy: s.env.PricePolicy, Busy: s.inflight.Snapshot(), Confirm: s.confirm.Current()}
}

func (s *PricingScreen) lookup(name string) (model.DiscoPrice, bool) {
	for _, p := range s.table.Rows() {
		if sameName(p.DiscoName, name) {
			return p, true
		}
	}
	return model.DiscoPrice{}, false
}

// Create adds a DISCO price. Non-numeric input never reaches the backend.
func (s *PricingScreen) Create(ctx context.Context, name, price string) error {
	err := s.create(ctx, name, price)
	return s.env.settle(ctx, entityPrice, "create", strings.TrimSpace(name), price, err,
		"Price added successfully", "Failed to add price")
}

func (s *PricingScreen) create(ctx context.Context, name, price string) error {
	name, err := validation.DiscoName(name)
	if err != nil {
		return err
	}
	d, err := validation.Price(price, s.env.PricePolicy)
	if err != nil {
		return err
	}
	got, err := s.env.API.CreatePrice(ctx, name, d)
	if err != nil {
		return err
	}
	if got != nil && got.DiscoName != "" {
		s.table.Upsert(*got)
		return nil
	}
	_ = s.Refresh(ctx)
	return nil
}

// Update changes the price only.
func (s *PricingScreen) Update(ctx context.Context, name, price string) error {
	err := s.update(ctx, name, price)
	return s.env.settle(ctx, entityPrice, "update", name, price, err,
		"Price updated successfully", "Failed to update price")
}

func (s *PricingScreen) update(ctx context.Context, name, price string) error {
	row, ok := s.lookup(name)
	if !ok {
		return ErrNotFound
	}
	d, err := validation.Price(price, s.env.PricePolicy)
	if err != nil {
		return err
	}
	done, err := s.inflight.Begin(row.DiscoName, "update")
	if err != nil {
		return err
	}
	defer done()

	got, err := s.env.API.UpdatePrice(ctx, row.DiscoName, d)
	if err != nil {
		return err
	}
	s.table.Patch(row.DiscoName, func(p *model.DiscoPrice) {
		p.PricePerUnit = d
		p.UpdatedAt = time.Now().UTC()
		if got != nil && !got.UpdatedAt.IsZero() {
			p.UpdatedAt = got.UpdatedAt
		}
	})
	return nil
}

func (s *PricingScreen) Enable(ctx context.Context, name string) error {
	err := s.setDisabled(ctx, name, false)
	return s.env.settle(ctx, entityPrice, "enable", name, "", err,
		"Price enabled successfully", "Failed to enable price")
}

func (s *PricingScreen) Disable(ctx context.Context, name string) error {
	err := s.setDisabled(ctx, name, true)
	return s.env.settle(ctx, entityPrice, "disable", name, "", err,
		"Price disabled successfully", "Failed to disable price")
}

func (s *PricingScreen) setDisabled(ctx context.Context, name string, disabled bool) error {
	row, ok := s.lookup(name)
	if !ok {
		return ErrNotFound
	}
	if row.Disabled == disabled {
		return fmt.Errorf("%w: %s disabled=%t", ErrTransition, row.DiscoName, disabled)
	}
	op := "enable"
	if disabled {
		op = "disable"
	}
	done, err := s.inflight.Begin(row.DiscoName, op)
	if err != nil {
		return err
	}
	defer done()

	if disabled {
		err = s.env.API.DisablePrice(ctx, row.DiscoName)
	} else {
		err = s.env.API.EnablePrice(ctx, row.DiscoName)
	}
	if err != nil {
		return err
	}
	s.table.PatchWhere(func(p model.DiscoPrice) bool { return sameName(p.DiscoName, name) },
		func(p *model.DiscoPrice) { p.Disabled = disabled })
	return nil
}

func (s *PricingScreen) RequestDelete(name string) (ConfirmDialog, error) {
	row, ok := s.lookup(name)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open("delete", row.DiscoName, fmt.Sprintf("Delete pricing for %s?", row.DiscoName)), nil
}

func (s *PricingScreen) CancelDelete() { s.confirm.Cancel() }

func (s *PricingScreen) ConfirmDelete(ctx context.Context) error {
	d, err := s.confirm.Take("delete")
	if err == nil {
		err = s.delete(ctx, d.TargetID)
	}
	return s.env.settle(ctx, entityPrice, "delete", d.TargetID, "", err,
		"Price deleted successfully", "Failed to delete price")
}

func (s *PricingScreen) delete(ctx context.Context, name string) error {
	done, err := s.inflight.Begin(name, "delete")
	if err != nil {
		return err
	}
	defer done()
	if err := s.env.API.DeletePrice(ctx, name); err != nil {
		return err
	}
	s.table.Remove(name)
	return nil
}
