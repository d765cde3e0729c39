package console

import (
	"context"
	"fmt"
	"time"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const entityVendor = "vendor"

type VendorView struct {
	View[model.Vendor]
	Busy    map[string]string `json:"busy,omitempty"`
	Confirm *ConfirmDialog    `json:"confirm,omitempty"`
}

type VendorScreen struct {
	env      *Env
	table    *Table[model.Vendor]
	inflight *InFlight
	confirm  Confirm
}

func NewVendorScreen(env *Env) *VendorScreen {
	env = env.withDefaults()
	return &VendorScreen{
		env:      env,
		table:    NewTable(func(v model.Vendor) string { return v.ID }, env.PageSize),
		inflight: NewInFlight(),
	}
}

func (s *VendorScreen) Refresh(ctx context.Context) error {
	err := s.table.Refresh(ctx, s.env.API.ListVendors)
	if err != nil {
		s.env.fetchFailed(err, "Failed to fetch vendors")
	}
	return err
}

func (s *VendorScreen) SetPage(p int) { s.table.SetPage(p) }
func (s *VendorScreen) SetSize(n int) { s.table.SetSize(n) }

func (s *VendorScreen) View() VendorView {
	return VendorView{View: s.table.View(), Busy: s.inflight.Snapshot(), Confirm: s.confirm.Current()}
}

// Create adds a vendor; the password is required.
func (s *VendorScreen) Create(ctx context.Context, in model.VendorInput) error {
	err := s.save(ctx, "", in)
	return s.env.settle(ctx, entityVendor, "create", "", in.Username, err,
		"Vendor created successfully", "Failed to create vendor")
}

// Update edits a vendor; an empty password leaves it unchanged.
func (s *VendorScreen) Update(ctx context.Context, id string, in model.VendorInput) error {
	err := s.save(ctx, id, in)
	return s.env.settle(ctx, entityVendor, "update", id, in.Username, err,
		"Vendor updated successfully", "Failed to update vendor")
}

func (s *VendorScreen) save(ctx context.Context, id string, in model.VendorInput) error {
	in, err := validation.Vendor(in, id == "")
	if err != nil {
		return err
	}
	var got *model.Vendor
	if id == "" {
		got, err = s.env.API.CreateVendor(ctx, in)
	} else {
		if _, ok := s.table.Find(id); !ok {
			return ErrNotFound
		}
		done, berr := s.inflight.Begin(id, "update")
		if berr != nil {
			return berr
		}
		defer done()
		got, err = s.env.API.UpdateVendor(ctx, id, in)
	}
	if err != nil {
		return err
	}
	if got != nil && got.ID != "" {
		s.table.Upsert(*got)
		return nil
	}
	_ = s.Refresh(ctx)
	return nil
}

func (s *VendorScreen) Approve(ctx context.Context, id string) error {
	err := s.setApproved(ctx, id, true)
	return s.env.settle(ctx, entityVendor, "approve", id, "", err,
		"Vendor approved successfully", "Failed to approve vendor")
}

func (s *VendorScreen) Deactivate(ctx context.Context, id string) error {
	err := s.setApproved(ctx, id, false)
	return s.env.settle(ctx, entityVendor, "deactivate", id, "", err,
		"Vendor deactivated successfully", "Failed to deactivate vendor")
}

func (s *VendorScreen) setApproved(ctx context.Context, id string, approve bool) error {
	v, ok := s.table.Find(id)
	if !ok {
		return ErrNotFound
	}
	if v.Approved == approve {
		return fmt.Errorf("%w: vendor %s approved=%t", ErrTransition, id, v.Approved)
	}
	op := "deactivate"
	if approve {
		op = "approve"
	}
	done, err := s.inflight.Begin(id, op)
	if err != nil {
		return err
	}
	defer done()

	if approve {
		err = s.env.API.ApproveVendor(ctx, id)
	} else {
		err = s.env.API.DeactivateVendor(ctx, id)
	}
	if err != nil {
		return err
	}
	s.table.Patch(id, func(v *model.Vendor) {
		v.Approved = approve
		v.ApprovedAt = nil
		if approve {
			now := time.Now().UTC()
			v.ApprovedAt = &now
		}
	})
	return nil
}

func (s *VendorScreen) RequestDelete(id string) (ConfirmDialog, error) {
	v, ok := s.table.Find(id)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open("delete", id, fmt.Sprintf("Delete vendor %s?", v.Username)), nil
}

func (s *VendorScreen) CancelDelete() { s.confirm.Cancel() }

func (s *VendorScreen) ConfirmDelete(ctx context.Context) error {
	d, err := s.confirm.Take("delete")
	if err == nil {
		err = s.remove(ctx, d.TargetID, s.env.API.DeleteVendor)
	}
	return s.env.settle(ctx, entityVendor, "delete", d.TargetID, "", err,
		"Vendor deleted successfully", "Failed to delete vendor")
}

func (s *VendorScreen) remove(ctx context.Context, id string, del func(context.Context, string) error) error {
	done, err := s.inflight.Begin(id, "delete")
	if err != nil {
		return err
	}
	defer done()
	if err := del(ctx, id); err != nil {
		return err
	}
	s.table.Remove(id)
	return nil
}
