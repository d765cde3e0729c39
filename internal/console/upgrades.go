package console

import (
	"context"
	"fmt"

	"github.com/ctks/admin-console/internal/format"
	"github.com/ctks/admin-console/internal/model"
)

const entityUpgrade = "upgrade"

type UpgradeView struct {
	View[model.UpgradeRequest]
	Busy    map[string]string `json:"busy,omitempty"`
	Confirm *ConfirmDialog    `json:"confirm,omitempty"`
}

// UpgradeScreen lists pending vendor-space upgrades. Each decision is
// one-shot and removes the row.
type UpgradeScreen struct {
	env      *Env
	table    *Table[model.UpgradeRequest]
	inflight *InFlight
	confirm  Confirm
}

func NewUpgradeScreen(env *Env) *UpgradeScreen {
	env = env.withDefaults()
	return &UpgradeScreen{
		env:      env,
		table:    NewTable(func(u model.UpgradeRequest) string { return u.ID }, env.PageSize),
		inflight: NewInFlight(),
	}
}

func (s *UpgradeScreen) Refresh(ctx context.Context) error {
	err := s.table.Refresh(ctx, s.env.API.ListPendingUpgrades)
	if err != nil {
		s.env.fetchFailed(err, "Failed to fetch upgrade requests")
	}
	return err
}

func (s *UpgradeScreen) SetPage(p int) { s.table.SetPage(p) }
func (s *UpgradeScreen) SetSize(n int) { s.table.SetSize(n) }

func (s *UpgradeScreen) View() UpgradeView {
	return UpgradeView{View: s.table.View(), Busy: s.inflight.Snapshot(), Confirm: s.confirm.Current()}
}

const (
	upgradeComplete = "complete"
	upgradeReject   = "reject"
)

func (s *UpgradeScreen) RequestComplete(id string) (ConfirmDialog, error) {
	u, ok := s.table.Find(id)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open(upgradeComplete, id, fmt.Sprintf("Mark %s's upgrade of %d customers (%s) as completed?",
		u.VendorInfo.Username, u.AdditionalCustomers, format.Naira(u.Amount))), nil
}

func (s *UpgradeScreen) RequestReject(id string) (ConfirmDialog, error) {
	u, ok := s.table.Find(id)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open(upgradeReject, id, fmt.Sprintf("Reject %s's upgrade request?", u.VendorInfo.Username)), nil
}

func (s *UpgradeScreen) Cancel() { s.confirm.Cancel() }

func (s *UpgradeScreen) ConfirmComplete(ctx context.Context) error {
	d, err := s.confirm.Take(upgradeComplete)
	if err == nil {
		err = s.decide(ctx, d.TargetID, upgradeComplete)
	}
	return s.env.settle(ctx, entityUpgrade, upgradeComplete, d.TargetID, "", err,
		"Upgrade marked as completed successfully", "Failed to complete upgrade")
}

func (s *UpgradeScreen) ConfirmReject(ctx context.Context) error {
	d, err := s.confirm.Take(upgradeReject)
	if err == nil {
		err = s.decide(ctx, d.TargetID, upgradeReject)
	}
	return s.env.settle(ctx, entityUpgrade, upgradeReject, d.TargetID, "", err,
		"Upgrade request rejected successfully", "Failed to reject upgrade")
}

func (s *UpgradeScreen) decide(ctx context.Context, id, op string) error {
	u, ok := s.table.Find(id)
	if !ok {
		return ErrNotFound
	}
	done, err := s.inflight.Begin(id, op)
	if err != nil {
		return err
	}
	defer done()

	if op == upgradeComplete {
		err = s.env.API.CompleteUpgrade(ctx, u.VendorInfo.ID, u.ID)
	} else {
		err = s.env.API.RejectUpgrade(ctx, u.VendorInfo.ID, u.ID)
	}
	if err != nil {
		return err
	}
	s.table.Remove(id)
	return nil
}
