package console

import (
	"context"
	"fmt"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const entityAccount = "bank_account"

type AccountView struct {
	View[model.BankAccount]
	Confirm *ConfirmDialog `json:"confirm,omitempty"`
}

type AccountScreen struct {
	env      *Env
	table    *Table[model.BankAccount]
	inflight *InFlight
	confirm  Confirm
}

func NewAccountScreen(env *Env) *AccountScreen {
	env = env.withDefaults()
	return &AccountScreen{
		env:      env,
		table:    NewTable(func(a model.BankAccount) string { return a.ID }, env.PageSize),
		inflight: NewInFlight(),
	}
}

func (s *AccountScreen) Refresh(ctx context.Context) error {
	err := s.table.Refresh(ctx, s.env.API.ListAccounts)
	if err != nil {
		s.env.fetchFailed(err, "Failed to fetch accounts")
	}
	return err
}

func (s *AccountScreen) SetPage(p int) { s.table.SetPage(p) }
func (s *AccountScreen) SetSize(n int) { s.table.SetSize(n) }

func (s *AccountScreen) View() AccountView {
	return AccountView{View: s.table.View(), Confirm: s.confirm.Current()}
}

func (s *AccountScreen) Create(ctx context.Context, in model.BankAccountInput) error {
	err := s.save(ctx, "", in)
	return s.env.settle(ctx, entityAccount, "create", "", in.AccountNumber, err,
		"Account created successfully", "Failed to create account")
}

func (s *AccountScreen) Update(ctx context.Context, id string, in model.BankAccountInput) error {
	err := s.save(ctx, id, in)
	return s.env.settle(ctx, entityAccount, "update", id, in.AccountNumber, err,
		"Account updated successfully", "Failed to update account")
}

// save creates or updates, then refetches: the list is small and the
// backend owns the row shape.
func (s *AccountScreen) save(ctx context.Context, id string, in model.BankAccountInput) error {
	in, err := validation.BankAccount(in)
	if err != nil {
		return err
	}
	if id == "" {
		_, err = s.env.API.CreateAccount(ctx, in)
	} else {
		if _, ok := s.table.Find(id); !ok {
			return ErrNotFound
		}
		done, berr := s.inflight.Begin(id, "update")
		if berr != nil {
			return berr
		}
		defer done()
		_, err = s.env.API.UpdateAccount(ctx, id, in)
	}
	if err != nil {
		return err
	}
	_ = s.Refresh(ctx)
	return nil
}

func (s *AccountScreen) RequestDelete(id string) (ConfirmDialog, error) {
	a, ok := s.table.Find(id)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open("delete", id, fmt.Sprintf("Delete account %s (%s)?", a.AccountNumber, a.BankName)), nil
}

func (s *AccountScreen) CancelDelete() { s.confirm.Cancel() }

func (s *AccountScreen) ConfirmDelete(ctx context.Context) error {
	d, err := s.confirm.Take("delete")
	if err == nil {
		err = s.delete(ctx, d.TargetID)
	}
	return s.env.settle(ctx, entityAccount, "delete", d.TargetID, "", err,
		"Account deleted successfully", "Failed to delete account")
}

func (s *AccountScreen) delete(ctx context.Context, id string) error {
	done, err := s.inflight.Begin(id, "delete")
	if err != nil {
		return err
	}
	defer done()
	if err := s.env.API.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.table.Remove(id)
	return nil
}
