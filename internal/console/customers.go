package console

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const entityCustomer = "customer"

type SortKey string

const (
	SortCreatedAt   SortKey = "createdAt"
	SortVerifiedAt  SortKey = "verifiedAt"
	SortRejectedAt  SortKey = "rejectedAt"
	SortMeterNumber SortKey = "meterNumber"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAt, SortVerifiedAt, SortRejectedAt, SortMeterNumber:
		return true
	}
	return false
}

type Sort struct {
	Key  SortKey `json:"key"`
	Desc bool    `json:"desc"`
}

type CustomerView struct {
	Tab     model.VerificationState         `json:"tab"`
	Counts  map[model.VerificationState]int `json:"counts"`
	Search  string                          `json:"search"`
	Sort    Sort                            `json:"sort"`
	Rows    []model.Customer                `json:"rows"`
	Page    PageInfo                        `json:"page"`
	Busy    map[string]string               `json:"busy,omitempty"`
	Confirm *ConfirmDialog                  `json:"confirm,omitempty"`
	Loaded  bool                            `json:"loaded"`
}

// CustomerScreen partitions the full customer list into three tabs by
// verification state. Filtering, sorting and paging happen in memory; only
// Refresh goes to the backend.
type CustomerScreen struct {
	env *Env

	mu     sync.RWMutex
	all    []model.Customer
	loaded bool
	tab    model.VerificationState
	search string
	sort   Sort
	pager  Pager

	inflight *InFlight
	latest   *Latest
	confirm  Confirm
	now      func() time.Time
}

func NewCustomerScreen(env *Env) *CustomerScreen {
	env = env.withDefaults()
	return &CustomerScreen{
		env:      env,
		tab:      model.VerificationPending,
		sort:     Sort{Key: SortCreatedAt, Desc: true},
		pager:    NewPager(0, env.PageSize),
		inflight: NewInFlight(),
		latest:   NewLatest(),
		now:      time.Now,
	}
}

// Refresh refetches the whole list; an outstanding fetch is cancelled.
func (s *CustomerScreen) Refresh(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "list")
	defer tk.Done()

	rows, err := s.env.API.ListCustomers(fctx)
	if err = tk.Settle(err); err != nil {
		s.env.fetchFailed(err, "Failed to fetch customers")
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !tk.Current() {
		return ErrStale
	}
	s.all = rows
	s.loaded = true
	return nil
}

func (s *CustomerScreen) SetTab(tab model.VerificationState) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown tab %q", tab)
	}
	s.mu.Lock()
	s.tab = tab
	s.pager.Reset()
	s.mu.Unlock()
	return nil
}

func (s *CustomerScreen) Search(term string) {
	s.mu.Lock()
	s.search = term
	s.pager.Reset()
	s.mu.Unlock()
}

// SortBy toggles direction on the current column; a new column starts
// descending.
func (s *CustomerScreen) SortBy(key SortKey) error {
	if !key.Valid() {
		return fmt.Errorf("unknown sort key %q", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sort.Key == key {
		s.sort.Desc = !s.sort.Desc
	} else {
		s.sort = Sort{Key: key, Desc: true}
	}
	return nil
}

func (s *CustomerScreen) SetPage(p int) {
	s.mu.Lock()
	s.pager.Page = max(p, 0)
	s.mu.Unlock()
}

func (s *CustomerScreen) SetSize(n int) {
	s.mu.Lock()
	s.pager.SetSize(n)
	s.mu.Unlock()
}

func matches(c model.Customer, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(c.MeterNumber), term) ||
		strings.Contains(strings.ToLower(c.Disco), term) ||
		strings.Contains(strings.ToLower(c.LastToken), term)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func compareCustomers(key SortKey) func(a, b model.Customer) int {
	switch key {
	case SortVerifiedAt:
		return func(a, b model.Customer) int {
			return timeOrZero(a.Verification.VerifiedAt).Compare(timeOrZero(b.Verification.VerifiedAt))
		}
	case SortRejectedAt:
		return func(a, b model.Customer) int {
			return timeOrZero(a.Verification.RejectedAt).Compare(timeOrZero(b.Verification.RejectedAt))
		}
	case SortMeterNumber:
		return func(a, b model.Customer) int { return cmp.Compare(a.MeterNumber, b.MeterNumber) }
	default:
		return func(a, b model.Customer) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func (s *CustomerScreen) View() CustomerView {
	busy := s.inflight.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[model.VerificationState]int{
		model.VerificationPending: 0, model.VerificationVerified: 0, model.VerificationRejected: 0,
	}
	var rows []model.Customer
	for _, c := range s.all {
		st := c.Verification.State()
		counts[st]++
		if st == s.tab && matches(c, s.search) {
			rows = append(rows, c)
		}
	}

	byKey := compareCustomers(s.sort.Key)
	desc := s.sort.Desc
	slices.SortStableFunc(rows, func(a, b model.Customer) int {
		r := byKey(a, b)
		if r == 0 {
			r = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -r
		}
		return r
	})

	s.pager.SetTotal(len(rows))
	return CustomerView{
		Tab:     s.tab,
		Counts:  counts,
		Search:  s.search,
		Sort:    s.sort,
		Rows:    Slice(rows, s.pager),
		Page:    s.pager.Info(),
		Busy:    busy,
		Confirm: s.confirm.Current(),
		Loaded:  s.loaded,
	}
}

func (s *CustomerScreen) find(id string) (model.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.all {
		if c.ID == id {
			return c, true
		}
	}
	return model.Customer{}, false
}

func (s *CustomerScreen) patch(id string, fn func(*model.Customer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.all {
		if s.all[i].ID == id {
			fn(&s.all[i])
			return
		}
	}
}

// Verify moves a customer to verified with all eight meter parameters, then
// refetches.
func (s *CustomerScreen) Verify(ctx context.Context, id string, p model.CryptoParams) error {
	err := s.verify(ctx, id, p)
	err = s.env.settle(ctx, entityCustomer, "verify", id, p.MSN, err,
		"Customer verified successfully", "Verification failed")
	if err != nil {
		return err
	}
	_ = s.Refresh(ctx)
	return nil
}

func (s *CustomerScreen) verify(ctx context.Context, id string, p model.CryptoParams) error {
	cur, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	if cur.Verification.State() != model.VerificationPending {
		return ErrTransition
	}
	if err := validation.CryptoParams(p); err != nil {
		return err
	}
	done, err := s.inflight.Begin(id, "verify")
	if err != nil {
		return err
	}
	defer done()

	if err := s.env.API.VerifyCustomer(ctx, id, p); err != nil {
		return err
	}
	now := s.now().UTC()
	s.patch(id, func(c *model.Customer) {
		c.Verification.IsVerified = true
		c.Verification.Rejected = false
		c.Verification.RejectionReason = ""
		c.Verification.VerifiedAt = &now
		c.Verification.CryptoParams = p
	})
	return nil
}

// Reject marks the customer rejected locally and switches to the Rejected tab.
func (s *CustomerScreen) Reject(ctx context.Context, id, reason string) error {
	msg, err := s.reject(ctx, id, reason)
	if msg == "" {
		msg = "Customer rejected successfully"
	}
	return s.env.settle(ctx, entityCustomer, "reject", id, strings.TrimSpace(reason), err,
		msg, "Failed to reject customer")
}

func (s *CustomerScreen) reject(ctx context.Context, id, reason string) (string, error) {
	cur, ok := s.find(id)
	if !ok {
		return "", ErrNotFound
	}
	if cur.Verification.State() != model.VerificationPending {
		return "", ErrTransition
	}
	reason, err := validation.Reason(reason)
	if err != nil {
		return "", err
	}
	done, err := s.inflight.Begin(id, "reject")
	if err != nil {
		return "", err
	}
	defer done()

	msg, err := s.env.API.RejectCustomer(ctx, id, reason)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	s.patch(id, func(c *model.Customer) {
		c.Verification.Rejected = true
		c.Verification.IsVerified = false
		c.Verification.RejectionReason = reason
		c.Verification.RejectedAt = &now
	})
	s.mu.Lock()
	s.tab = model.VerificationRejected
	s.pager.Reset()
	s.mu.Unlock()
	return msg, nil
}

// Edit updates meter data and may set the verified flag directly; the
// parameters are required only when it does.
func (s *CustomerScreen) Edit(ctx context.Context, id string, in validation.CustomerEdit) error {
	err := s.edit(ctx, id, in)
	return s.env.settle(ctx, entityCustomer, "edit", id, in.MeterNumber, err,
		"Customer updated successfully", "Failed to update customer")
}

func (s *CustomerScreen) edit(ctx context.Context, id string, in validation.CustomerEdit) error {
	if _, ok := s.find(id); !ok {
		return ErrNotFound
	}
	in, err := validation.Customer(in)
	if err != nil {
		return err
	}
	done, err := s.inflight.Begin(id, "edit")
	if err != nil {
		return err
	}
	defer done()

	upd := apiclient.CustomerUpdate{
		MeterNumber:  in.MeterNumber,
		Disco:        in.Disco,
		LastToken:    in.LastToken,
		Verification: apiclient.CustomerUpdateFlag{IsVerified: in.IsVerified},
	}
	if in.IsVerified {
		p := in.Params
		upd.Verification.CryptoParams = &p
	}
	got, err := s.env.API.UpdateCustomer(ctx, id, upd)
	if err != nil {
		return err
	}

	s.patch(id, func(c *model.Customer) {
		if got != nil {
			mergeCustomer(c, *got)
			return
		}
		c.MeterNumber, c.Disco, c.LastToken = in.MeterNumber, in.Disco, in.LastToken
		c.Verification.IsVerified = in.IsVerified
		if in.IsVerified {
			c.Verification.Rejected = false
			c.Verification.CryptoParams = in.Params
		}
	})
	return nil
}

// mergeCustomer overlays server data on the cached row; verification fields
// the server left empty keep their cached values.
func mergeCustomer(dst *model.Customer, src model.Customer) {
	v := dst.Verification
	sv := src.Verification
	v.IsVerified = sv.IsVerified
	v.Rejected = sv.Rejected
	if sv.RejectionReason != "" {
		v.RejectionReason = sv.RejectionReason
	}
	if sv.VerifiedAt != nil {
		v.VerifiedAt = sv.VerifiedAt
	}
	if sv.RejectedAt != nil {
		v.RejectedAt = sv.RejectedAt
	}
	if sv.CryptoParams != (model.CryptoParams{}) {
		v.CryptoParams = sv.CryptoParams
	}

	old := *dst
	*dst = src
	dst.ID = old.ID
	dst.Verification = v
	if dst.MeterNumber == "" {
		dst.MeterNumber = old.MeterNumber
	}
	if dst.Disco == "" {
		dst.Disco = old.Disco
	}
	if dst.CreatedAt.IsZero() {
		dst.CreatedAt = old.CreatedAt
	}
}

// RequestDelete opens the delete confirmation.
func (s *CustomerScreen) RequestDelete(id string) (ConfirmDialog, error) {
	c, ok := s.find(id)
	if !ok {
		return ConfirmDialog{}, ErrNotFound
	}
	return s.confirm.Open("delete", id, fmt.Sprintf("Delete customer with meter %s?", c.MeterNumber)), nil
}

func (s *CustomerScreen) CancelDelete() { s.confirm.Cancel() }

// ConfirmDelete deletes the customer of the open confirmation and removes it
// locally.
func (s *CustomerScreen) ConfirmDelete(ctx context.Context) error {
	d, err := s.confirm.Take("delete")
	if err == nil {
		err = s.delete(ctx, d.TargetID)
	}
	return s.env.settle(ctx, entityCustomer, "delete", d.TargetID, "", err,
		"Customer deleted successfully", "Failed to delete customer")
}

func (s *CustomerScreen) delete(ctx context.Context, id string) error {
	done, err := s.inflight.Begin(id, "delete")
	if err != nil {
		return err
	}
	defer done()

	if err := s.env.API.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.all = slices.DeleteFunc(s.all, func(c model.Customer) bool { return c.ID == id })
	s.mu.Unlock()
	return nil
}
