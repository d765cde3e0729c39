package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const (
	entityTokenRequest = "token_request"
	entityToken        = "token"
)

// RejectDialog collects the reason before a request is rejected. Confirm
// stays disabled until the reason is non-blank.
type RejectDialog struct {
	RequestID  string `json:"requestId"`
	Reason     string `json:"reason"`
	CanConfirm bool   `json:"canConfirm"`
}

// IssueForm is prefilled from an approved request; only TokenValue is editable.
type IssueForm struct {
	RequestID    string          `json:"requestId"`
	MeterNumber  string          `json:"meterNumber"`
	SerialNumber string          `json:"serialNumber"`
	VendorID     string          `json:"vendorId"`
	Vendor       string          `json:"vendor"`
	Units        decimal.Decimal `json:"units"`
	Amount       decimal.Decimal `json:"amount"`
	TokenValue   string          `json:"tokenValue"`
	Error        string          `json:"error,omitempty"`
}

// ReissueForm is prefilled from an issued token, seeded with its old value.
type ReissueForm struct {
	TokenID     string          `json:"tokenId"`
	MeterNumber string          `json:"meterNumber"`
	Disco       string          `json:"disco"`
	Units       decimal.Decimal `json:"units"`
	Amount      decimal.Decimal `json:"amount"`
	TokenValue  string          `json:"tokenValue"`
	Error       string          `json:"error,omitempty"`
}

type RequestRow struct {
	model.TokenRequest
	Actions []model.RowAction `json:"actions"`
	Badge   string            `json:"badge"`
	Busy    string            `json:"busy,omitempty"`
}

type TokenView struct {
	Requests     []RequestRow          `json:"requests"`
	RequestsPage PageInfo              `json:"requestsPage"`
	History      []model.Token         `json:"history"`
	HistoryPage  PageInfo              `json:"historyPage"`
	Filter       apiclient.TokenFilter `json:"filter"`
	Vendors      []model.Vendor        `json:"vendors"`
	Reject       *RejectDialog         `json:"rejectDialog,omitempty"`
	Issue        *IssueForm            `json:"issueForm,omitempty"`
	Reissue      *ReissueForm          `json:"reissueForm,omitempty"`
}

// TokenScreen is the token workflow: the open requests table and the token
// history table, paginated independently by the server.
type TokenScreen struct {
	env *Env

	mu        sync.RWMutex
	requests  []model.TokenRequest
	reqPager  Pager
	history   []model.Token
	histPager Pager
	filter    apiclient.TokenFilter
	vendors   []model.Vendor
	verif     map[string]model.Verification // by meter number
	reject    *RejectDialog
	issue     *IssueForm
	reissue   *ReissueForm

	inflight *InFlight
	latest   *Latest
	search   *Debouncer
}

func NewTokenScreen(env *Env) *TokenScreen {
	env = env.withDefaults()
	return &TokenScreen{
		env:       env,
		reqPager:  NewPager(1, env.PageSize),
		histPager: NewPager(1, env.PageSize),
		verif:     map[string]model.Verification{},
		inflight:  NewInFlight(),
		latest:    NewLatest(),
		search:    NewDebouncer(env.SearchDebounce),
	}
}

func (s *TokenScreen) Close() { s.search.Stop() }

// Refresh loads both tables and the vendor filter list.
func (s *TokenScreen) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshRequests(gctx) })
	g.Go(func() error { return s.RefreshHistory(gctx) })
	g.Go(func() error { return s.RefreshVendors(gctx) })
	return g.Wait()
}

// RefreshRequests fetches the current requests page and rebuilds the
// meter-number index from the full customer list. An index failure leaves
// requests unenriched rather than failing the table.
func (s *TokenScreen) RefreshRequests(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "requests")
	defer tk.Done()

	s.mu.RLock()
	page, size := s.reqPager.Page, s.reqPager.Size
	s.mu.RUnlock()

	var (
		res       model.Page[model.TokenRequest]
		customers []model.Customer
		idxErr    error
	)
	g, gctx := errgroup.WithContext(fctx)
	g.Go(func() error {
		var err error
		res, err = s.env.API.ListTokenRequests(gctx, page, size)
		return err
	})
	g.Go(func() error {
		customers, idxErr = s.env.API.ListCustomers(gctx)
		return nil
	})
	err := tk.Settle(g.Wait())
	if err != nil {
		s.env.fetchFailed(err, "Failed to fetch token requests")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !tk.Current() {
		return ErrStale
	}
	if idxErr == nil {
		s.verif = indexVerification(customers)
	} else {
		s.env.Log.Warn("customer index not refreshed", zap.Error(idxErr))
	}
	s.requests = s.enrich(res.Rows)
	s.reqPager.Page = res.Pagination.Page
	s.reqPager.SetTotal(res.Pagination.Total)
	return nil
}

func indexVerification(customers []model.Customer) map[string]model.Verification {
	idx := make(map[string]model.Verification, len(customers))
	for _, c := range customers {
		idx[c.MeterNumber] = c.Verification
	}
	return idx
}

// enrich joins each request with its customer's verification. Caller holds mu.
func (s *TokenScreen) enrich(rows []model.TokenRequest) []model.TokenRequest {
	out := make([]model.TokenRequest, len(rows))
	for i, r := range rows {
		if v, ok := s.verif[r.MeterNumber]; ok {
			v := v
			r.CustomerVerification = &v
		}
		out[i] = r
	}
	return out
}

func (s *TokenScreen) RefreshHistory(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "history")
	defer tk.Done()

	s.mu.RLock()
	page, size, filter := s.histPager.Page, s.histPager.Size, s.filter
	s.mu.RUnlock()

	res, err := s.env.API.ListTokens(fctx, page, size, filter)
	if err = tk.Settle(err); err != nil {
		s.env.fetchFailed(err, "Failed to fetch tokens")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !tk.Current() {
		return ErrStale
	}
	s.history = res.Rows
	s.histPager.Page = res.Pagination.Page
	s.histPager.SetTotal(res.Pagination.Total)
	return nil
}

func (s *TokenScreen) RefreshVendors(ctx context.Context) error {
	fctx, tk := s.latest.Begin(ctx, "vendors")
	defer tk.Done()

	vs, err := s.env.API.ListVendors(fctx)
	if err = tk.Settle(err); err != nil {
		s.env.fetchFailed(err, "Failed to fetch vendors")
		return err
	}
	s.mu.Lock()
	s.vendors = vs
	s.mu.Unlock()
	return nil
}

func (s *TokenScreen) SetRequestsPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.reqPager.Page = max(page, 1)
	s.mu.Unlock()
	return s.RefreshRequests(ctx)
}

func (s *TokenScreen) SetHistoryPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.histPager.Page = max(page, 1)
	s.mu.Unlock()
	return s.RefreshHistory(ctx)
}

func (s *TokenScreen) SetRequestsSize(ctx context.Context, n int) error {
	s.mu.Lock()
	s.reqPager.SetSize(n)
	s.mu.Unlock()
	return s.RefreshRequests(ctx)
}

func (s *TokenScreen) SetHistorySize(ctx context.Context, n int) error {
	s.mu.Lock()
	s.histPager.SetSize(n)
	s.mu.Unlock()
	return s.RefreshHistory(ctx)
}

// SearchMeter sets the meter-number filter, resets history to page 1 and
// schedules one debounced fetch for a burst of keystrokes.
func (s *TokenScreen) SearchMeter(term string) {
	s.mu.Lock()
	s.filter.MeterNumber = strings.TrimSpace(term)
	s.histPager.Reset()
	s.mu.Unlock()

	s.search.Trigger(func() {
		_ = s.RefreshHistory(context.Background())
	})
}

// FilterVendor sets the exact vendor filter and fetches immediately.
func (s *TokenScreen) FilterVendor(ctx context.Context, vendorID string) error {
	s.search.Stop()
	s.mu.Lock()
	s.filter.VendorID = strings.TrimSpace(vendorID)
	s.histPager.Reset()
	s.mu.Unlock()
	return s.RefreshHistory(ctx)
}

func (s *TokenScreen) findRequest(id string) (model.TokenRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			return r, true
		}
	}
	return model.TokenRequest{}, false
}

func (s *TokenScreen) findToken(id string) (model.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.history {
		if t.ID == id {
			return t, true
		}
	}
	return model.Token{}, false
}

func (s *TokenScreen) patchRequest(id string, fn func(*model.TokenRequest)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.requests {
		if s.requests[i].ID == id {
			fn(&s.requests[i])
			return
		}
	}
}

// requestFor looks up a request and checks the transition before any
// network call.
func (s *TokenScreen) requestFor(id string, allowed func(model.RequestStatus) bool) (model.TokenRequest, error) {
	req, ok := s.findRequest(id)
	if !ok {
		return req, ErrNotFound
	}
	if !allowed(req.Status) {
		return req, fmt.Errorf("%w: request %s is %s", ErrTransition, id, req.Status)
	}
	return req, nil
}

// Approve moves a pending request to approved. The row is patched in place
// on success; on failure it keeps its status.
func (s *TokenScreen) Approve(ctx context.Context, id string) error {
	err := s.approve(ctx, id)
	return s.env.settle(ctx, entityTokenRequest, "approve", id, "", err,
		"Request approved successfully", "Failed to approve request")
}

func (s *TokenScreen) approve(ctx context.Context, id string) error {
	if _, err := s.requestFor(id, model.RequestStatus.CanApprove); err != nil {
		return err
	}
	done, err := s.inflight.Begin(id, "approve")
	if err != nil {
		return err
	}
	defer done()

	if err := s.env.API.ApproveTokenRequest(ctx, id); err != nil {
		return err
	}
	s.patchRequest(id, func(r *model.TokenRequest) { r.Status = model.RequestApproved })
	return nil
}

func (s *TokenScreen) OpenReject(id string) (RejectDialog, error) {
	if _, err := s.requestFor(id, model.RequestStatus.CanReject); err != nil {
		s.env.Notices.Error(err, "")
		return RejectDialog{}, err
	}
	d := RejectDialog{RequestID: id}
	s.mu.Lock()
	s.reject = &d
	s.mu.Unlock()
	return d, nil
}

func (s *TokenScreen) SetRejectReason(reason string) (RejectDialog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject == nil {
		return RejectDialog{}, ErrDialogClosed
	}
	s.reject.Reason = reason
	s.reject.CanConfirm = strings.TrimSpace(reason) != ""
	return *s.reject, nil
}

func (s *TokenScreen) CancelReject() {
	s.mu.Lock()
	s.reject = nil
	s.mu.Unlock()
}

// ConfirmReject rejects the dialog's request with its reason. Allowed from
// pending and approved.
func (s *TokenScreen) ConfirmReject(ctx context.Context) error {
	s.mu.RLock()
	var d RejectDialog
	if s.reject != nil {
		d = *s.reject
	}
	s.mu.RUnlock()

	err := s.confirmReject(ctx, d)
	return s.env.settle(ctx, entityTokenRequest, "reject", d.RequestID, d.Reason, err,
		"Request rejected successfully", "Failed to reject request")
}

func (s *TokenScreen) confirmReject(ctx context.Context, d RejectDialog) error {
	if d.RequestID == "" {
		return ErrDialogClosed
	}
	reason, err := validation.Reason(d.Reason)
	if err != nil {
		return err
	}
	if _, err := s.requestFor(d.RequestID, model.RequestStatus.CanReject); err != nil {
		return err
	}
	done, err := s.inflight.Begin(d.RequestID, "reject")
	if err != nil {
		return err
	}
	defer done()

	if err := s.env.API.RejectTokenRequest(ctx, d.RequestID, reason); err != nil {
		return err
	}
	s.patchRequest(d.RequestID, func(r *model.TokenRequest) {
		r.Status = model.RequestRejected
		r.RejectionReason = reason
	})
	s.CancelReject()
	return nil
}

// OpenIssue opens the issue form for an approved request; any other status
// is refused before the network is touched.
func (s *TokenScreen) OpenIssue(id string) (IssueForm, error) {
	req, err := s.requestFor(id, model.RequestStatus.CanIssue)
	if err != nil {
		s.env.Notices.Error(err, "")
		return IssueForm{}, err
	}
	f := IssueForm{
		RequestID:   req.ID,
		MeterNumber: req.MeterNumber,
		VendorID:    req.Vendor.ID,
		Vendor:      req.Vendor.Label(),
		Units:       req.Units,
		Amount:      req.Amount,
	}
	if req.CustomerVerification != nil {
		f.SerialNumber = req.CustomerVerification.MSN
	}
	s.mu.Lock()
	s.issue = &f
	s.mu.Unlock()
	return f, nil
}

// SetIssueValue edits the token value and reports the live validation error.
func (s *TokenScreen) SetIssueValue(v string) (IssueForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issue == nil {
		return IssueForm{}, ErrDialogClosed
	}
	s.issue.TokenValue = v
	s.issue.Error = ""
	if _, err := validation.TokenValue(v); err != nil {
		s.issue.Error = apiclient.MessageOf(err, "")
	}
	return *s.issue, nil
}

func (s *TokenScreen) CancelIssue() {
	s.mu.Lock()
	s.issue = nil
	s.mu.Unlock()
}

// SubmitIssue posts the token for the form's request. On success the request
// becomes completed and the history table is refetched.
func (s *TokenScreen) SubmitIssue(ctx context.Context) (*model.Token, error) {
	s.mu.RLock()
	var f IssueForm
	if s.issue != nil {
		f = *s.issue
	}
	s.mu.RUnlock()

	tok, err := s.submitIssue(ctx, f)
	err = s.env.settle(ctx, entityTokenRequest, "issue", f.RequestID, f.MeterNumber, err,
		"Token issued successfully", "Failed to issue token")
	if err != nil {
		return nil, err
	}
	_ = s.RefreshHistory(ctx)
	return tok, nil
}

func (s *TokenScreen) submitIssue(ctx context.Context, f IssueForm) (*model.Token, error) {
	if f.RequestID == "" {
		return nil, ErrDialogClosed
	}
	digits, err := validation.TokenValue(f.TokenValue)
	if err != nil {
		s.setIssueError(apiclient.MessageOf(err, ""))
		return nil, err
	}
	if _, err := s.requestFor(f.RequestID, model.RequestStatus.CanIssue); err != nil {
		return nil, err
	}
	done, err := s.inflight.Begin(f.RequestID, "issue")
	if err != nil {
		return nil, err
	}
	defer done()

	tok, err := s.env.API.IssueToken(ctx, apiclient.IssueInput{
		RequestID:   f.RequestID,
		TokenValue:  digits,
		MeterNumber: f.MeterNumber,
		VendorID:    f.VendorID,
		Units:       f.Units,
		Amount:      f.Amount,
	})
	if err != nil {
		s.setIssueError(apiclient.MessageOf(err, "Failed to issue token"))
		return nil, err
	}
	s.patchRequest(f.RequestID, func(r *model.TokenRequest) { r.Status = model.RequestCompleted })
	s.CancelIssue()
	return tok, nil
}

func (s *TokenScreen) setIssueError(msg string) {
	s.mu.Lock()
	if s.issue != nil {
		s.issue.Error = msg
	}
	s.mu.Unlock()
}

// OpenReissue opens the reissue form for a history token in status issued.
func (s *TokenScreen) OpenReissue(tokenID string) (ReissueForm, error) {
	t, ok := s.findToken(tokenID)
	if !ok {
		return ReissueForm{}, ErrNotFound
	}
	if !t.Status.CanReissue() {
		err := fmt.Errorf("%w: token %s is %s", ErrTransition, tokenID, t.Status)
		s.env.Notices.Error(err, "")
		return ReissueForm{}, err
	}
	f := ReissueForm{
		TokenID:     t.ID,
		MeterNumber: t.MeterNumber,
		Disco:       t.Disco,
		Units:       t.Units,
		Amount:      t.Amount,
		TokenValue:  t.TokenValue,
	}
	s.mu.Lock()
	s.reissue = &f
	s.mu.Unlock()
	return f, nil
}

func (s *TokenScreen) SetReissueValue(v string) (ReissueForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reissue == nil {
		return ReissueForm{}, ErrDialogClosed
	}
	s.reissue.TokenValue = v
	s.reissue.Error = ""
	if _, err := validation.TokenValue(v); err != nil {
		s.reissue.Error = apiclient.MessageOf(err, "")
	}
	return *s.reissue, nil
}

func (s *TokenScreen) CancelReissue() {
	s.mu.Lock()
	s.reissue = nil
	s.mu.Unlock()
}

// SubmitReissue replaces the token value; the old token's final status is
// decided by the backend, so history is refetched rather than patched.
func (s *TokenScreen) SubmitReissue(ctx context.Context) (*model.Token, error) {
	s.mu.RLock()
	var f ReissueForm
	if s.reissue != nil {
		f = *s.reissue
	}
	s.mu.RUnlock()

	tok, err := s.submitReissue(ctx, f)
	err = s.env.settle(ctx, entityToken, "reissue", f.TokenID, f.MeterNumber, err,
		"Token reissued successfully", "Failed to reissue token")
	if err != nil {
		return nil, err
	}
	_ = s.RefreshHistory(ctx)
	return tok, nil
}

func (s *TokenScreen) submitReissue(ctx context.Context, f ReissueForm) (*model.Token, error) {
	if f.TokenID == "" {
		return nil, ErrDialogClosed
	}
	digits, err := validation.TokenValue(f.TokenValue)
	if err != nil {
		s.mu.Lock()
		if s.reissue != nil {
			s.reissue.Error = apiclient.MessageOf(err, "")
		}
		s.mu.Unlock()
		return nil, err
	}
	done, err := s.inflight.Begin(f.TokenID, "reissue")
	if err != nil {
		return nil, err
	}
	defer done()

	tok, err := s.env.API.ReissueToken(ctx, f.TokenID, digits)
	if err != nil {
		return nil, err
	}
	s.CancelReissue()
	return tok, nil
}

// TokenDetails joins a token with its customer's meter parameters. Read only.
func (s *TokenScreen) TokenDetails(ctx context.Context, tokenID string) (model.TokenDetails, error) {
	tok, err := s.env.API.GetToken(ctx, tokenID)
	if err != nil || tok == nil {
		cached, ok := s.findToken(tokenID)
		if !ok {
			if err == nil {
				err = ErrNotFound
			}
			s.env.Notices.Error(err, "Failed to fetch token details")
			return model.TokenDetails{}, err
		}
		tok = &cached
	}

	s.mu.RLock()
	v, ok := s.verif[tok.MeterNumber]
	s.mu.RUnlock()
	if !ok {
		customers, cerr := s.env.API.ListCustomers(ctx)
		if cerr == nil {
			idx := indexVerification(customers)
			s.mu.Lock()
			s.verif = idx
			s.mu.Unlock()
			v, ok = idx[tok.MeterNumber]
		}
	}

	d := model.TokenDetails{Token: *tok}
	if ok {
		d.Verification = &v
	}
	return d, nil
}

func (s *TokenScreen) View() TokenView {
	busy := s.inflight.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()
	v := TokenView{
		Requests:     make([]RequestRow, len(s.requests)),
		RequestsPage: s.reqPager.Info(),
		History:      append([]model.Token{}, s.history...),
		HistoryPage:  s.histPager.Info(),
		Filter:       s.filter,
		Vendors:      append([]model.Vendor{}, s.vendors...),
	}
	for i, r := range s.requests {
		v.Requests[i] = RequestRow{TokenRequest: r, Actions: r.Status.Actions(), Badge: r.Status.Badge(), Busy: busy[r.ID]}
	}
	if s.reject != nil {
		d := *s.reject
		v.Reject = &d
	}
	if s.issue != nil {
		f := *s.issue
		v.Issue = &f
	}
	if s.reissue != nil {
		f := *s.reissue
		v.Reissue = &f
	}
	return v
}
