package console

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const (
	routeApprove  = "PATCH /tokens/admin/approve/{id}"
	routeReject   = "PATCH /tokens/admin/reject/{id}"
	routeIssue    = "POST /tokens/admin/issue"
	routeReissue  = "PATCH /tokens/admin/reissue/{id}"
	routeHistory  = "GET /tokens/admin/all-tokens"
	routeRequests = "GET /tokens/admin/requests"
)

func seedTokens(b *fakeBackend) {
	vendor := model.VendorRef{ID: "V1", Name: "Ade Power"}
	b.requests = []model.TokenRequest{
		{ID: "R123", Vendor: vendor, MeterNumber: "45012345678", Units: decimal.RequireFromString("12.5"), Amount: decimal.NewFromInt(5000), Status: model.RequestPending},
		{ID: "R124", Vendor: vendor, MeterNumber: "45099999999", Units: decimal.NewFromInt(4), Amount: decimal.NewFromInt(1600), Status: model.RequestPending},
		{ID: "R125", Vendor: vendor, MeterNumber: "45011111111", Units: decimal.NewFromInt(4), Amount: decimal.NewFromInt(1600), Status: model.RequestApproved},
	}
	b.customers = []model.Customer{
		{ID: "C1", MeterNumber: "45012345678", Disco: "IKEDC", Verification: model.Verification{
			IsVerified:   true,
			CryptoParams: model.CryptoParams{KRN: "1", SGC: "600675", TI: "1", MSN: "0101234567", MTK1: "a", MTK2: "b", RTK1: "c", RTK2: "d"},
		}},
	}
	b.tokens = []model.Token{
		{ID: "T-old", TokenValue: "11112222333344445555", MeterNumber: "45077777777", Status: model.TokenIssued, Vendor: model.VendorRef{ID: "V2"}},
		{ID: "T-used", TokenValue: "99998888777766665555", MeterNumber: "45066666666", Status: model.TokenUsed, Vendor: vendor},
	}
}

func newTokenScreen(t *testing.T) (*TokenScreen, *fakeBackend) {
	t.Helper()
	b, api := newBackend(t)
	seedTokens(b)
	s := NewTokenScreen(newEnv(api))
	t.Cleanup(s.Close)
	require.NoError(t, s.Refresh(context.Background()))
	return s, b
}

func row(v TokenView, id string) RequestRow {
	for _, r := range v.Requests {
		if r.ID == id {
			return r
		}
	}
	return RequestRow{}
}

func TestRefresh_JoinsVerificationByMeter(t *testing.T) {
	s, b := newTokenScreen(t)
	v := s.View()

	require.Len(t, v.Requests, 3)
	r := row(v, "R123")
	require.NotNil(t, r.CustomerVerification)
	assert.Equal(t, "0101234567", r.CustomerVerification.MSN)
	assert.Nil(t, row(v, "R124").CustomerVerification)

	assert.Equal(t, "pending,approved", b.LastQuery(routeRequests).Get("status"))
	assert.Equal(t, "5", b.LastQuery(routeRequests).Get("limit"))
	assert.Len(t, v.History, 2)
	assert.Len(t, v.Vendors, 0)
}

// approve R123 -> issue with a 16-digit token -> completed, history has the token.
func TestScenario_ApproveThenIssue(t *testing.T) {
	s, b := newTokenScreen(t)
	ctx := context.Background()

	require.NoError(t, s.Approve(ctx, "R123"))
	r := row(s.View(), "R123")
	assert.Equal(t, model.RequestApproved, r.Status)
	assert.Equal(t, []model.RowAction{model.ActionIssueToken, model.ActionReject}, r.Actions)

	form, err := s.OpenIssue("R123")
	require.NoError(t, err)
	assert.Equal(t, "45012345678", form.MeterNumber)
	assert.Equal(t, "0101234567", form.SerialNumber)
	assert.True(t, form.Amount.Equal(decimal.NewFromInt(5000)))

	form, err = s.SetIssueValue("123")
	require.NoError(t, err)
	assert.Equal(t, "Token must be 16-45 digits", form.Error)
	_, err = s.SubmitIssue(ctx)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "16-45")
	assert.Zero(t, b.Calls(routeIssue), "invalid token must not reach the backend")

	_, err = s.SetIssueValue("1234567890123456")
	require.NoError(t, err)
	tok, err := s.SubmitIssue(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)

	v := s.View()
	r = row(v, "R123")
	assert.Equal(t, model.RequestCompleted, r.Status)
	assert.Equal(t, "ISSUED", r.Badge)
	assert.Empty(t, r.Actions)
	assert.Nil(t, v.Issue)

	var found bool
	for _, h := range v.History {
		if h.MeterNumber == "45012345678" && h.TokenValue == "1234567890123456" {
			found = true
		}
	}
	assert.True(t, found, "history must be refetched after issuance")
	assert.Equal(t, "R123", b.LastBody(routeIssue)["requestId"])
}

func TestIssue_HyphenatedValueSendsDigits(t *testing.T) {
	s, b := newTokenScreen(t)
	_, err := s.OpenIssue("R125")
	require.NoError(t, err)
	_, err = s.SetIssueValue("1234-5678-9012-3456")
	require.NoError(t, err)
	_, err = s.SubmitIssue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234567890123456", b.LastBody(routeIssue)["tokenValue"])
}

func TestIssue_RefusedUnlessApproved(t *testing.T) {
	s, b := newTokenScreen(t)
	_, err := s.OpenIssue("R123")
	require.ErrorIs(t, err, ErrTransition)
	assert.Nil(t, s.View().Issue)
	assert.Zero(t, b.Calls(routeIssue))
}

// reject R124 without a reason -> confirm disabled; "Invalid meter" enables it.
func TestScenario_RejectNeedsReason(t *testing.T) {
	s, b := newTokenScreen(t)
	ctx := context.Background()

	d, err := s.OpenReject("R124")
	require.NoError(t, err)
	assert.False(t, d.CanConfirm)

	d, err = s.SetRejectReason("   ")
	require.NoError(t, err)
	assert.False(t, d.CanConfirm)
	require.Error(t, s.ConfirmReject(ctx))
	assert.Zero(t, b.Calls(routeReject))

	d, err = s.SetRejectReason("Invalid meter")
	require.NoError(t, err)
	assert.True(t, d.CanConfirm)
	require.NoError(t, s.ConfirmReject(ctx))

	r := row(s.View(), "R124")
	assert.Equal(t, model.RequestRejected, r.Status)
	assert.Equal(t, "Invalid meter", r.RejectionReason)
	assert.Equal(t, "Invalid meter", b.LastBody(routeReject)["rejectionReason"])
	assert.Nil(t, s.View().Reject)
}

func TestReject_AllowedFromPendingAndApprovedOnly(t *testing.T) {
	s, _ := newTokenScreen(t)

	_, err := s.OpenReject("R125")
	require.NoError(t, err, "approved requests can still be rejected")

	s.patchRequest("R125", func(r *model.TokenRequest) { r.Status = model.RequestCompleted })
	_, err = s.OpenReject("R125")
	require.ErrorIs(t, err, ErrTransition)
}

func TestApprove_FailureKeepsStatus(t *testing.T) {
	s, b := newTokenScreen(t)
	b.Fail(routeApprove, http.StatusBadRequest)

	err := s.Approve(context.Background(), "R123")
	require.Error(t, err)
	assert.Equal(t, model.RequestPending, row(s.View(), "R123").Status)

	notices := s.env.Notices.Active()
	require.NotEmpty(t, notices)
	last := notices[len(notices)-1]
	assert.Equal(t, SeverityError, last.Severity)
	assert.Equal(t, "backend says no", last.Message)
}

func TestApprove_OnlyFromPending(t *testing.T) {
	s, b := newTokenScreen(t)
	require.ErrorIs(t, s.Approve(context.Background(), "R125"), ErrTransition)
	require.ErrorIs(t, s.Approve(context.Background(), "nope"), ErrNotFound)
	assert.Zero(t, b.Calls(routeApprove))
}

// A double submission on one row is refused rather than sent twice; distinct
// rows proceed independently.
func TestApprove_SameRowDoubleSubmitRefused(t *testing.T) {
	s, b := newTokenScreen(t)
	open := b.Gate(routeApprove)
	defer open()

	ctx := context.Background()
	errs := make(chan error, 1)
	go func() { errs <- s.Approve(ctx, "R123") }()

	require.Eventually(t, func() bool {
		op, busy := s.inflight.Op("R123")
		return busy && op == "approve"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "approve", row(s.View(), "R123").Busy)

	err := s.Approve(ctx, "R123")
	require.ErrorIs(t, err, ErrRowBusy)

	// another row is not blocked by R123
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.OpenReject("R124")
		assert.NoError(t, err)
	}()
	wg.Wait()

	open()
	require.NoError(t, <-errs)
	assert.Equal(t, 1, b.Calls(routeApprove))
	assert.Equal(t, model.RequestApproved, row(s.View(), "R123").Status)
}

func TestReissue(t *testing.T) {
	s, b := newTokenScreen(t)
	ctx := context.Background()

	_, err := s.OpenReissue("T-used")
	require.ErrorIs(t, err, ErrTransition)

	f, err := s.OpenReissue("T-old")
	require.NoError(t, err)
	assert.Equal(t, "11112222333344445555", f.TokenValue)
	assert.Equal(t, "45077777777", f.MeterNumber)

	f, err = s.SetReissueValue("12ab")
	require.NoError(t, err)
	assert.Equal(t, "Token may contain only digits and hyphens", f.Error)
	_, err = s.SubmitReissue(ctx)
	require.Error(t, err)
	assert.Zero(t, b.Calls(routeReissue))

	_, err = s.SetReissueValue("5555-6666-7777-8888-9999")
	require.NoError(t, err)
	_, err = s.SubmitReissue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "55556666777788889999", b.LastBody(routeReissue)["tokenValue"])
	assert.Nil(t, s.View().Reissue)
	assert.GreaterOrEqual(t, b.Calls(routeHistory), 2)
}

func TestHistorySearch_DebouncedAndResetsPage(t *testing.T) {
	s, b := newTokenScreen(t)
	before := b.Calls(routeHistory)

	s.mu.Lock()
	s.histPager.Page = 3
	s.mu.Unlock()

	for _, term := range []string{"4", "450", "45077"} {
		s.SearchMeter(term)
	}
	assert.Equal(t, 1, s.View().HistoryPage.Page)

	require.Eventually(t, func() bool { return b.Calls(routeHistory) == before+1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before+1, b.Calls(routeHistory), "a burst of keystrokes is one fetch")

	q := b.LastQuery(routeHistory)
	assert.Equal(t, "45077", q.Get("meterNumber"))
	assert.Equal(t, "1", q.Get("page"))

	require.Eventually(t, func() bool {
		h := s.View().History
		return len(h) == 1 && h[0].ID == "T-old"
	}, time.Second, 5*time.Millisecond)
}

func TestFilterVendor_ExactAndResetsPage(t *testing.T) {
	s, b := newTokenScreen(t)
	s.mu.Lock()
	s.histPager.Page = 2
	s.mu.Unlock()

	require.NoError(t, s.FilterVendor(context.Background(), "V2"))
	q := b.LastQuery(routeHistory)
	assert.Equal(t, "V2", q.Get("vendorId"))
	assert.Equal(t, "1", q.Get("page"))

	v := s.View()
	require.Len(t, v.History, 1)
	assert.Equal(t, "T-old", v.History[0].ID)
}

func TestHistory_StaleResponseDropped(t *testing.T) {
	s, b := newTokenScreen(t)
	open := b.Gate(routeHistory)
	defer open()
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- s.RefreshHistory(ctx) }()
	require.Eventually(t, func() bool { return b.Calls(routeHistory) >= 2 }, time.Second, 5*time.Millisecond)

	filtered := make(chan error, 1)
	go func() { filtered <- s.FilterVendor(ctx, "V2") }()

	require.ErrorIs(t, <-slow, ErrStale, "the newer fetch cancels the outstanding one")
	open()
	require.NoError(t, <-filtered)
	assert.Len(t, s.View().History, 1)
}

func TestTokenDetails_JoinsCryptoParams(t *testing.T) {
	s, b := newTokenScreen(t)
	b.mu.Lock()
	b.tokens = append(b.tokens, model.Token{ID: "T9", MeterNumber: "45012345678", Status: model.TokenIssued})
	b.mu.Unlock()

	d, err := s.TokenDetails(context.Background(), "T9")
	require.NoError(t, err)
	require.NotNil(t, d.Verification)
	assert.Equal(t, "600675", d.Verification.SGC)

	d, err = s.TokenDetails(context.Background(), "T-old")
	require.NoError(t, err)
	assert.Nil(t, d.Verification)
}

func TestRequestsPaging_SizeChangeResetsPage(t *testing.T) {
	s, b := newTokenScreen(t)
	require.NoError(t, s.SetRequestsPage(context.Background(), 1))
	s.mu.Lock()
	s.reqPager.Page = 4
	s.mu.Unlock()

	require.NoError(t, s.SetRequestsSize(context.Background(), 2))
	assert.Equal(t, "1", b.LastQuery(routeRequests).Get("page"))
	v := s.View()
	assert.Equal(t, 1, v.RequestsPage.Page)
	assert.Equal(t, 2, v.RequestsPage.TotalPages)
	assert.Len(t, v.Requests, 2)
}
