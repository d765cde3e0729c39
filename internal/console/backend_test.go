package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/model"
)

// fakeBackend is an in-memory CTKs API good enough to drive the screens.
type fakeBackend struct {
	mu        sync.Mutex
	requests  []model.TokenRequest
	tokens    []model.Token
	customers []model.Customer
	vendors   []model.Vendor
	prices    []model.DiscoPrice
	accounts  []model.BankAccount
	upgrades  []model.UpgradeRequest
	counts    map[string]int
	trends    []model.TrendPoint
	sales     []model.SalesReportRow

	calls   map[string]int
	queries map[string][]url.Values
	bodies  map[string][]map[string]any
	fail    map[string]int
	gates   map[string]chan struct{}
	seq     int
}

type handler func(w http.ResponseWriter, r *http.Request, body map[string]any)

func newBackend(t *testing.T) (*fakeBackend, *apiclient.Client) {
	t.Helper()
	b := &fakeBackend{
		counts:  map[string]int{},
		calls:   map[string]int{},
		queries: map[string][]url.Values{},
		bodies:  map[string][]map[string]any{},
		fail:    map[string]int{},
		gates:   map[string]chan struct{}{},
	}
	mux := http.NewServeMux()
	for pattern, h := range b.routes() {
		mux.HandleFunc(pattern, b.wrap(pattern, h))
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, apiclient.New(apiclient.Options{BaseURL: srv.URL, FailThreshold: 1000})
}

func (b *fakeBackend) wrap(pattern string, h handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		b.mu.Lock()
		b.calls[pattern]++
		b.queries[pattern] = append(b.queries[pattern], r.URL.Query())
		b.bodies[pattern] = append(b.bodies[pattern], body)
		status := b.fail[pattern]
		gate := b.gates[pattern]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "backend says no"})
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		h(w, r, body)
	}
}

func (b *fakeBackend) Calls(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[pattern]
}

func (b *fakeBackend) LastQuery(pattern string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	qs := b.queries[pattern]
	if len(qs) == 0 {
		return nil
	}
	return qs[len(qs)-1]
}

func (b *fakeBackend) LastBody(pattern string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	bs := b.bodies[pattern]
	if len(bs) == 0 {
		return nil
	}
	return bs[len(bs)-1]
}

func (b *fakeBackend) Fail(pattern string, status int) {
	b.mu.Lock()
	b.fail[pattern] = status
	b.mu.Unlock()
}

// Gate blocks pattern until the returned func is called.
func (b *fakeBackend) Gate(pattern string) func() {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[pattern] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, pattern)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	reply(w, map[string]any{"success": true, "message": "ok", "data": data})
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	reply(w, map[string]any{"message": "not found"})
}

func paginate[T any](rows []T, q url.Values) map[string]any {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	total := len(rows)
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return map[string]any{
		"success":    true,
		"data":       rows[start:end],
		"pagination": model.Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages},
	}
}

func str(body map[string]any, k string) string {
	s, _ := body[k].(string)
	return s
}

func num(body map[string]any, k string) decimal.Decimal {
	switch v := body[k].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, _ := decimal.NewFromString(v)
		return d
	}
	return decimal.Zero
}

func findIdx[T any](rows []T, match func(T) bool) int {
	return slices.IndexFunc(rows, match)
}

func (b *fakeBackend) routes() map[string]handler {
	return map[string]handler{
		"POST /admin/login": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, map[string]string{"token": "tkn", "role": "admin"})
		},
		"POST /admin/logout": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, map[string]any{"success": true})
		},

		"GET /tokens/admin/requests": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			allowed := strings.Split(r.URL.Query().Get("status"), ",")
			var rows []model.TokenRequest
			for _, rq := range b.requests {
				if slices.Contains(allowed, string(rq.Status)) {
					rows = append(rows, rq)
				}
			}
			reply(w, paginate(rows, r.URL.Query()))
		},
		"PATCH /tokens/admin/approve/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.requests, func(x model.TokenRequest) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.requests[i].Status = model.RequestApproved
			ok(w, b.requests[i])
		},
		"PATCH /tokens/admin/reject/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.requests, func(x model.TokenRequest) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.requests[i].Status = model.RequestRejected
			b.requests[i].RejectionReason = str(body, "rejectionReason")
			ok(w, b.requests[i])
		},
		"POST /tokens/admin/issue": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.requests, func(x model.TokenRequest) bool { return x.ID == str(body, "requestId") })
			if i < 0 {
				notFound(w)
				return
			}
			b.requests[i].Status = model.RequestCompleted
			b.seq++
			tok := model.Token{
				ID:          fmt.Sprintf("T%d", b.seq),
				TokenValue:  str(body, "tokenValue"),
				MeterNumber: str(body, "meterNumber"),
				Units:       num(body, "units"),
				Amount:      num(body, "amount"),
				Status:      model.TokenIssued,
				Vendor:      b.requests[i].Vendor,
				CreatedAt:   time.Now().UTC(),
			}
			b.tokens = append([]model.Token{tok}, b.tokens...)
			ok(w, tok)
		},
		"PATCH /tokens/admin/reissue/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.tokens, func(x model.Token) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.tokens[i].TokenValue = str(body, "tokenValue")
			ok(w, b.tokens[i])
		},
		"GET /tokens/admin/all-tokens": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			q := r.URL.Query()
			var rows []model.Token
			for _, t := range b.tokens {
				if m := q.Get("meterNumber"); m != "" && !strings.Contains(t.MeterNumber, m) {
					continue
				}
				if v := q.Get("vendorId"); v != "" && t.Vendor.ID != v {
					continue
				}
				rows = append(rows, t)
			}
			reply(w, paginate(rows, q))
		},
		"GET /tokens/admin/tokens/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.tokens, func(x model.Token) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			ok(w, b.tokens[i])
		},

		"GET /admin/customers": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.customers)
		},
		"PUT /admin/customers/{id}/verify": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.customers, func(x model.Customer) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			now := time.Now().UTC()
			v := &b.customers[i].Verification
			v.IsVerified, v.Rejected, v.VerifiedAt = true, false, &now
			v.KRN, v.SGC, v.TI, v.MSN = str(body, "KRN"), str(body, "SGC"), str(body, "TI"), str(body, "MSN")
			v.MTK1, v.MTK2, v.RTK1, v.RTK2 = str(body, "MTK1"), str(body, "MTK2"), str(body, "RTK1"), str(body, "RTK2")
			ok(w, b.customers[i])
		},
		"PUT /admin/customers/{id}/reject": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.customers, func(x model.Customer) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.customers[i].Verification.Rejected = true
			b.customers[i].Verification.RejectionReason = str(body, "rejectionReason")
			reply(w, map[string]any{"success": true, "message": "Customer rejected"})
		},
		"PUT /admin/customers/{id}/update": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.customers, func(x model.Customer) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			c := &b.customers[i]
			c.MeterNumber, c.Disco, c.LastToken = str(body, "meterNumber"), str(body, "disco"), str(body, "lastToken")
			if v, _ := body["verification"].(map[string]any); v != nil {
				c.Verification.IsVerified, _ = v["isVerified"].(bool)
				if c.Verification.IsVerified {
					c.Verification.KRN = str(v, "KRN")
					c.Verification.MSN = str(v, "MSN")
				}
			}
			ok(w, *c)
		},
		"DELETE /admin/customers/{id}/delete": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.customers = slices.DeleteFunc(b.customers, func(x model.Customer) bool { return x.ID == r.PathValue("id") })
			ok(w, nil)
		},

		"GET /admin/vendors": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.vendors)
		},
		"POST /admin/vendors": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.seq++
			v := model.Vendor{ID: fmt.Sprintf("V%d", b.seq), Username: str(body, "username"), Email: str(body, "email"), CreatedAt: time.Now().UTC()}
			b.vendors = append(b.vendors, v)
			ok(w, v)
		},
		"PATCH /admin/vendors/{id}/edit": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.vendors, func(x model.Vendor) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.vendors[i].Username, b.vendors[i].Email = str(body, "username"), str(body, "email")
			ok(w, b.vendors[i])
		},
		"PATCH /admin/vendors/{id}/approve": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"PATCH /admin/vendors/{id}/deactivate": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"DELETE /admin/vendors/{id}/delete": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.vendors = slices.DeleteFunc(b.vendors, func(x model.Vendor) bool { return x.ID == r.PathValue("id") })
			ok(w, nil)
		},

		"GET /admin/disco-pricing": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.prices)
		},
		"POST /admin/disco-pricing": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.seq++
			p := model.DiscoPrice{ID: fmt.Sprintf("P%d", b.seq), DiscoName: str(body, "discoName"), PricePerUnit: num(body, "pricePerUnit")}
			b.prices = append(b.prices, p)
			ok(w, p)
		},
		"PATCH /admin/disco-pricing/{name}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"DELETE /admin/disco-pricing/{name}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"PATCH /admin/disco-pricing/{name}/enable": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"PATCH /admin/disco-pricing/{name}/disable": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},

		"GET /bank-accounts/fetch": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.accounts)
		},
		"POST /bank-accounts/create": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.seq++
			a := model.BankAccount{ID: fmt.Sprintf("A%d", b.seq), AccountNumber: str(body, "accountNumber"), BankName: str(body, "bankName"), AccountName: str(body, "accountName")}
			b.accounts = append(b.accounts, a)
			ok(w, a)
		},
		"PUT /bank-accounts/update/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			i := findIdx(b.accounts, func(x model.BankAccount) bool { return x.ID == r.PathValue("id") })
			if i < 0 {
				notFound(w)
				return
			}
			b.accounts[i].BankName = str(body, "bankName")
			ok(w, b.accounts[i])
		},
		"DELETE /bank-accounts/delete/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			b.accounts = slices.DeleteFunc(b.accounts, func(x model.BankAccount) bool { return x.ID == r.PathValue("id") })
			ok(w, nil)
		},

		"GET /admin/pending-upgrades": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.upgrades)
		},
		"PATCH /admin/complete/{vendor}/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},
		"PATCH /admin/reject/{vendor}/{id}": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, nil)
		},

		"GET /admin/customers/count": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, map[string]int{"count": b.counts["customers"]})
		},
		"GET /admin/pending-vendor-count": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, map[string]int{"count": b.counts["vendors"]})
		},
		"GET /admin/tokens/pending-count": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, map[string]int{"count": b.counts["tokens"]})
		},
		"GET /admin/activities": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, []model.Activity{{Action: "Approved vendor", Timestamp: "now", User: "admin"}})
		},
		"GET /admin/dashboard/trends": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			ok(w, b.trends)
		},
		"GET /admin/reports/sales": func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			reply(w, paginate(b.sales, r.URL.Query()))
		},
	}
}

func newEnv(api *apiclient.Client) *Env {
	return &Env{API: api, Actor: "root", PageSize: 5, SearchDebounce: 30 * time.Millisecond}
}
