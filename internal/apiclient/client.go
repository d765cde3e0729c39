package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/metrics"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/validation"
)

const maxBodyBytes = 10 << 20

// Kind classifies a failed call.
type Kind int

const (
	KindTransport  Kind = iota + 1 // no response, or breaker open
	KindValidation                 // 4xx with message, or success=false
	KindAuth                       // 401/403
	KindServer                     // 5xx
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a failed backend call.
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int
	Message  string // server-provided message, may be empty
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("api %s: %s (status=%d): %s", e.Endpoint, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("api %s: %s: %s", e.Endpoint, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an API error of the given kind.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// MessageOf picks the text shown to the admin: the server's (or the local
// validator's) message when there is one, the fallback otherwise.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return fallback
}

var ErrBackendUnavailable = errors.New("backend unavailable")

type Options struct {
	BaseURL       string
	Timeout       time.Duration // 0 = none
	FailThreshold int
	OpenFor       time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client talks to the one configured backend origin. A bare Client is
// anonymous; WithBearer derives a per-session client sharing the transport
// and breaker.
type Client struct {
	baseURL string
	http    *http.Client
	br      *Breaker
	log     *zap.Logger

	token          string
	onUnauthorized func()
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		br:      NewBreaker(opts.FailThreshold, opts.OpenFor),
		log:     log,
	}
}

// WithBearer returns a client that attaches token to every request and calls
// onUnauthorized when the backend answers 401/403.
func (c *Client) WithBearer(token string, onUnauthorized func()) *Client {
	cp := *c
	cp.token = token
	cp.onUnauthorized = onUnauthorized
	return &cp
}

// call describes one request.
type call struct {
	endpoint string // metrics/log label, e.g. "tokens.approve"
	method   string
	path     string
	query    url.Values
	body     any
}

func (c *Client) do(ctx context.Context, rq call, out any) error {
	start := time.Now()
	err := c.send(ctx, rq, out)

	outcome := "ok"
	var apiErr *Error
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = apiErr.Kind.String()
	default:
		outcome = "cancelled"
	}
	metrics.APIRequestsTotal.WithLabelValues(rq.endpoint, outcome).Inc()
	metrics.APIRequestSeconds.WithLabelValues(rq.endpoint).Observe(time.Since(start).Seconds())

	if err != nil && outcome != "cancelled" {
		c.log.Warn("api call failed",
			zap.String("endpoint", rq.endpoint),
			zap.String("method", rq.method),
			zap.String("path", rq.path),
			zap.Error(err))
	}
	return err
}

func (c *Client) send(ctx context.Context, rq call, out any) error {
	u := c.baseURL + rq.path
	if len(rq.query) > 0 {
		u += "?" + rq.query.Encode()
	}

	var body io.Reader
	if rq.body != nil {
		b, err := json.Marshal(rq.body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", rq.endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, rq.method, u, body)
	if err != nil {
		return &Error{Kind: KindTransport, Endpoint: rq.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if !c.br.Allow() {
		return &Error{Kind: KindTransport, Endpoint: rq.endpoint, Err: ErrBackendUnavailable}
	}
	err = c.exchange(ctx, req, rq.endpoint, out)
	c.br.Record(err)
	return err
}

// exchange performs one round trip and maps the answer onto the error taxonomy.
func (c *Client) exchange(ctx context.Context, req *http.Request, endpoint string, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: KindTransport, Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: KindTransport, Endpoint: endpoint, Status: res.StatusCode, Err: err}
	}

	if res.StatusCode/100 != 2 {
		return c.statusError(endpoint, res.StatusCode, raw)
	}

	// 2xx can still carry {success:false, message}
	var head struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &head)
		if head.Success != nil && !*head.Success {
			return &Error{Kind: KindValidation, Endpoint: endpoint, Status: res.StatusCode, Message: head.Message}
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServer, Endpoint: endpoint, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) statusError(endpoint string, status int, raw []byte) error {
	var eb model.ErrorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}

	kind := KindValidation
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case status >= 500:
		kind = KindServer
	}
	return &Error{Kind: kind, Endpoint: endpoint, Status: status, Message: msg}
}

func pathID(id string) string { return url.PathEscape(id) }
