package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ctks/admin-console/internal/model"
)

// OpenStatuses is the filter of the requests table: only rows that still need
// an admin decision.
const OpenStatuses = "pending,approved"

func (c *Client) ListTokenRequests(ctx context.Context, page, limit int) (model.Page[model.TokenRequest], error) {
	var out listBody[model.TokenRequest]
	q := url.Values{
		"status": {OpenStatuses},
		"page":   {strconv.Itoa(page)},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.do(ctx, call{endpoint: "tokens.requests", method: http.MethodGet, path: "/tokens/admin/requests", query: q}, &out); err != nil {
		return model.Page[model.TokenRequest]{}, err
	}
	return out.page(page, limit), nil
}

func (c *Client) ApproveTokenRequest(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "tokens.approve", method: http.MethodPatch, path: "/tokens/admin/approve/" + pathID(id)}, nil)
}

func (c *Client) RejectTokenRequest(ctx context.Context, id, reason string) error {
	return c.do(ctx, call{
		endpoint: "tokens.reject",
		method:   http.MethodPatch,
		path:     "/tokens/admin/reject/" + pathID(id),
		body:     map[string]string{"rejectionReason": reason},
	}, nil)
}

// IssueInput is the issuance payload. TokenValue is the digits-only value.
type IssueInput struct {
	RequestID   string
	TokenValue  string
	MeterNumber string
	VendorID    string
	Units       decimal.Decimal
	Amount      decimal.Decimal
}

func (in IssueInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"requestId":   in.RequestID,
		"tokenValue":  in.TokenValue,
		"meterNumber": in.MeterNumber,
		"vendorId":    in.VendorID,
		"units":       json.Number(in.Units.String()),
		"amount":      json.Number(in.Amount.String()),
	})
}

func (c *Client) IssueToken(ctx context.Context, in IssueInput) (*model.Token, error) {
	var out model.MutationEnvelope[model.Token]
	err := c.do(ctx, call{endpoint: "tokens.issue", method: http.MethodPost, path: "/tokens/admin/issue", body: in}, &out)
	return out.Data, err
}

func (c *Client) ReissueToken(ctx context.Context, tokenID, value string) (*model.Token, error) {
	var out model.MutationEnvelope[model.Token]
	err := c.do(ctx, call{
		endpoint: "tokens.reissue",
		method:   http.MethodPatch,
		path:     "/tokens/admin/reissue/" + pathID(tokenID),
		body:     map[string]string{"tokenValue": value},
	}, &out)
	return out.Data, err
}

// TokenFilter narrows the history table. Empty fields are not sent.
type TokenFilter struct {
	VendorID    string
	MeterNumber string
}

func (c *Client) ListTokens(ctx context.Context, page, limit int, f TokenFilter) (model.Page[model.Token], error) {
	var out listBody[model.Token]
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if f.VendorID != "" {
		q.Set("vendorId", f.VendorID)
	}
	if f.MeterNumber != "" {
		q.Set("meterNumber", f.MeterNumber)
	}
	if err := c.do(ctx, call{endpoint: "tokens.history", method: http.MethodGet, path: "/tokens/admin/all-tokens", query: q}, &out); err != nil {
		return model.Page[model.Token]{}, err
	}
	return out.page(page, limit), nil
}

func (c *Client) GetToken(ctx context.Context, id string) (*model.Token, error) {
	var out model.MutationEnvelope[model.Token]
	if err := c.do(ctx, call{endpoint: "tokens.get", method: http.MethodGet, path: "/tokens/admin/tokens/" + pathID(id)}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
