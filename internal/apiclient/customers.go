package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ctks/admin-console/internal/model"
)

// ListCustomers fetches every customer. The "_" parameter defeats
// intermediate caches so a refresh after a mutation sees it.
func (c *Client) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var out listBody[model.Customer]
	q := url.Values{"_": {strconv.FormatInt(time.Now().UnixMilli(), 10)}}
	if err := c.do(ctx, call{endpoint: "customers.list", method: http.MethodGet, path: "/admin/customers", query: q}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) VerifyCustomer(ctx context.Context, id string, p model.CryptoParams) error {
	return c.do(ctx, call{
		endpoint: "customers.verify",
		method:   http.MethodPut,
		path:     "/admin/customers/" + pathID(id) + "/verify",
		body:     p,
	}, nil)
}

func (c *Client) RejectCustomer(ctx context.Context, id, reason string) (string, error) {
	var out model.MutationEnvelope[model.Customer]
	err := c.do(ctx, call{
		endpoint: "customers.reject",
		method:   http.MethodPut,
		path:     "/admin/customers/" + pathID(id) + "/reject",
		body:     map[string]string{"rejectionReason": reason},
	}, &out)
	return out.Message, err
}

// CustomerUpdate is the edit payload. The meter parameters travel only when
// the verified flag is set.
type CustomerUpdate struct {
	MeterNumber  string             `json:"meterNumber"`
	Disco        string             `json:"disco"`
	LastToken    string             `json:"lastToken"`
	Verification CustomerUpdateFlag `json:"verification"`
}

type CustomerUpdateFlag struct {
	IsVerified bool `json:"isVerified"`
	*model.CryptoParams
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerUpdate) (*model.Customer, error) {
	var out model.MutationEnvelope[model.Customer]
	err := c.do(ctx, call{
		endpoint: "customers.update",
		method:   http.MethodPut,
		path:     "/admin/customers/" + pathID(id) + "/update",
		body:     in,
	}, &out)
	return out.Data, err
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "customers.delete", method: http.MethodDelete, path: "/admin/customers/" + pathID(id) + "/delete"}, nil)
}
