package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ctks/admin-console/internal/model"
)

func (c *Client) ListPrices(ctx context.Context) ([]model.DiscoPrice, error) {
	var out listBody[model.DiscoPrice]
	if err := c.do(ctx, call{endpoint: "pricing.list", method: http.MethodGet, path: "/admin/disco-pricing"}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) CreatePrice(ctx context.Context, name string, price decimal.Decimal) (*model.DiscoPrice, error) {
	var out model.MutationEnvelope[model.DiscoPrice]
	err := c.do(ctx, call{
		endpoint: "pricing.create",
		method:   http.MethodPost,
		path:     "/admin/disco-pricing",
		body:     map[string]any{"discoName": name, "pricePerUnit": json.Number(price.String())},
	}, &out)
	return out.Data, err
}

// UpdatePrice changes the price only; the name is immutable.
func (c *Client) UpdatePrice(ctx context.Context, name string, price decimal.Decimal) (*model.DiscoPrice, error) {
	var out model.MutationEnvelope[model.DiscoPrice]
	err := c.do(ctx, call{
		endpoint: "pricing.update",
		method:   http.MethodPatch,
		path:     "/admin/disco-pricing/" + pathID(name),
		body:     map[string]any{"pricePerUnit": json.Number(price.String())},
	}, &out)
	return out.Data, err
}

func (c *Client) DeletePrice(ctx context.Context, name string) error {
	return c.do(ctx, call{endpoint: "pricing.delete", method: http.MethodDelete, path: "/admin/disco-pricing/" + pathID(name)}, nil)
}

func (c *Client) EnablePrice(ctx context.Context, name string) error {
	return c.do(ctx, call{endpoint: "pricing.enable", method: http.MethodPatch, path: "/admin/disco-pricing/" + pathID(name) + "/enable"}, nil)
}

func (c *Client) DisablePrice(ctx context.Context, name string) error {
	return c.do(ctx, call{endpoint: "pricing.disable", method: http.MethodPatch, path: "/admin/disco-pricing/" + pathID(name) + "/disable"}, nil)
}
