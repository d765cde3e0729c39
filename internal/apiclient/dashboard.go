package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ctks/admin-console/internal/model"
)

func (c *Client) count(ctx context.Context, endpoint, path string) (int, error) {
	var out model.CountEnvelope
	if err := c.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: path}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) CustomerCount(ctx context.Context) (int, error) {
	return c.count(ctx, "dashboard.customers", "/admin/customers/count")
}

func (c *Client) PendingVendorCount(ctx context.Context) (int, error) {
	return c.count(ctx, "dashboard.pending_vendors", "/admin/pending-vendor-count")
}

func (c *Client) PendingTokenCount(ctx context.Context) (int, error) {
	return c.count(ctx, "dashboard.pending_tokens", "/admin/tokens/pending-count")
}

func (c *Client) Activities(ctx context.Context) ([]model.Activity, error) {
	var out listBody[model.Activity]
	if err := c.do(ctx, call{endpoint: "dashboard.activities", method: http.MethodGet, path: "/admin/activities"}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) Trends(ctx context.Context, g model.Granularity) ([]model.TrendPoint, error) {
	var out listBody[model.TrendPoint]
	q := url.Values{"granularity": {g.String()}}
	if err := c.do(ctx, call{endpoint: "dashboard.trends", method: http.MethodGet, path: "/admin/dashboard/trends", query: q}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) SalesReport(ctx context.Context, g model.Granularity, page, limit int) (model.Page[model.SalesReportRow], error) {
	var out listBody[model.SalesReportRow]
	q := url.Values{
		"granularity": {g.String()},
		"page":        {strconv.Itoa(page)},
		"limit":       {strconv.Itoa(limit)},
	}
	if err := c.do(ctx, call{endpoint: "dashboard.sales", method: http.MethodGet, path: "/admin/reports/sales", query: q}, &out); err != nil {
		return model.Page[model.SalesReportRow]{}, err
	}
	return out.page(page, limit), nil
}
