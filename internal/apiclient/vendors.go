package apiclient

import (
	"context"
	"net/http"

	"github.com/ctks/admin-console/internal/model"
)

func (c *Client) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	var out listBody[model.Vendor]
	if err := c.do(ctx, call{endpoint: "vendors.list", method: http.MethodGet, path: "/admin/vendors"}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) CreateVendor(ctx context.Context, in model.VendorInput) (*model.Vendor, error) {
	var out model.MutationEnvelope[model.Vendor]
	err := c.do(ctx, call{endpoint: "vendors.create", method: http.MethodPost, path: "/admin/vendors", body: in}, &out)
	return out.Data, err
}

func (c *Client) UpdateVendor(ctx context.Context, id string, in model.VendorInput) (*model.Vendor, error) {
	var out model.MutationEnvelope[model.Vendor]
	err := c.do(ctx, call{
		endpoint: "vendors.update",
		method:   http.MethodPatch,
		path:     "/admin/vendors/" + pathID(id) + "/edit",
		body:     in,
	}, &out)
	return out.Data, err
}

func (c *Client) ApproveVendor(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "vendors.approve", method: http.MethodPatch, path: "/admin/vendors/" + pathID(id) + "/approve"}, nil)
}

func (c *Client) DeactivateVendor(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "vendors.deactivate", method: http.MethodPatch, path: "/admin/vendors/" + pathID(id) + "/deactivate"}, nil)
}

func (c *Client) DeleteVendor(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "vendors.delete", method: http.MethodDelete, path: "/admin/vendors/" + pathID(id) + "/delete"}, nil)
}
