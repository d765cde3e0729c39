package apiclient

import (
	"context"
	"net/http"

	"github.com/ctks/admin-console/internal/model"
)

func (c *Client) ListPendingUpgrades(ctx context.Context) ([]model.UpgradeRequest, error) {
	var out listBody[model.UpgradeRequest]
	if err := c.do(ctx, call{endpoint: "upgrades.list", method: http.MethodGet, path: "/admin/pending-upgrades"}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) CompleteUpgrade(ctx context.Context, vendorID, id string) error {
	return c.do(ctx, call{
		endpoint: "upgrades.complete",
		method:   http.MethodPatch,
		path:     "/admin/complete/" + pathID(vendorID) + "/" + pathID(id),
	}, nil)
}

func (c *Client) RejectUpgrade(ctx context.Context, vendorID, id string) error {
	return c.do(ctx, call{
		endpoint: "upgrades.reject",
		method:   http.MethodPatch,
		path:     "/admin/reject/" + pathID(vendorID) + "/" + pathID(id),
	}, nil)
}
