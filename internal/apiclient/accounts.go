package apiclient

import (
	"context"
	"net/http"

	"github.com/ctks/admin-console/internal/model"
)

func (c *Client) ListAccounts(ctx context.Context) ([]model.BankAccount, error) {
	var out listBody[model.BankAccount]
	if err := c.do(ctx, call{endpoint: "accounts.list", method: http.MethodGet, path: "/bank-accounts/fetch"}, &out); err != nil {
		return nil, err
	}
	return out.rows(), nil
}

func (c *Client) CreateAccount(ctx context.Context, in model.BankAccountInput) (*model.BankAccount, error) {
	var out model.MutationEnvelope[model.BankAccount]
	err := c.do(ctx, call{endpoint: "accounts.create", method: http.MethodPost, path: "/bank-accounts/create", body: in}, &out)
	return out.Data, err
}

func (c *Client) UpdateAccount(ctx context.Context, id string, in model.BankAccountInput) (*model.BankAccount, error) {
	var out model.MutationEnvelope[model.BankAccount]
	err := c.do(ctx, call{endpoint: "accounts.update", method: http.MethodPut, path: "/bank-accounts/update/" + pathID(id), body: in}, &out)
	return out.Data, err
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, call{endpoint: "accounts.delete", method: http.MethodDelete, path: "/bank-accounts/delete/" + pathID(id)}, nil)
}
