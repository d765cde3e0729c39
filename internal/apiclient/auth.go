package apiclient

import (
	"context"
	"net/http"
)

type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a bearer token and role. The client need
// not carry a token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{
		endpoint: "auth.login",
		method:   http.MethodPost,
		path:     "/admin/login",
		body:     map[string]string{"username": username, "password": password},
	}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{endpoint: "auth.logout", method: http.MethodPost, path: "/admin/logout"}, nil)
}
