package vault

import (
	"context"
	"net/url"

	api "github.com/systmms/accountsync/pkg/vault"
)

// GetSafe fetches a safe by name, returning (nil, nil) when it does
// not exist.
func (c *Client) GetSafe(ctx context.Context, name string) (*api.Safe, error) {
	var safe api.Safe
	err := c.invoke(ctx, "GET", "/api/safes/"+url.PathEscape(name), nil, &safe)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &safe, nil
}

// AddSafe creates a safe.
func (c *Client) AddSafe(ctx context.Context, s api.Safe) error {
	return c.invoke(ctx, "POST", "/api/safes", s, nil)
}

// ListSafeMembers returns the membership list of a safe.
func (c *Client) ListSafeMembers(ctx context.Context, safeName string) ([]api.Member, error) {
	var page struct {
		Value []api.Member `json:"value"`
	}
	path := "/api/safes/" + url.PathEscape(safeName) + "/members"
	if err := c.invoke(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// AddSafeMember grants one member on a safe. Permission names are
// normalized to the modern API form before sending.
func (c *Client) AddSafeMember(ctx context.Context, safeName string, m api.Member) error {
	m.Permissions = NormalizePermissions(m.Permissions)
	path := "/api/safes/" + url.PathEscape(safeName) + "/members"
	return c.invoke(ctx, "POST", path, m, nil)
}
