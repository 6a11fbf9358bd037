package vault

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	api "github.com/systmms/accountsync/pkg/vault"
)

// SearchAccounts returns every account matching the query. The server
// paginates via a continuation link; all pages are accumulated before
// returning, because filtering a partial result would undercount and
// break ambiguity detection.
func (c *Client) SearchAccounts(ctx context.Context, q api.SearchQuery) ([]api.AccountData, error) {
	params := url.Values{}
	if q.SafeName != "" {
		params.Set("filter", fmt.Sprintf("safeName eq %s", q.SafeName))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	path := "/api/accounts"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}

	var all []api.AccountData
	for {
		var page struct {
			Value    []api.AccountData `json:"value"`
			Count    int               `json:"count"`
			NextLink string            `json:"nextLink"`
		}
		if err := c.invoke(ctx, "GET", path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)

		if page.NextLink == "" {
			break
		}
		path = "/" + strings.TrimPrefix(page.NextLink, "/")
	}
	return all, nil
}

// AddAccount creates an account and returns the created resource.
func (c *Client) AddAccount(ctx context.Context, a api.NewAccount) (api.AccountData, error) {
	var created api.AccountData
	if err := c.invoke(ctx, "POST", "/api/accounts", a, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateAccount applies an ordered list of patch operations to an account.
func (c *Client) UpdateAccount(ctx context.Context, id string, ops []api.PatchOperation) (api.AccountData, error) {
	var updated api.AccountData
	path := "/api/accounts/" + url.PathEscape(id)
	if err := c.invoke(ctx, "PATCH", path, ops, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateSecret rotates the stored credential of an account.
func (c *Client) UpdateSecret(ctx context.Context, id, secret string) error {
	body := map[string]string{"newCredentials": secret}
	path := "/api/accounts/" + url.PathEscape(id) + "/password/update"
	return c.invoke(ctx, "POST", path, body, nil)
}

// DeleteAccount removes an account by id.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.invoke(ctx, "DELETE", "/api/accounts/"+url.PathEscape(id), nil, nil)
}

// notFound reports whether err is a plain 404.
func notFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}
