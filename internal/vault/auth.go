package vault

import (
	"context"
	"fmt"

	syncerrors "github.com/systmms/accountsync/internal/errors"
)

// Logon obtains the session token reused for every call in the run.
// When the caller supplied an external token, that token is adopted
// instead and the client never logs off a session it does not own.
func (c *Client) Logon(ctx context.Context) error {
	if c.cfg.ExternalToken != "" {
		c.token = c.cfg.ExternalToken
		c.ownsToken = false
		return nil
	}
	if c.password == nil {
		return syncerrors.AuthenticationError{Err: fmt.Errorf("no password source configured for user %s", c.cfg.Username)}
	}

	locked, err := c.password.Open()
	if err != nil {
		return syncerrors.AuthenticationError{Err: fmt.Errorf("failed to open credential buffer: %w", err)}
	}
	defer locked.Destroy()

	body := map[string]interface{}{
		"username":          c.cfg.Username,
		"password":          locked.String(),
		"concurrentSession": c.cfg.ConcurrentSession,
	}

	// The logon endpoint returns the session token as a bare JSON string.
	var token string
	path := fmt.Sprintf("/api/auth/%s/logon", c.cfg.AuthMethod)
	if err := c.invoke(ctx, "POST", path, body, &token); err != nil {
		return syncerrors.AuthenticationError{Err: err}
	}
	if token == "" {
		return syncerrors.AuthenticationError{Err: fmt.Errorf("logon returned an empty session token")}
	}

	c.token = token
	c.ownsToken = true
	return nil
}

// Logoff invalidates the session token, unless the session belongs to
// the caller.
func (c *Client) Logoff(ctx context.Context) error {
	if c.token == "" || !c.ownsToken {
		return nil
	}
	err := c.invoke(ctx, "POST", "/api/auth/logoff", struct{}{}, nil)
	c.token = ""
	c.ownsToken = false
	return err
}
