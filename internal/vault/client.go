// Package vault implements the HTTP client for the vault REST API.
//
// The exported surface consumed by the reconciliation engine is the
// interface in pkg/vault; this package provides its production
// implementation plus the typed transport error the engine dispatches on.
package vault

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/systmms/accountsync/internal/secure"
)

// DefaultTimeout bounds every individual API call.
const DefaultTimeout = 30 * time.Second

// Config holds the connection settings for one vault.
type Config struct {
	// URL is the PVWA base URL, e.g. https://vault.example.com/PasswordVault.
	URL string

	// AuthMethod selects the logon endpoint: cyberark, ldap or radius.
	AuthMethod string

	Username string

	// ConcurrentSession allows this logon to coexist with other sessions
	// for the same user.
	ConcurrentSession bool

	// ExternalToken is a pre-existing session token supplied by the
	// caller. When set, the client never logs on or off itself — it does
	// not own the session.
	ExternalToken string

	TLSSkipVerify bool
	CACert        string

	Timeout time.Duration
}

// Client talks to the vault REST API. It is not safe for concurrent use;
// the engine processes records strictly sequentially.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        Config

	// password is nil when an external token is supplied.
	password *secure.Buffer

	token     string
	ownsToken bool
}

// APIError is a non-2xx response from the vault, carrying the server's
// error code and message for dispatch and operator-facing output.
type APIError struct {
	Op         string
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("vault %s failed: %s (%s, HTTP %d)", e.Op, e.Message, e.ErrorCode, e.StatusCode)
	}
	return fmt.Sprintf("vault %s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Server error codes that mean "the thing you tried to create already
// exists". These are safe to continue from when idempotently ensuring
// safes and memberships.
var alreadyExistsCodes = map[string]bool{
	"SFWS0002": true, // safe already exists
	"SFWS0012": true, // safe member already exists
}

// IsAlreadyExists reports whether err is a vault rejection that only
// states the resource already exists.
func IsAlreadyExists(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	if alreadyExistsCodes[apiErr.ErrorCode] {
		return true
	}
	return apiErr.StatusCode == http.StatusConflict
}

// New creates a vault client. password may be nil when cfg.ExternalToken
// is set.
func New(cfg Config, password *secure.Buffer) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("vault URL is required")
	}
	if cfg.AuthMethod == "" {
		cfg.AuthMethod = "cyberark"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}
	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		transport.TLSClientConfig.RootCAs = pool
	}
	if cfg.TLSSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:  strings.TrimSuffix(cfg.URL, "/"),
		cfg:      cfg,
		password: password,
	}, nil
}

// invoke performs one API call. path must start with "/". When out is
// non-nil the response body is decoded into it.
func (c *Client) invoke(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(method+" "+path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError decodes the vault's error envelope into a typed error.
func (c *Client) apiError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		ErrorCode    string `json:"ErrorCode"`
		ErrorMessage string `json:"ErrorMessage"`
	}
	_ = json.Unmarshal(raw, &envelope)

	msg := envelope.ErrorMessage
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		ErrorCode:  envelope.ErrorCode,
		Message:    msg,
	}
}
