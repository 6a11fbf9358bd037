// Package vault defines the types and client interface for the vault REST API.
//
// The reconciliation engine depends only on the Client interface defined
// here; the HTTP implementation lives in internal/vault. Tests substitute
// in-memory fakes.
//
// Accounts returned by the vault are modelled as an opaque property bag
// (AccountData) rather than a struct: the engine never assumes a closed
// attribute set, because platforms attach arbitrary extension properties.
// Outbound payloads (NewAccount, Safe, Member, PatchOperation) are typed
// and serialized at the boundary only.
package vault

import (
	"context"
	"strconv"
)

// AccountData is an existing account exactly as the vault returned it.
// The engine only reads it and derives patch operations from the delta
// against the desired state.
type AccountData map[string]interface{}

// ID returns the opaque identifier used for update and delete addressing.
func (a AccountData) ID() string {
	return a.Str("id")
}

// Str returns the named attribute rendered as a string. Booleans
// canonicalize to the literal tokens "true"/"false"; absent attributes
// and nested objects render as "".
func (a AccountData) Str(key string) string {
	return Stringify(a[key])
}

// Object returns the named attribute as a nested object, or nil.
func (a AccountData) Object(key string) map[string]interface{} {
	if m, ok := a[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

// NewAccount is the request body for account creation.
type NewAccount struct {
	Name                      string            `json:"name,omitempty"`
	Address                   string            `json:"address"`
	UserName                  string            `json:"userName"`
	PlatformID                string            `json:"platformId"`
	SafeName                  string            `json:"safeName"`
	SecretType                string            `json:"secretType,omitempty"`
	Secret                    string            `json:"secret,omitempty"`
	PlatformAccountProperties map[string]string `json:"platformAccountProperties,omitempty"`
	SecretManagement          *SecretManagement `json:"secretManagement,omitempty"`
	RemoteMachinesAccess      *RemoteMachines   `json:"remoteMachinesAccess,omitempty"`
}

// SecretManagement controls automatic credential management for an account.
type SecretManagement struct {
	AutomaticManagementEnabled *bool  `json:"automaticManagementEnabled,omitempty"`
	ManualManagementReason     string `json:"manualManagementReason,omitempty"`
}

// RemoteMachines restricts which machines an account may be used from.
// Both fields are semicolon-joined lists on the wire.
type RemoteMachines struct {
	RemoteMachines                   string `json:"remoteMachines,omitempty"`
	AccessRestrictedToRemoteMachines string `json:"accessRestrictedToRemoteMachines,omitempty"`
}

// PatchOp is the kind of a single patch operation.
type PatchOp string

const (
	OpReplace PatchOp = "replace"
	OpAdd     PatchOp = "add"
	OpRemove  PatchOp = "remove"
)

// PatchOperation is one entry of a JSON-patch-like update body.
// Path is slash-delimited from the account root, e.g.
// "/secretManagement/automaticManagementEnabled".
type PatchOperation struct {
	Op    PatchOp     `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// SearchQuery selects candidate accounts server-side. SafeName scopes
// the search to one safe; Search is a free-text term list. Either may
// be empty.
type SearchQuery struct {
	SafeName string
	Search   string
}

// Safe is a named container owning accounts, with its own access-control
// membership list.
type Safe struct {
	SafeName                  string `json:"safeName"`
	Description               string `json:"description,omitempty"`
	ManagingCPM               string `json:"managingCPM,omitempty"`
	NumberOfVersionsRetention int    `json:"numberOfVersionsRetention,omitempty"`
	NumberOfDaysRetention     int    `json:"numberOfDaysRetention,omitempty"`
}

// Member is one entry of a safe's membership list.
type Member struct {
	MemberName  string          `json:"memberName"`
	MemberType  string          `json:"memberType,omitempty"`
	SearchIn    string          `json:"searchIn,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// Client is the vault API surface the reconciliation engine consumes.
//
// All calls are synchronous and honor context cancellation. Search
// results are fully accumulated across pagination before being returned.
// Non-2xx responses surface as *APIError carrying the server error code
// and message.
type Client interface {
	// Logon obtains the session token reused for every subsequent call.
	Logon(ctx context.Context) error

	// Logoff invalidates the session token.
	Logoff(ctx context.Context) error

	// SearchAccounts returns every account matching the query, following
	// the server's continuation link until exhausted.
	SearchAccounts(ctx context.Context, q SearchQuery) ([]AccountData, error)

	// AddAccount creates an account and returns the created resource.
	AddAccount(ctx context.Context, a NewAccount) (AccountData, error)

	// UpdateAccount applies an ordered list of patch operations.
	UpdateAccount(ctx context.Context, id string, ops []PatchOperation) (AccountData, error)

	// UpdateSecret rotates the stored credential of an account. Only
	// password-type secrets support this call.
	UpdateSecret(ctx context.Context, id, secret string) error

	// DeleteAccount removes an account by id.
	DeleteAccount(ctx context.Context, id string) error

	// GetSafe fetches a safe by name. Returns (nil, nil) when the safe
	// does not exist.
	GetSafe(ctx context.Context, name string) (*Safe, error)

	// AddSafe creates a safe.
	AddSafe(ctx context.Context, s Safe) error

	// ListSafeMembers returns the membership list of a safe.
	ListSafeMembers(ctx context.Context, safeName string) ([]Member, error)

	// AddSafeMember grants one member on a safe.
	AddSafeMember(ctx context.Context, safeName string, m Member) error
}

// Stringify renders a decoded JSON scalar as its canonical string form.
// Booleans become the literal tokens "true"/"false" so they compare
// cleanly against desired-state values parsed from text input. Nested
// objects and arrays render as "" — they are never compared as scalars.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; integral values must not grow
		// a trailing ".000000".
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return ""
	}
}
