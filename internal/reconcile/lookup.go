// Package reconcile implements the engine that converges desired account
// state from the input batch onto the vault: lookup, safe management,
// diff/patch computation, per-record driving and outcome recording.
package reconcile

import (
	"context"
	"strings"

	"github.com/systmms/accountsync/internal/account"
	syncerrors "github.com/systmms/accountsync/internal/errors"
	api "github.com/systmms/accountsync/pkg/vault"
)

// SearchMode selects how candidate accounts are searched server-side.
type SearchMode string

const (
	// SearchModeAttribute searches by userName + address terms and
	// filters client-side on every non-empty identifying attribute.
	SearchModeAttribute SearchMode = "attribute"

	// SearchModeWideName searches by object name alone, vault-wide.
	SearchModeWideName SearchMode = "wide-name"

	// SearchModeNarrow lists the safe without a search term.
	SearchModeNarrow SearchMode = "narrow"
)

// Bypass skips the remote lookup entirely and asserts an answer. A
// deliberate trust escape hatch for pre-validated data, not a
// correctness guarantee.
type Bypass int

const (
	BypassOff Bypass = iota
	BypassAssumeMissing
	BypassAssumeExists
)

// LookupOptions configure account lookup for a run.
type LookupOptions struct {
	Mode SearchMode

	// IgnoreName drops the object-name filter in attribute mode even
	// when the input supplies a name.
	IgnoreName bool

	Bypass Bypass
}

// FindAccount queries the vault for the account matching the desired
// state and applies client-side tie-break filtering. Returns the single
// surviving candidate, or found=false when none survives. More than one
// survivor is an AmbiguousMatchError: duplicate accounts are refused,
// never resolved by picking the first.
//
// With BypassAssumeExists the returned AccountData is nil; only flows
// that never address the account by id may use that direction.
func FindAccount(ctx context.Context, client api.Client, d *account.DesiredAccount, opts LookupOptions) (api.AccountData, bool, error) {
	switch opts.Bypass {
	case BypassAssumeMissing:
		return nil, false, nil
	case BypassAssumeExists:
		return nil, true, nil
	}

	query := buildQuery(d, opts.Mode)
	candidates, err := client.SearchAccounts(ctx, query)
	if err != nil {
		return nil, false, err
	}

	var matches []api.AccountData
	for _, c := range candidates {
		if matchesDesired(c, d, opts) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return nil, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return nil, false, syncerrors.AmbiguousMatchError{
			Safe:     d.SafeName,
			Criteria: describeCriteria(d, opts),
			Count:    len(matches),
		}
	}
}

func buildQuery(d *account.DesiredAccount, mode SearchMode) api.SearchQuery {
	switch mode {
	case SearchModeWideName:
		return api.SearchQuery{Search: d.Name}
	case SearchModeNarrow:
		return api.SearchQuery{SafeName: d.SafeName}
	default:
		terms := strings.TrimSpace(d.UserName + " " + d.Address)
		return api.SearchQuery{SafeName: d.SafeName, Search: terms}
	}
}

func matchesDesired(c api.AccountData, d *account.DesiredAccount, opts LookupOptions) bool {
	switch opts.Mode {
	case SearchModeWideName, SearchModeNarrow:
		return d.Name != "" && c.Str("name") == d.Name
	}

	// Attribute mode: exact match on every supplied identifying
	// attribute, plus the object name unless explicitly ignored.
	pairs := []struct{ desired, existing string }{
		{d.UserName, c.Str("userName")},
		{d.Address, c.Str("address")},
		{d.PlatformID, c.Str("platformId")},
	}
	for _, p := range pairs {
		if p.desired != "" && p.desired != p.existing {
			return false
		}
	}
	if !opts.IgnoreName && d.Name != "" && c.Str("name") != d.Name {
		return false
	}
	return true
}

func describeCriteria(d *account.DesiredAccount, opts LookupOptions) string {
	switch opts.Mode {
	case SearchModeWideName, SearchModeNarrow:
		return "name=" + d.Name
	}
	return "userName=" + d.UserName + " address=" + d.Address + " platformId=" + d.PlatformID
}
