// Package account defines the canonical desired state for one vault
// account and the normalizer that builds it from a raw input row.
package account

import (
	"strings"

	"github.com/systmms/accountsync/pkg/vault"
)

// Mode is the operation requested for a batch.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
	ModeDelete Mode = "delete"
)

// Secret types.
const (
	SecretTypePassword = "password"
	SecretTypeKey      = "key"
)

// DesiredAccount is the canonical target state for one account resource.
// Constructed once per input row, immutable thereafter.
type DesiredAccount struct {
	Line int

	Name       string
	Address    string
	UserName   string
	PlatformID string
	SafeName   string

	SecretType string
	Secret     string

	// nil means the input did not specify automatic management at all.
	AutomaticManagementEnabled *bool
	ManualManagementReason     string

	// nil means the column was absent from the input; an empty non-nil
	// value means "clear the attribute remotely".
	RemoteMachines                   *string
	AccessRestrictedToRemoteMachines *string

	// ExtensionProperties holds every non-reserved column with a
	// non-empty value, keyed by the column name as written in the header.
	ExtensionProperties map[string]string
}

// IdentityKey derives the string used to deduplicate failure records for
// the same logical account within one run. Prefers the display name,
// falling back to userName@address#platformId.
func (d *DesiredAccount) IdentityKey() string {
	if d.Name != "" {
		return d.Name
	}
	return d.UserName + "@" + d.Address + "#" + d.PlatformID
}

// NewAccount builds the account-creation request body.
func (d *DesiredAccount) NewAccount() vault.NewAccount {
	a := vault.NewAccount{
		Name:       d.Name,
		Address:    d.Address,
		UserName:   d.UserName,
		PlatformID: d.PlatformID,
		SafeName:   d.SafeName,
		SecretType: d.SecretType,
		Secret:     d.Secret,
	}
	if len(d.ExtensionProperties) > 0 {
		a.PlatformAccountProperties = d.ExtensionProperties
	}
	if d.AutomaticManagementEnabled != nil {
		a.SecretManagement = &vault.SecretManagement{
			AutomaticManagementEnabled: d.AutomaticManagementEnabled,
		}
		if !*d.AutomaticManagementEnabled {
			a.SecretManagement.ManualManagementReason = d.ManualManagementReason
		}
	}
	if d.RemoteMachines != nil || d.AccessRestrictedToRemoteMachines != nil {
		a.RemoteMachinesAccess = &vault.RemoteMachines{}
		if d.RemoteMachines != nil {
			a.RemoteMachinesAccess.RemoteMachines = SemicolonList(*d.RemoteMachines)
		}
		if d.AccessRestrictedToRemoteMachines != nil {
			a.RemoteMachinesAccess.AccessRestrictedToRemoteMachines = SemicolonList(*d.AccessRestrictedToRemoteMachines)
		}
	}
	return a
}

// Leaves returns the patchable scalar attributes of the desired state as
// slash-delimited paths relative to the account root. SafeName is the
// container identity, not a patchable attribute, and the secret travels
// through a dedicated call, so neither appears here. Remote machine
// fields carry remove-vs-replace semantics and are handled separately
// by the diff engine.
func (d *DesiredAccount) Leaves() map[string]string {
	leaves := make(map[string]string)
	if d.Name != "" {
		leaves["name"] = d.Name
	}
	if d.Address != "" {
		leaves["address"] = d.Address
	}
	if d.UserName != "" {
		leaves["userName"] = d.UserName
	}
	if d.PlatformID != "" {
		leaves["platformId"] = d.PlatformID
	}
	if d.AutomaticManagementEnabled != nil {
		if *d.AutomaticManagementEnabled {
			leaves["secretManagement/automaticManagementEnabled"] = "true"
		} else {
			leaves["secretManagement/automaticManagementEnabled"] = "false"
			leaves["secretManagement/manualManagementReason"] = d.ManualManagementReason
		}
	}
	for k, v := range d.ExtensionProperties {
		leaves["platformAccountProperties/"+k] = v
	}
	return leaves
}

// SemicolonList canonicalizes a comma-joined input list into the
// semicolon-joined form the vault stores.
func SemicolonList(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ";")
}
