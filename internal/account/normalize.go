package account

import (
	"strconv"
	"strings"

	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/input"
)

// reservedColumns are the input columns with fixed meaning. Any other
// column is a platform extension property. Lookup is case-insensitive;
// the set is lowercased once here.
var reservedColumns = map[string]bool{
	"name":                        true,
	"username":                    true,
	"address":                     true,
	"safe":                        true,
	"platformid":                  true,
	"password":                    true,
	"key":                         true,
	"enableautomgmt":              true,
	"manualmgmtreason":            true,
	"groupname":                   true,
	"groupplatformid":             true,
	"remotemachineaddresses":      true,
	"restrictmachineaccesstolist": true,
	"sshkey":                      true,
}

// Normalize maps a raw input row into the canonical desired state.
//
// All string fields are trimmed before use; untrimmed values would
// false-positive against already-trimmed remote values in the diff.
// Returns ValidationError when the safe is missing, or — in create
// mode — when any of userName, address, platformId is empty.
func Normalize(row input.Row, mode Mode) (*DesiredAccount, error) {
	d := &DesiredAccount{
		Line:       row.Line,
		Name:       strings.TrimSpace(row.Get("name")),
		Address:    strings.TrimSpace(row.Get("address")),
		UserName:   strings.TrimSpace(row.Get("username")),
		PlatformID: strings.TrimSpace(row.Get("platformid")),
		SafeName:   strings.TrimSpace(row.Get("safe")),
	}

	if d.SafeName == "" {
		return nil, syncerrors.ValidationError{Line: row.Line, Field: "safe", Message: "safe name is required"}
	}
	if mode == ModeCreate {
		for field, value := range map[string]string{
			"username":   d.UserName,
			"address":    d.Address,
			"platformid": d.PlatformID,
		} {
			if value == "" {
				return nil, syncerrors.ValidationError{Line: row.Line, Field: field, Message: "required for account creation"}
			}
		}
	}

	// Secret selection: a key value wins over a password; a password
	// column counts as present even when its value is empty.
	keyVal := strings.TrimSpace(row.Get("key"))
	if keyVal == "" {
		keyVal = strings.TrimSpace(row.Get("sshkey"))
	}
	if keyVal != "" {
		d.SecretType = SecretTypeKey
		d.Secret = keyVal
	} else if pw, ok := row.Lookup("password"); ok {
		d.SecretType = SecretTypePassword
		d.Secret = strings.TrimSpace(pw)
	}

	if raw, ok := row.Lookup("enableautomgmt"); ok && strings.TrimSpace(raw) != "" {
		enabled := parseLenientBool(raw)
		d.AutomaticManagementEnabled = &enabled
		if !enabled {
			// May be empty; the diff engine supplies the default reason.
			d.ManualManagementReason = strings.TrimSpace(row.Get("manualmgmtreason"))
		}
	}

	if v, ok := row.Lookup("remotemachineaddresses"); ok {
		trimmed := strings.TrimSpace(v)
		d.RemoteMachines = &trimmed
	}
	if v, ok := row.Lookup("restrictmachineaccesstolist"); ok {
		trimmed := strings.TrimSpace(v)
		d.AccessRestrictedToRemoteMachines = &trimmed
	}

	// Every non-reserved column with a non-empty value is an extension
	// property; empty values are dropped, not propagated.
	for _, col := range row.Columns() {
		name := strings.TrimSpace(col)
		if reservedColumns[strings.ToLower(name)] {
			continue
		}
		value := strings.TrimSpace(row.Get(name))
		if value == "" {
			continue
		}
		if d.ExtensionProperties == nil {
			d.ExtensionProperties = make(map[string]string)
		}
		d.ExtensionProperties[name] = value
	}

	return d, nil
}

// parseLenientBool accepts y/yes and n/no on top of the strict boolean
// forms; anything unparseable is false.
func parseLenientBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return b
}

// IdentityFromRow derives the failure-dedup key directly from a raw row,
// for records that fail before normalization completes.
func IdentityFromRow(row input.Row) string {
	if name := strings.TrimSpace(row.Get("name")); name != "" {
		return name
	}
	return strings.TrimSpace(row.Get("username")) + "@" +
		strings.TrimSpace(row.Get("address")) + "#" +
		strings.TrimSpace(row.Get("platformid"))
}
