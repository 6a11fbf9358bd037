package reconcile

import (
	"sort"
	"strings"

	"github.com/systmms/accountsync/internal/account"
	api "github.com/systmms/accountsync/pkg/vault"
)

// DefaultManualReason is supplied when automatic management is being
// disabled and the input carries no reason.
const DefaultManualReason = "[No Reason]"

// immutableAttributes are identity or server-owned attributes that never
// appear in a patch. The secret travels through a dedicated call, and
// safeName is the container identity, not an account attribute.
var immutableAttributes = map[string]bool{
	"id":                       true,
	"secret":                   true,
	"safeName":                 true,
	"createdTime":              true,
	"categoryModificationTime": true,
	"lastModifiedTime":         true,
}

// Diff computes the minimal ordered patch turning the existing account
// into the desired state. An empty result means no changes: the record
// is an idempotent no-op and no write call is issued.
//
// Rules:
//   - A populated existing scalar is only replaced by a genuinely
//     different, non-empty desired value; empty desired values never
//     overwrite anything.
//   - Disabling automatic management always pairs the replace with an
//     add of the manual reason (desired reason or DefaultManualReason),
//     in that order.
//   - Extension properties are additive: an add is emitted only when the
//     desired value differs from the existing one at the same path.
//   - Remote machine lists clear with a remove (value omitted) when the
//     desired value is empty, otherwise replace with a semicolon-joined
//     list. A remove is only emitted when there is something to remove,
//     so re-diffing after apply yields no further operations.
func Diff(d *account.DesiredAccount, existing api.AccountData) []api.PatchOperation {
	have := existingLeaves(existing)
	leaves := d.Leaves()

	paths := make([]string, 0, len(leaves))
	for p := range leaves {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var ops []api.PatchOperation
	reasonEmitted := false

	for _, path := range paths {
		desired := leaves[path]

		if path == "secretManagement/manualManagementReason" {
			// Emitted alongside the management toggle below; a bare
			// reason change only applies when the input supplied one.
			if reasonEmitted || desired == "" || desired == have[path] {
				continue
			}
			ops = append(ops, api.PatchOperation{Op: api.OpReplace, Path: "/" + path, Value: desired})
			continue
		}

		if desired == "" || desired == have[path] {
			continue
		}

		if strings.HasPrefix(path, "platformAccountProperties/") {
			ops = append(ops, api.PatchOperation{Op: api.OpAdd, Path: "/" + path, Value: desired})
			continue
		}

		ops = append(ops, api.PatchOperation{Op: api.OpReplace, Path: "/" + path, Value: desired})

		if path == "secretManagement/automaticManagementEnabled" && desired == "false" {
			reason := leaves["secretManagement/manualManagementReason"]
			if reason == "" {
				reason = DefaultManualReason
			}
			ops = append(ops, api.PatchOperation{Op: api.OpAdd, Path: "/secretManagement/manualManagementReason", Value: reason})
			reasonEmitted = true
		}
	}

	ops = append(ops, remoteMachineOps(d, existing)...)
	return ops
}

// existingLeaves flattens the existing account's own attribute set into
// slash-delimited paths, recursing one level into nested objects and
// excluding identity/immutable attributes. Booleans canonicalize to
// "true"/"false" so they compare against normalized input values.
func existingLeaves(a api.AccountData) map[string]string {
	out := make(map[string]string)
	for key, value := range a {
		if immutableAttributes[key] {
			continue
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for leaf, leafValue := range nested {
				out[key+"/"+leaf] = api.Stringify(leafValue)
			}
			continue
		}
		out[key] = api.Stringify(value)
	}
	return out
}

func remoteMachineOps(d *account.DesiredAccount, existing api.AccountData) []api.PatchOperation {
	nested := existing.Object("remoteMachinesAccess")

	var ops []api.PatchOperation
	emit := func(leaf string, desired *string) {
		if desired == nil {
			return
		}
		var have string
		if nested != nil {
			have = api.Stringify(nested[leaf])
		}
		path := "/remoteMachinesAccess/" + leaf
		want := account.SemicolonList(*desired)
		switch {
		case want == "" && have != "":
			ops = append(ops, api.PatchOperation{Op: api.OpRemove, Path: path})
		case want != "" && want != have:
			ops = append(ops, api.PatchOperation{Op: api.OpReplace, Path: path, Value: want})
		}
	}

	emit("remoteMachines", d.RemoteMachines)
	emit("accessRestrictedToRemoteMachines", d.AccessRestrictedToRemoteMachines)
	return ops
}
