package vault

// permissionAliases maps member-permission names as returned by older
// API generations to the names the current members endpoint accepts.
// Pure lookup table; names already in modern form pass through.
var permissionAliases = map[string]string{
	"ListContent":         "listAccounts",
	"Retrieve":            "retrieveAccounts",
	"Add":                 "addAccounts",
	"Update":              "updateAccountContent",
	"UpdateMetadata":      "updateAccountProperties",
	"Rename":              "renameAccounts",
	"Delete":              "deleteAccounts",
	"Unlock":              "unlockAccounts",
	"ViewAudit":           "viewAuditLog",
	"ViewMembers":         "viewSafeMembers",
	"RestrictedRetrieve":  "useAccounts",
	"AddRenameFolder":     "createFolders",
	"DeleteFolder":        "deleteFolders",
	"MoveFilesAndFolders": "moveAccountsAndFolders",
	"ManageSafe":          "manageSafe",
	"ManageSafeMembers":   "manageSafeMembers",
	"BackupSafe":          "backupSafe",
	"ValidateSafeContent": "initiateCPMAccountManagementOperations",
}

// NormalizePermissions translates a permission set to the modern API
// names, dropping nothing: unknown names pass through unchanged.
func NormalizePermissions(perms map[string]bool) map[string]bool {
	if len(perms) == 0 {
		return perms
	}
	out := make(map[string]bool, len(perms))
	for name, granted := range perms {
		if modern, ok := permissionAliases[name]; ok {
			name = modern
		}
		out[name] = granted
	}
	return out
}
