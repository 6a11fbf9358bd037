package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePermissions(t *testing.T) {
	t.Parallel()

	in := map[string]bool{
		"ListContent":         true,  // legacy alias, granted
		"Retrieve":            false, // legacy alias, denied stays denied
		"manageSafe":          true,  // already modern
		"somethingCustom":     true,  // unknown passes through
		"ValidateSafeContent": true,
	}

	out := NormalizePermissions(in)

	assert.Equal(t, map[string]bool{
		"listAccounts":                           true,
		"retrieveAccounts":                       false,
		"manageSafe":                             true,
		"somethingCustom":                        true,
		"initiateCPMAccountManagementOperations": true,
	}, out)
}

func TestNormalizePermissions_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NormalizePermissions(nil))
	assert.Empty(t, NormalizePermissions(map[string]bool{}))
}
