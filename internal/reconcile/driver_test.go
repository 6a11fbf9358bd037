package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/accountsync/internal/account"
	"github.com/systmms/accountsync/internal/input"
	"github.com/systmms/accountsync/internal/report"
	api "github.com/systmms/accountsync/pkg/vault"
)

func tableFromCSV(t *testing.T, csv string) *input.Table {
	t.Helper()
	table, err := input.Read(strings.NewReader(csv))
	require.NoError(t, err)
	return table
}

func newTestDriver(client *fakeClient, opts Options) (*Driver, *RunContext) {
	run := NewRunContext()
	recorder := NewRecorder(run, nil, nil, testLogger())
	return NewDriver(client, recorder, run, testLogger(), opts), run
}

func withSafe(client *fakeClient, name string) *fakeClient {
	client.safes[name] = &api.Safe{SafeName: name}
	return client
}

const csvHeader = "name,userName,address,safe,platformId,password\n"

func TestDriver_CreateMissingAccount(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, client.added, 1)
	assert.Equal(t, "web01-admin", client.added[0].Name)
	assert.Equal(t, "s3cret", client.added[0].Secret)
}

func TestDriver_CreateDuplicateRefused(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, client.added)
}

func TestDriver_CreateDuplicateAllowed(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate, AllowDuplicateOnCreate: true})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Len(t, client.added, 1)
}

func TestDriver_CreateSkipDuplicates(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate, SkipDuplicates: true})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, client.added)
}

func TestDriver_UpdateDriftedAccount(t *testing.T) {
	t.Parallel()

	existing := remoteAdmin("12_3")
	existing["address"] = "web01" // desired will move it

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{existing}
	driver, _ := newTestDriver(client, Options{
		Mode:   account.ModeUpdate,
		Lookup: LookupOptions{IgnoreName: true},
	})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01.internal,WebServers,UnixSSH,newpw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)

	ops := client.patched["12_3"]
	require.Len(t, ops, 1)
	assert.Equal(t, api.OpReplace, ops[0].Op)
	assert.Equal(t, "/address", ops[0].Path)

	assert.Equal(t, "newpw", client.secrets["12_3"])
}

func TestDriver_UpdateNoChangesIsNoOp(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeUpdate})

	// No password column at all: no attribute drift, no secret update.
	table := tableFromCSV(t, "name,userName,address,safe,platformId\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, client.patched["12_3"])
	assert.Empty(t, client.secrets)
}

func TestDriver_UpdateMissingAccountFails(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	driver, _ := newTestDriver(client, Options{Mode: account.ModeUpdate})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, client.added)
}

func TestDriver_CreateOnUpdate(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	driver, _ := newTestDriver(client, Options{Mode: account.ModeUpdate, CreateOnUpdate: true})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, client.added, 1)
}

func TestDriver_KeySecretNotUpdatable(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeUpdate})

	table := tableFromCSV(t, "name,userName,address,safe,platformId,key\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,ssh-rsa AAAA\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, client.secrets)
}

func TestDriver_DeleteAccount(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")}
	driver, _ := newTestDriver(client, Options{Mode: account.ModeDelete})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []string{"12_3"}, client.deleted)
}

func TestDriver_DeleteMissingAccountFails(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	driver, _ := newTestDriver(client, Options{Mode: account.ModeDelete})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, client.deleted)
}

func TestDriver_SafeMissingCreationDisabled(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, client.added)
}

func TestDriver_InvalidRowDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	driver, _ := newTestDriver(client, Options{Mode: account.ModeCreate})

	table := tableFromCSV(t, csvHeader+
		"bad-row,admin,web01,,UnixSSH,pw\n"+ // missing safe
		"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, client.added, 1)
	assert.Equal(t, "web01-admin", client.added[0].Name)
}

func TestDriver_DuplicateFailuresCountOnce(t *testing.T) {
	t.Parallel()

	client := newFakeClient() // no safes, both rows fail the same way
	driver, run := newTestDriver(client, Options{Mode: account.ModeCreate})

	table := tableFromCSV(t, csvHeader+
		"web01-admin,admin,web01,WebServers,UnixSSH,pw\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, run.Failed())
}

func TestDriver_MissingTemplateSafeIsFatal(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	driver, _ := newTestDriver(client, Options{
		Mode:  account.ModeCreate,
		Safes: SafeOptions{Create: true, Template: "TemplateSafe"},
	})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	_, err := driver.Run(context.Background(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TemplateSafe")

	// Aborted before any record was attempted.
	assert.Empty(t, client.searchCalls)
	assert.Empty(t, client.added)
}

func TestDriver_TransientFailureAnnotated(t *testing.T) {
	t.Parallel()

	badPath := filepath.Join(t.TempDir(), "accounts.bad")

	client := withSafe(newFakeClient(), "WebServers")
	client.addErr = errors.New("dial tcp: i/o timeout")

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")

	run := NewRunContext()
	bad := report.NewSink(badPath, append(append([]string{}, table.Header...), "ErrorMessage"))
	recorder := NewRecorder(run, nil, bad, testLogger())
	driver := NewDriver(client, recorder, run, testLogger(), Options{Mode: account.ModeCreate})

	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)
	require.NoError(t, bad.Close())
	assert.Equal(t, 1, summary.Failed)

	data, err := os.ReadFile(badPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vault rejected create")
	assert.Contains(t, string(data), "transient; re-running the bad file may succeed")
}

func TestDriver_PermanentFailureNotAnnotated(t *testing.T) {
	t.Parallel()

	badPath := filepath.Join(t.TempDir(), "accounts.bad")

	client := withSafe(newFakeClient(), "WebServers")
	client.addErr = errors.New("platform 'UnixSSH' does not exist")

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")

	run := NewRunContext()
	bad := report.NewSink(badPath, append(append([]string{}, table.Header...), "ErrorMessage"))
	recorder := NewRecorder(run, nil, bad, testLogger())
	driver := NewDriver(client, recorder, run, testLogger(), Options{Mode: account.ModeCreate})

	_, err := driver.Run(context.Background(), table)
	require.NoError(t, err)
	require.NoError(t, bad.Close())

	data, err := os.ReadFile(badPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "transient")
}

func TestDriver_BypassAssumeMissingCreatesBlind(t *testing.T) {
	t.Parallel()

	client := withSafe(newFakeClient(), "WebServers")
	client.accounts = []api.AccountData{remoteAdmin("12_3")} // would be a duplicate
	driver, _ := newTestDriver(client, Options{
		Mode:   account.ModeCreate,
		Lookup: LookupOptions{Bypass: BypassAssumeMissing},
	})

	table := tableFromCSV(t, csvHeader+"web01-admin,admin,web01,WebServers,UnixSSH,pw\n")
	summary, err := driver.Run(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, client.searchCalls)
	assert.Len(t, client.added, 1)
}
