package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/accountsync/internal/report"
)

func TestRecorder_GoodScrubsSecrets(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	goodPath := filepath.Join(tmpDir, "accounts.good")

	table := tableFromCSV(t, "name,userName,address,safe,platformId,password\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")

	run := NewRunContext()
	good := report.NewSink(goodPath, table.Header)
	recorder := NewRecorder(run, good, nil, testLogger())

	recorder.RecordGood(table.Rows[0])
	require.NoError(t, good.Close())

	data, err := os.ReadFile(goodPath)
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "s3cret")
	assert.Contains(t, content, "web01-admin")
	assert.Equal(t, 1, run.Succeeded)
}

func TestRecorder_BadKeepsSecretsAndAppendsMessage(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	badPath := filepath.Join(tmpDir, "accounts.bad")

	table := tableFromCSV(t, "name,userName,address,safe,platformId,password\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")

	run := NewRunContext()
	bad := report.NewSink(badPath, append(append([]string{}, table.Header...), "ErrorMessage"))
	recorder := NewRecorder(run, nil, bad, testLogger())

	recorder.RecordBad(table.Rows[0], "web01-admin", "account does not exist")
	require.NoError(t, bad.Close())

	data, err := os.ReadFile(badPath)
	require.NoError(t, err)
	content := string(data)

	// The bad file is re-fed after remediation, so secrets survive.
	assert.Contains(t, content, "s3cret")
	assert.Contains(t, content, "account does not exist")
	assert.Contains(t, content, "ErrorMessage")
	assert.Equal(t, 1, run.Failed())
}

func TestRecorder_BadRedactsSecretInMessage(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	badPath := filepath.Join(tmpDir, "accounts.bad")

	table := tableFromCSV(t, "name,userName,address,safe,platformId,password\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,s3cret-value\n")

	run := NewRunContext()
	bad := report.NewSink(badPath, append(append([]string{}, table.Header...), "ErrorMessage"))
	recorder := NewRecorder(run, nil, bad, testLogger())

	recorder.RecordBad(table.Rows[0], "web01-admin",
		`vault rejected create: invalid value "s3cret-value"`)
	require.NoError(t, bad.Close())

	data, err := os.ReadFile(badPath)
	require.NoError(t, err)
	content := string(data)

	// The password column survives for re-feeding, but the error message
	// never echoes it.
	assert.Contains(t, content, "s3cret-value")
	assert.Contains(t, content, `invalid value "[REDACTED]"`)
	assert.NotContains(t, content, `invalid value "s3cret-value"`)
}

func TestRecorder_BadDedupByIdentity(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	badPath := filepath.Join(tmpDir, "accounts.bad")

	table := tableFromCSV(t, "name,userName,address,safe,platformId\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH\n")

	run := NewRunContext()
	bad := report.NewSink(badPath, append(append([]string{}, table.Header...), "ErrorMessage"))
	recorder := NewRecorder(run, nil, bad, testLogger())

	recorder.RecordBad(table.Rows[0], "web01-admin", "first failure")
	recorder.RecordBad(table.Rows[1], "web01-admin", "second failure")
	require.NoError(t, bad.Close())

	data, err := os.ReadFile(badPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	// Header plus exactly one persisted failure row.
	assert.Len(t, lines, 2)
	assert.Equal(t, 1, run.Failed())
}

func TestRecorder_NilSinks(t *testing.T) {
	t.Parallel()

	table := tableFromCSV(t, "name,userName,address,safe,platformId\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH\n")

	run := NewRunContext()
	recorder := NewRecorder(run, nil, nil, testLogger())

	recorder.RecordGood(table.Rows[0])
	recorder.RecordBad(table.Rows[0], "web01-admin", "boom")

	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed())
}
