package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/accountsync/internal/account"
	"github.com/systmms/accountsync/internal/config"
	"github.com/systmms/accountsync/internal/logging"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPlanCommand_ValidFile(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "name,userName,address,safe,platformId,password\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,s3cret\n")

	cfg := &config.Config{Logger: logging.New(false, true)}
	cmd := NewPlanCommand(cfg)
	cmd.SetArgs([]string{"--file", path, "--json"})

	require.NoError(t, cmd.Execute())
}

func TestPlanCommand_InvalidRowsFail(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "name,userName,address,safe,platformId\n"+
		"web01-admin,admin,web01,,UnixSSH\n")

	cfg := &config.Config{Logger: logging.New(false, true)}
	cmd := NewPlanCommand(cfg)
	cmd.SetArgs([]string{"--file", path, "--json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid row")
}

func TestPlanCommand_BothSecretColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "name,userName,address,safe,platformId,password,key\n"+
		"web01-admin,admin,web01,WebServers,UnixSSH,s3cret,ssh-rsa AAAA\n")

	cfg := &config.Config{Logger: logging.New(false, true)}
	cmd := NewPlanCommand(cfg)
	cmd.SetArgs([]string{"--file", path, "--json"})

	// Both secret columns is valid input; the key wins per row and the
	// command only warns about the overlap.
	require.NoError(t, cmd.Execute())
}

func TestPlanCommand_UnknownMode(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "name,safe\nweb01-admin,WebServers\n")

	cfg := &config.Config{Logger: logging.New(false, true)}
	cmd := NewPlanCommand(cfg)
	cmd.SetArgs([]string{"--file", path, "--mode", "upsert"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown mode")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]account.Mode{
		"create": account.ModeCreate,
		"update": account.ModeUpdate,
		"delete": account.ModeDelete,
	} {
		got, err := parseMode(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseMode("upsert")
	require.Error(t, err)
}
