package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_LazyCreation(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "accounts.good")

	s := NewSink(path, []string{"name", "safe"})
	require.NoError(t, s.Close())

	// Nothing appended: no file left behind.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSink_HeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "accounts.good")

	s := NewSink(path, []string{"name", "safe"})
	require.NoError(t, s.Append([]string{"web01-admin", "WebServers"}))
	require.NoError(t, s.Append([]string{"db01-admin", "Databases"}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "name,safe", lines[0])
	assert.Equal(t, "web01-admin,WebServers", lines[1])
}

func TestSink_AppendsToExistingFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "accounts.bad")

	first := NewSink(path, []string{"name"})
	require.NoError(t, first.Append([]string{"row1"}))
	require.NoError(t, first.Close())

	// A later run appends; the header is not repeated.
	second := NewSink(path, []string{"name"})
	require.NoError(t, second.Append([]string{"row2"}))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "name", lines[0])
	assert.Equal(t, "row1", lines[1])
	assert.Equal(t, "row2", lines[2])
}

func TestSink_QuotesFieldsWithCommas(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "accounts.bad")

	s := NewSink(path, []string{"name", "error"})
	require.NoError(t, s.Append([]string{"web01-admin", "failed: a, b and c"}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"failed: a, b and c"`)
}
