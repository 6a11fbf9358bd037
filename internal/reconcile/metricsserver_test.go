package reconcile

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ServesCounters(t *testing.T) {
	t.Parallel()

	srv := StartMetricsServer(39471, testLogger())
	defer func() { _ = srv.Stop(context.Background()) }()

	observeOutcome("good")
	observeWrite("create")

	// The listener comes up asynchronously.
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://127.0.0.1:39471/metrics")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "accountsync_records_processed_total")
	assert.Contains(t, string(body), "accountsync_vault_write_calls_total")
}

func TestMetricsServer_StopWithoutStart(t *testing.T) {
	t.Parallel()

	var srv *MetricsServer
	assert.NoError(t, srv.Stop(context.Background()))
}
