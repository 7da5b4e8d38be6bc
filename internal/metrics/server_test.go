package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServerEndpoints(t *testing.T) {
	srv := NewServer(0, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	DocumentsFetched.Inc()
	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ats_documents_fetched_total"))
}

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(MeasuresScraped)
	MeasuresScraped.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MeasuresScraped))
}
