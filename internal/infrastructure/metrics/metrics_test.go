package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnectedClients.Inc()
	m.EventsConsumed.Add(3)
	m.HandshakesRejected.WithLabelValues("unauthorized").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectedClients))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsConsumed))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gateway_connected_clients 1")
	assert.Contains(t, string(body), `gateway_handshakes_rejected_total{reason="unauthorized"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
