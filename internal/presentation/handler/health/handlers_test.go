package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{ clients, rooms int }

func (s fixedStats) Stats() (int, int) { return s.clients, s.rooms }

func TestGetHealth(t *testing.T) {
	h := NewHandler(fixedStats{clients: 3, rooms: 2}, "instance-1")
	rec := httptest.NewRecorder()

	h.GetHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "instance-1", body.InstanceID)
	assert.Equal(t, 3, body.Clients)
	assert.Equal(t, 2, body.Rooms)
}
