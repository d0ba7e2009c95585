package health

import (
	"net/http"
	"time"

	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/json"
)

// Stats reports the live connection registry of this instance.
type Stats interface {
	Stats() (clients int, rooms int)
}

type Handler struct {
	stats      Stats
	instanceID string
	startedAt  time.Time
}

func NewHandler(stats Stats, instanceID string) *Handler {
	return &Handler{
		stats:      stats,
		instanceID: instanceID,
		startedAt:  time.Now(),
	}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	clients, rooms := h.stats.Stats()

	data := healthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		InstanceID: h.instanceID,
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Clients:    clients,
		Rooms:      rooms,
	}
	json.Write(w, http.StatusOK, data)
}
