package health

import "time"

type healthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	InstanceID string    `json:"instanceId"`
	Uptime     string    `json:"uptime"`
	Clients    int       `json:"clients"`
	Rooms      int       `json:"rooms"`
}
