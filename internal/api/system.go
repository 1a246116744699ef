package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus is the response of GET /api/v1/system.
type SystemStatus struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	State         string          `json:"state"`
	Runtime       RuntimeStatus   `json:"runtime"`
	Holograms     HologramStatus  `json:"holograms"`
	WebSocket     WSStatus        `json:"websocket"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Database      *DatabaseStatus `json:"database,omitempty"`
}

// RuntimeStatus contains Go runtime statistics.
type RuntimeStatus struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// HologramStatus summarises the manager's registries.
type HologramStatus struct {
	Displays    int `json:"displays"`
	Enabled     int `json:"enabled"`
	Temporaries int `json:"temporaries"`
	Observers   int `json:"observers"`
}

// WSStatus contains WebSocket hub statistics.
type WSStatus struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTStatus contains MQTT client statistics.
type MQTTStatus struct {
	Connected bool `json:"connected"`
}

// DatabaseStatus contains connection pool statistics for the SQLite store.
type DatabaseStatus struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystem reports runtime and registry statistics.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	displays := s.manager.List()
	enabled := 0
	for _, d := range displays {
		if d.IsEnabled() {
			enabled++
		}
	}

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		State:         s.manager.State().String(),
		Runtime: RuntimeStatus{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Holograms: HologramStatus{
			Displays:    len(displays),
			Enabled:     enabled,
			Temporaries: len(s.manager.Temporaries()),
			Observers:   s.observers.Len(),
		},
	}

	if s.hub != nil {
		status.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.mqtt != nil {
		status.MQTT.Connected = s.mqtt.IsConnected()
	}
	if s.db != nil {
		dbStats := s.db.Stats()
		status.Database = &DatabaseStatus{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, status)
}
