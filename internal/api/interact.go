package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

// SpawnTemporaryRequest is the body of POST /api/v1/temporary.
type SpawnTemporaryRequest struct {
	Location      hologram.Location `json:"location"`
	Content       string            `json:"content"`
	DurationTicks int64             `json:"duration_ticks"`
}

// InteractRequest is the body of POST /api/v1/interact.
type InteractRequest struct {
	ObserverID uuid.UUID `json:"observer_id"`
	TargetID   int32     `json:"target_id"`
	Click      string    `json:"click"`
}

// handleSpawnTemporary shows a self-expiring line to every connected observer.
func (s *Server) handleSpawnTemporary(w http.ResponseWriter, r *http.Request) {
	var req SpawnTemporaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Location.World == "" {
		writeBadRequest(w, "location.world is required")
		return
	}

	d, err := s.manager.SpawnTemporary(req.Location, req.Content, hologram.Ticks(req.DurationTicks))
	if err != nil {
		writeDisplayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": d.ID().String()})
}

// handleListTemporary returns the tracked temporary lines.
func (s *Server) handleListTemporary(w http.ResponseWriter, _ *http.Request) {
	lines := s.manager.Temporaries()
	if lines == nil {
		lines = []hologram.TemporaryLine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"temporary": lines,
		"count":     len(lines),
	})
}

// handleInteract injects a click on behalf of a connected observer, as if it
// had arrived over MQTT.
func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req InteractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	kind, err := hologram.ParseClickType(req.Click)
	if err != nil {
		writeDisplayError(w, err)
		return
	}

	o, ok := s.observers.Get(req.ObserverID)
	if !ok {
		writeNotFound(w, "observer not connected: "+req.ObserverID.String())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"handled": s.manager.Dispatch(o, req.TargetID, kind),
	})
}
