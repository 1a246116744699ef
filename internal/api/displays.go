package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-holograms/internal/definition"
	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

// DisplaySummary is the list form of a registered display.
type DisplaySummary struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Enabled      bool              `json:"enabled"`
	Location     hologram.Location `json:"location"`
	DisplayRange float64           `json:"display_range"`
	Permission   string            `json:"permission,omitempty"`
	Pages        int               `json:"pages"`
	Viewers      int               `json:"viewers"`
}

// DisplayDetail adds the full definition to a summary.
type DisplayDetail struct {
	DisplaySummary
	Definition hologram.Definition `json:"definition"`
	Persisted  *bool               `json:"persisted,omitempty"`
}

func summarise(d *hologram.Display) DisplaySummary {
	return DisplaySummary{
		ID:           d.ID().String(),
		Name:         d.Name(),
		Enabled:      d.IsEnabled(),
		Location:     d.Location(),
		DisplayRange: d.DisplayRange(),
		Permission:   d.Permission(),
		Pages:        d.PageCount(),
		Viewers:      len(d.VisibleTo()),
	}
}

func detail(d *hologram.Display) DisplayDetail {
	return DisplayDetail{DisplaySummary: summarise(d), Definition: hologram.DefinitionOf(d)}
}

// handleListDisplays returns every registered display in registration order.
func (s *Server) handleListDisplays(w http.ResponseWriter, _ *http.Request) {
	displays := s.manager.List()
	out := make([]DisplaySummary, 0, len(displays))
	for _, d := range displays {
		out = append(out, summarise(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"displays": out,
		"count":    len(out),
	})
}

// handleGetDisplay returns one display with its definition.
func (s *Server) handleGetDisplay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d := s.manager.Get(name)
	if d == nil {
		writeNotFound(w, "display not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, detail(d))
}

// handleCreateDisplay builds a display from a definition, registers it in
// place of any display with the same name and persists it when the store
// is writable.
func (s *Server) handleCreateDisplay(w http.ResponseWriter, r *http.Request) {
	var def hologram.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := def.Validate(); err != nil {
		writeDisplayError(w, err)
		return
	}

	d, err := s.manager.Build(def)
	if err != nil {
		writeDisplayError(w, err)
		return
	}

	persisted := true
	if err := s.manager.Save(r.Context(), def); err != nil {
		if !errors.Is(err, hologram.ErrStoreReadOnly) {
			s.logger.Error("persisting display failed", "display", def.Name, "error", err)
			writeDisplayError(w, err)
			return
		}
		persisted = false
	}

	replaced := s.manager.Contains(def.Name)
	if err := s.manager.Replace(d); err != nil {
		writeDisplayError(w, err)
		return
	}

	s.logger.Info("display registered", "display", def.Name, "replaced", replaced, "persisted", persisted)
	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	resp := detail(d)
	resp.Persisted = &persisted
	writeJSON(w, status, resp)
}

// handleDeleteDisplay unregisters a display and removes its stored definition.
// Either half succeeding is enough; a name known to neither is a 404.
func (s *Server) handleDeleteDisplay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	removed := s.manager.Remove(name) != nil
	err := s.manager.Delete(r.Context(), name)

	switch {
	case err == nil:
	case errors.Is(err, hologram.ErrStoreReadOnly), errors.Is(err, definition.ErrNotFound):
		if !removed {
			writeNotFound(w, "display not found: "+name)
			return
		}
	default:
		s.logger.Error("deleting stored display failed", "display", name, "error", err)
		writeDisplayError(w, err)
		return
	}

	s.logger.Info("display deleted", "display", name, "registered", removed)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetEnabled toggles a registered display. The change is runtime only;
// the next reload restores the stored flag.
func (s *Server) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := s.manager.SetEnabled(name, enabled); err != nil {
			writeDisplayError(w, err)
			return
		}
		d := s.manager.Get(name)
		if d == nil {
			writeNotFound(w, "display not found: "+name)
			return
		}
		writeJSON(w, http.StatusOK, summarise(d))
	}
}

// handleReload tears every display down and loads the definitions again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Reload(r.Context()); err != nil {
		s.logger.Error("reload failed", "error", err)
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"count":  len(s.manager.Names()),
	})
}
