package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/repository/directory"
)

type envelope map[string]any

func (c *controller) writeJSON(w http.ResponseWriter, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Warn("failed to write json response", "error", err)
	}
}

func (c *controller) listRooms(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, envelope{"rooms": c.roomService.ListRooms(r.Context())})
}

func (c *controller) listDirectoryRooms(w http.ResponseWriter, r *http.Request) {
	if c.directory == nil {
		c.writeJSON(w, http.StatusNotFound, envelope{"error": "directory disabled"})
		return
	}

	summaries, err := c.directory.List(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list directory", "error", err)
		c.writeJSON(w, http.StatusInternalServerError, envelope{"error": "internal server error"})
		return
	}

	c.writeJSON(w, http.StatusOK, envelope{"rooms": summaries})
}

func (c *controller) getDirectoryRoom(w http.ResponseWriter, r *http.Request) {
	if c.directory == nil {
		c.writeJSON(w, http.StatusNotFound, envelope{"error": "directory disabled"})
		return
	}

	roomCode := strings.ToUpper(chi.URLParam(r, "roomCode"))
	summary, err := c.directory.Get(r.Context(), roomCode)
	if err != nil {
		if errors.Is(err, directory.ErrSummaryNotFound) {
			c.writeJSON(w, http.StatusNotFound, envelope{"error": "room not found"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get directory room", "room_code", roomCode, "error", err)
		c.writeJSON(w, http.StatusInternalServerError, envelope{"error": "internal server error"})
		return
	}

	c.writeJSON(w, http.StatusOK, envelope{"room": summary})
}
