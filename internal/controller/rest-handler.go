package controller

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, r *http.Request, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.DebugContext(r.Context(), "failed to write response", "error", err)
	}
}

func (c controller) getRooms(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, r, http.StatusOK, envelope{"rooms": c.roomService.GetRoomsSummary(r.Context())})
}

func (c controller) getNewRoomId(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.roomService.GenerateRoomId(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to generate room id", "error", err)
		c.writeJSON(w, r, http.StatusServiceUnavailable, envelope{"error": err.Error()})
		return
	}

	c.writeJSON(w, r, http.StatusOK, envelope{"room_id": roomId})
}
