package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plantsinspace/backend/cmd/room-service/internal/models"
)

// RoomStatus serves the synchronous read path: slot occupancy, token
// presence, and selection counts for one room. It never mutates state.
func RoomStatus(registry *models.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomId"]

		w.Header().Set("Content-Type", "application/json")
		room, ok := registry.Get(roomID)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Room not found"})
			return
		}

		json.NewEncoder(w).Encode(room.Status())
	}
}
