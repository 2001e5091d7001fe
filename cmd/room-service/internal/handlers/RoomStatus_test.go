package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantsinspace/backend/cmd/room-service/internal/models"
)

type nopNotifier struct{}

func (nopNotifier) JoinChannel(string, string)                  {}
func (nopNotifier) LeaveChannel(string, string)                 {}
func (nopNotifier) ToClient(string, string, ...any)             {}
func (nopNotifier) ToRoom(string, string, ...any)               {}
func (nopNotifier) ToRoomExcept(string, string, string, ...any) {}

func statusRouter(registry *models.Registry) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/rooms/{roomId}/status", RoomStatus(registry)).Methods("GET")
	return r
}

func TestRoomStatusUnknownRoom(t *testing.T) {
	r := statusRouter(models.NewRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms/nope/status", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestRoomStatusAfterMobileSubmitsSongs(t *testing.T) {
	registry := models.NewRegistry()
	coord := models.NewCoordinator(registry, nopNotifier{}, time.Second, nil)

	coord.JoinRoom("A", "ABC123")
	coord.ClassifyClient("A", models.RoleMobile)
	coord.UpdateSongs("A", "ABC123", []map[string]any{
		{"id": "s1", "name": "One", "artists": []any{"X"}},
		{"id": "s2", "name": "Two", "artists": []any{"Y"}},
	})

	w := httptest.NewRecorder()
	statusRouter(registry).ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms/ABC123/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status models.RoomStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.HasMobile)
	assert.False(t, status.HasDesktop)
	assert.False(t, status.HasSpotifyToken)
	assert.Equal(t, 2, status.SelectedSongsCount)
	assert.Zero(t, status.SpotifyTracksCount)
}

func TestRoomStatusNeverMutates(t *testing.T) {
	registry := models.NewRegistry()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		statusRouter(registry).ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms/R1/status", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Zero(t, registry.Len(), "status queries must not create rooms")
}

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	HealthCheck(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
