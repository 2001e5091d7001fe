package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/plantsinspace/backend/internal/ratelimit"
	"github.com/plantsinspace/backend/internal/storage"
)

// DownloadTrack resolves a Spotify track id against the asset bucket and
// hands back a short-lived signed URL for the cached audio file.
func DownloadTrack(store *storage.TrackStore, limiter *ratelimit.Limiter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := limiter.Allow(r.Context(), clientIP(r)); err != nil {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
			return
		}

		trackID, ok := storage.NormalizeTrackID(mux.Vars(r)["trackId"])
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid Spotify track ID format"})
			return
		}

		url, err := store.Resolve(r.Context(), trackID)
		if errors.Is(err, storage.ErrTrackNotFound) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Track not found"})
			return
		}
		if err != nil {
			log.Error("track resolve failed", zap.String("track", trackID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"url":    url,
			"cached": true,
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
