// Package httpapi is the overlay's sidecar HTTP surface: liveness, counters
// and a PNG view of the current frame for debugging without a screen, plus
// the websocket ingestion endpoint.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/edmcoverlay/overlayce/internal/engine"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Stats(stats *engine.Stats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Live     int64  `json:"live_graphics"`
			Commands uint64 `json:"commands"`
			Ticks    uint64 `json:"ticks"`
			Clients  uint64 `json:"clients"`
		}{
			Live:     stats.Live.Load(),
			Commands: stats.Commands.Load(),
			Ticks:    stats.Ticks.Load(),
			Clients:  stats.Clients.Load(),
		})
	}
}

func Frame(frames FrameSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame := frames.Frame()
		if frame == nil {
			http.Error(w, "no frame rendered yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(frame)
	}
}
