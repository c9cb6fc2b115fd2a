package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/edmcoverlay/overlayce/internal/engine"
	"github.com/edmcoverlay/overlayce/internal/server"
	"github.com/edmcoverlay/overlayce/internal/ws"
)

// FrameSource serves the most recent rendered frame; nil means nothing has
// been rendered yet.
type FrameSource interface {
	Frame() []byte
}

func SetupRoutes(ctx context.Context, out chan<- engine.Command, ids *server.ClientIDs, stats *engine.Stats, frames FrameSource, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/stats", Stats(stats))
	r.Get("/frame", Frame(frames))
	r.Get("/ws", ws.Handler(ctx, out, ids, stats, log))
	return r
}
