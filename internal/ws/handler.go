// Package ws ingests the overlay line protocol over websockets, for clients
// that cannot open a raw TCP socket. Each text message carries one or more
// protocol lines; semantics match the TCP listener, except that parse
// failures are reported back on the socket since websockets are
// bidirectional anyway.
package ws

import (
	"bytes"
	"context"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/edmcoverlay/overlayce/internal/engine"
	"github.com/edmcoverlay/overlayce/internal/server"
	"github.com/edmcoverlay/overlayce/pkg/graphic"
)

func Handler(ctx context.Context, out chan<- engine.Command, ids *server.ClientIDs, stats *engine.Stats, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := ids.Next()
		stats.Clients.Add(1)
		clog := log.With(zap.Uint64("client_id", clientID))
		clog.Debug("new websocket client")

		for {
			typ, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("websocket read ended", zap.Error(err))
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}

			for _, line := range bytes.Split(data, []byte{'\n'}) {
				line = bytes.TrimSpace(line)
				if len(line) == 0 {
					continue
				}
				if !submit(ctx, r, conn, out, clog, clientID, line) {
					return
				}
			}
		}
	}
}

// submit mirrors the TCP ingestion rules; false means the engine is gone and
// the connection should end.
func submit(ctx context.Context, r *http.Request, conn *websocket.Conn, out chan<- engine.Command, log *zap.Logger, clientID uint64, line []byte) bool {
	g, err := graphic.Parse(line)
	if err != nil {
		log.Warn("could not parse line", zap.ByteString("line", line), zap.Error(err))
		_ = conn.Write(r.Context(), websocket.MessageText,
			[]byte(`{"type":"Error","error":"bad line"}`))
		return true
	}
	if g.Drawable == nil && g.TTL != 0 {
		log.Warn("message without drawable", zap.ByteString("line", line))
		return true
	}

	select {
	case out <- engine.Command{ClientID: clientID, Graphic: g}:
		return true
	case <-ctx.Done():
		log.Debug("engine gone, closing websocket")
		return false
	case <-r.Context().Done():
		return false
	}
}
