package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/pairrelay/internal/signaling"
)

func newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,

		// Offered in preference order; clients that ask for nothing get JSON.
		Subprotocols: []string{signaling.SubprotocolJSON, signaling.SubprotocolMsgpack},

		// Rooms are joined by code, not by origin. Any page may connect.
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub, upgrader *websocket.Upgrader, opts signaling.ClientOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade the HTTP connection to a WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
			return
		}

		client := signaling.NewClient(hub, conn, opts)

		if !hub.Register(client) {
			slog.Warn("hub stopped, refusing connection", "remote", r.RemoteAddr)
			conn.Close()
			return
		}
		slog.Info("client connected", "client", client.ID, "remote", r.RemoteAddr, "codec", conn.Subprotocol())

		// Start the client's read and write pumps in separate goroutines
		// These methods will handle the client's lifecycle
		go client.WritePump()
		go client.ReadPump()
	}
}
