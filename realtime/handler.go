package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin browser clients are expected; auth happens via ticket
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS returns the http handler that upgrades an authenticated request
// to a websocket connection on the hub. The caller proves identity with a
// ticket minted by the REST API, passed as the "ticket" query parameter.
func ServeWS(hub *Hub, jwtSecret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := VerifyTicket(jwtSecret, r.URL.Query().Get("ticket"))
		if err != nil {
			zap.S().Warnw("websocket ticket rejected", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zap.S().Errorw("websocket upgrade failed", "error", err)
			return
		}

		zap.S().Infow("websocket connected", "user", userID)
		client := NewClient(hub, conn, userID)
		go client.Run()
	}
}
