package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var eventUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsSocket streams hub events to the caller. Browsers cannot set headers
// on a websocket handshake, so the access token comes in the query string.
func (s *Server) EventsSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	claims, err := s.Tokens.ParseAccessToken(token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	conn, err := eventUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := s.Events.Register(claims.UserID(), claims.Roles, conn)
	defer func() {
		s.Events.Unregister(sub)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
