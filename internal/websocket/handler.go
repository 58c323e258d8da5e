package websocket

import (
	"log"
	"net/http"

	"isuku-backend/internal/apperr"
	"isuku-backend/internal/auth"
	"isuku-backend/internal/middleware"
	"isuku-backend/internal/models"
	"isuku-backend/pkg/utils"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades staff connections to the live schedule feed. The
// token comes from the query string, or from the Auth middleware when the
// route is mounted behind it.
func HandleWebSocket(hub *Hub, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var actor models.Actor
		if tokenString := r.URL.Query().Get("token"); tokenString != "" {
			parsed, err := tokens.Parse(tokenString)
			if err != nil {
				log.Printf("❌ Invalid token in query parameter: %v", err)
				utils.RespondAppError(w, err)
				return
			}
			actor = parsed
		} else {
			var ok bool
			actor, ok = middleware.GetActor(r)
			if !ok {
				log.Println("❌ No actor for WebSocket connection")
				utils.RespondAppError(w, auth.ErrInvalidToken)
				return
			}
		}

		if actor.Role == models.RoleCustomer {
			utils.RespondAppError(w, apperr.ErrForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(actor, conn, hub)
		if !hub.join(client) {
			log.Printf("⚠️ [WEBSOCKET] Hub stopped, dropping connection for %s", actor.UserID)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ WebSocket connection established for user: %s (%s)", actor.Email, actor.UserID)
	}
}
