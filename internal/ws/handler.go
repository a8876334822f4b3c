package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler upgrades HTTP requests into hub clients.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the upgrade handler. allowedOrigins is the CORS-style
// origin allowlist; "*" (or an empty list) admits any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowAny := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAny {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve is the gin endpoint. An optional conversation_id query parameter
// subscribes the client to that conversation's room (and marks it active);
// without it the client receives only global list-level events.
func (h *Handler) Serve(c *gin.Context) {
	var conversationID uint
	if raw := c.Query("conversation_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		conversationID = uint(id)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conversationID, conn)
	h.hub.join(client)
	go client.writePump()
	go client.readPump()
}
