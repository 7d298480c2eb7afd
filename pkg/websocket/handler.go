package websocket

import (
	"net/http"
	"time"

	"messagely/config"
	"messagely/pkg/logger"
	"messagely/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Handler upgrades authenticated requests to a push-only websocket.
type Handler struct {
	manager  *Manager
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewHandler(manager *Manager, cfg config.WebSocketConfig) *Handler {
	return &Handler{
		manager: manager,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve GET /ws. Runs behind the LoggedIn guard, which stores the verified
// username on the context.
func (h *Handler) Serve(c *gin.Context) {
	username := c.GetString(logger.UsernameKey)
	if username == "" {
		response.Unauthorized(c)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.String("username", username), zap.Error(err))
		return
	}

	client := NewClient(username, conn)
	h.manager.AddClient(client)
	logger.Info("websocket connected", zap.String("username", username))

	go h.writeLoop(client)
	h.readLoop(client)

	h.manager.RemoveClient(client)
	logger.Info("websocket disconnected", zap.String("username", username))
}

// writeLoop drains the send queue and keeps the connection alive with pings.
func (h *Handler) writeLoop(client *Client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and returns once the peer goes away or
// stays silent past the read timeout.
func (h *Handler) readLoop(client *Client) {
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	}
}
