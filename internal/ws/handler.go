package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/session"
	"golang.org/x/net/websocket"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

type subscribeMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// HandleWebSocket must sit behind the session guard. The socket inherits the guarded identity.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	who, ok := middleware.Identity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": session.LoginPath})
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		client := NewClient(conn, who)
		go h.writer(client)
		h.reader(client)
	}).ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) reader(client *Client) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		client.finish()
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(msg.Action)) != "subscribe" {
			continue
		}
		topic := subscriptionTopic(client.who, msg)
		if topic == "" {
			continue
		}
		h.hub.Subscribe(topic, client)
	}
}

func (h *Handler) writer(client *Client) {
	for payload := range client.out {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}

// subscriptionTopic maps a requested channel to the caller's own topic. A user id in the
// message is never trusted; the session decides.
func subscriptionTopic(who session.Identity, msg subscribeMessage) string {
	switch strings.ToLower(strings.TrimSpace(msg.Channel)) {
	case ChannelUserNotifications:
		if strings.TrimSpace(who.ID) == "" {
			return ""
		}
		return UserTopic(who.ID)
	case ChannelAdminApplications:
		if !who.IsAdmin() {
			return ""
		}
		return ChannelAdminApplications
	default:
		return ""
	}
}
