package realtime

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	Hub *Hub
	Log *zap.Logger
}

func NewWebSocketController(hub *Hub, log *zap.Logger) *WebSocketController {
	return &WebSocketController{Hub: hub, Log: log}
}

// subscribeFrame is what a session sends to enter or leave a group channel.
type subscribeFrame struct {
	Action  string `json:"action"` // "join" or "leave"
	GroupID string `json:"group_id"`
}

// HandleWebSocket runs one session. Subscriptions are session-scoped:
// the client must re-join its channels after every reconnect.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	client := NewClient(c)
	defer func() {
		h.Hub.Drop(client)
		c.Close()
	}()

	for {
		var frame subscribeFrame
		if err := c.ReadJSON(&frame); err != nil {
			h.Log.Debug("websocket session closed", zap.Error(err))
			return
		}

		switch frame.Action {
		case "join":
			if frame.GroupID != "" {
				h.Hub.Subscribe(frame.GroupID, client)
			}
		case "leave":
			if frame.GroupID != "" {
				h.Hub.Unsubscribe(frame.GroupID, client)
			}
		default:
			h.Log.Debug("ignoring unknown websocket action", zap.String("action", frame.Action))
		}
	}
}
