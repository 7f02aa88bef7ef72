package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"livepoll/internal/events"
	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientFrame is an inbound subscribe/unsubscribe request from a client
type clientFrame struct {
	Action  string `json:"action"`  // "subscribe" or "unsubscribe"
	Channel string `json:"channel"` // e.g. "channel:poll:{id}" or "channel:polls"
}

// ackFrame is the reply sent for each processed client frame
type ackFrame struct {
	Type    string `json:"type"` // "subscribed", "unsubscribed", "error"
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	auth       *services.AuthService
	hub        *Hub
	authorizer *ChannelAuthorizer
	presence   *redis.PresenceStore
}

func NewHandler(auth *services.AuthService, hub *Hub, authorizer *ChannelAuthorizer, presence *redis.PresenceStore) *Handler {
	return &Handler{auth: auth, hub: hub, authorizer: authorizer, presence: presence}
}

// Connect upgrades the request and serves subscribe/unsubscribe frames until
// the client disconnects. The browser WebSocket API cannot set headers, so
// the access token arrives as a query parameter instead.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	// The token alone is not enough: a revoked session must not keep an
	// open door to result streams.
	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	sessionUUID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	if _, err := h.auth.ValidateSession(c.Request.Context(), sessionUUID, userUUID); err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userUUID.String())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	// Pongs answering the write loop's pings must push the deadline too,
	// otherwise a client that only watches gets dropped after pongWait.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			client.SendMessage(mustMarshal(ackFrame{Type: "error", Error: "malformed frame"}))
			continue
		}
		h.handleFrame(ctx, client, frame)
	}

	h.cleanup(client)
	h.hub.Unregister(client)
}

// handleFrame processes a single subscribe/unsubscribe request
func (h *Handler) handleFrame(ctx context.Context, client *Client, frame clientFrame) {
	switch frame.Action {
	case "subscribe":
		ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, frame.Channel)
		if err != nil || !ok {
			client.SendMessage(mustMarshal(ackFrame{Type: "error", Channel: frame.Channel, Error: "forbidden"}))
			return
		}
		h.hub.Subscribe(client, frame.Channel)
		if pollID, ok := pollIDFromChannel(frame.Channel); ok && h.presence != nil {
			_ = h.presence.AddWatcher(ctx, pollID, client.ID)
		}
		client.SendMessage(mustMarshal(ackFrame{Type: "subscribed", Channel: frame.Channel}))
	case "unsubscribe":
		h.hub.Unsubscribe(client, frame.Channel)
		if pollID, ok := pollIDFromChannel(frame.Channel); ok && h.presence != nil {
			_ = h.presence.RemoveWatcher(ctx, pollID, client.ID)
		}
		client.SendMessage(mustMarshal(ackFrame{Type: "unsubscribed", Channel: frame.Channel}))
	default:
		client.SendMessage(mustMarshal(ackFrame{Type: "error", Error: "unknown action"}))
	}
}

// cleanup drops the client's watcher presence for every poll channel it still
// holds, so counts do not linger until the redis TTL fires.
func (h *Handler) cleanup(client *Client) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, channel := range client.GetChannels() {
		if pollID, ok := pollIDFromChannel(channel); ok {
			_ = h.presence.RemoveWatcher(ctx, pollID, client.ID)
		}
	}
}

func pollIDFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, events.ChannelPrefixPoll) {
		return "", false
	}
	return strings.TrimPrefix(channel, events.ChannelPrefixPoll), true
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"type":"error","error":"internal"}`)
	}
	return data
}
