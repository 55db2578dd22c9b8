package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/app"
	"github.com/tkondo/chatwire/internal/assist"
	"github.com/tkondo/chatwire/internal/config"
	"github.com/tkondo/chatwire/internal/domain"
)

// IdentityResolver maps a display name to a durable identity,
// creating one on first use.
type IdentityResolver interface {
	FindOrCreateByName(ctx context.Context, name string) (*domain.User, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller is the per-connection state machine. A connection starts
// unregistered, may register an identity via join_app, and is torn down
// unconditionally on transport disconnect. Every handler failure is
// reported to the originating connection only.
type Controller struct {
	presence *app.Presence
	router   *app.Router
	users    IdentityResolver
	pipeline *app.Pipeline
	relay    *assist.Relay
	cfg      config.WebSocketConfig
}

func NewController(
	presence *app.Presence,
	router *app.Router,
	users IdentityResolver,
	pipeline *app.Pipeline,
	relay *assist.Relay,
	cfg config.WebSocketConfig,
) *Controller {
	return &Controller{
		presence: presence,
		router:   router,
		users:    users,
		pipeline: pipeline,
		relay:    relay,
		cfg:      cfg,
	}
}

// Handle upgrades an HTTP request and runs the connection's pumps.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws.controller").Msg("ws upgrade failed")
		return
	}

	client := NewClient(conn, ctl.cfg)
	ctl.router.Attach(client.ID, client)
	log.Info().Str("module", "ws.controller").Str("conn", client.ID).Msg("connection opened")

	go client.WritePump(ctx)
	go client.ReadPump(ctx,
		func(data []byte) { ctl.dispatch(ctx, client, data) },
		func() { ctl.disconnect(client) },
	)
}

// dispatch routes one inbound envelope. A panic in a handler is
// confined to this connection and surfaced as an error event.
func (ctl *Controller) dispatch(ctx context.Context, client *Client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "ws.controller").Str("conn", client.ID).Msg("handler panic")
			client.Send("error", "internal error")
		}
	}()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		client.Send("error", "invalid message format")
		return
	}

	switch env.Event {
	case "join_app":
		ctl.handleJoinApp(ctx, client, env.Data)
	case "join_room":
		ctl.handleJoinRoom(client, env.Data)
	case "send_message":
		ctl.handleSendMessage(client, env.Data)
	case "ai_assist":
		ctl.handleAssist(ctx, client, env.Data)
	default:
		log.Warn().Str("module", "ws.controller").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoinApp(ctx context.Context, client *Client, data json.RawMessage) {
	var p joinAppPayload
	if err := json.Unmarshal(data, &p); err != nil || p.DisplayName == "" {
		client.Send("error", "Username is required")
		return
	}

	user, err := ctl.users.FindOrCreateByName(ctx, p.DisplayName)
	if err != nil {
		log.Error().Err(err).Str("module", "ws.controller").Str("conn", client.ID).Msg("identity resolution failed")
		client.Send("error", "Failed to join app: "+err.Error())
		return
	}

	client.userID = user.ID
	client.displayName = user.Name
	ctl.presence.Put(client.ID, user.ID, user.Name)

	ctl.router.BroadcastAll("update_user_list", ctl.presence.Snapshot())
	client.Send("user_registered", registeredPayload{
		DurableUserID: user.ID,
		DisplayName:   user.Name,
		ConnectionID:  client.ID,
	})

	// Auto-subscribe to the room keyed by the durable identity, used
	// for direct addressing of this user.
	ctl.router.Join(client.ID, user.ID)

	log.Info().Str("module", "ws.controller").Str("conn", client.ID).Str("user", user.ID).Str("name", user.Name).Msg("user registered")
}

func (ctl *Controller) handleJoinRoom(client *Client, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		client.Send("error", "Room ID is required")
		return
	}

	ctl.router.Join(client.ID, roomID)
	client.Send("joined_room", roomID)
	log.Info().Str("module", "ws.controller").Str("conn", client.ID).Str("room", roomID).Msg("joined room")
}

func (ctl *Controller) handleSendMessage(client *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.Send("error", "invalid message format")
		return
	}

	_, err := ctl.pipeline.Send(p.ChatRoomID, p.Content, domain.Author{ID: client.userID, Name: client.displayName})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotRegistered):
		log.Warn().Str("module", "ws.controller").Str("conn", client.ID).Msg("send_message before registration")
		client.Send("error", "User not registered. Please reload.")
	case errors.Is(err, domain.ErrRoomRequired), errors.Is(err, domain.ErrContentRequired):
		client.Send("error", "ChatRoomId and content are required")
	default:
		log.Error().Err(err).Str("module", "ws.controller").Str("conn", client.ID).Msg("send failed")
		client.Send("error", "Failed to send message: "+err.Error())
	}
}

func (ctl *Controller) handleAssist(ctx context.Context, client *Client, data json.RawMessage) {
	var p assistPayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.Send("error", "invalid message format")
		return
	}

	log.Info().Str("module", "ws.controller").Str("conn", client.ID).Str("user", client.displayName).Msg("assist requested")
	go ctl.relay.Suggest(ctx, p.Prompt, client)
}

// disconnect is the unconditional terminal transition. It is normal
// lifecycle, never an error path, and is not reported to anyone beyond
// the presence broadcast.
func (ctl *Controller) disconnect(client *Client) {
	ctl.presence.Remove(client.ID)
	ctl.router.Detach(client.ID)
	ctl.router.BroadcastAll("update_user_list", ctl.presence.Snapshot())
	log.Info().Str("module", "ws.controller").Str("conn", client.ID).Msg("connection closed")
}
