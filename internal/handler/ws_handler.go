package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	ws "github.com/vconnect/portal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the bidirectional group chat stream.
type WSHandler struct {
	groupService    *service.GroupService
	presenceService *service.PresenceService
	userService     *service.UserService
	events          *service.EventBus
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	groupService *service.GroupService,
	presenceService *service.PresenceService,
	userService *service.UserService,
	events *service.EventBus,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		groupService:    groupService,
		presenceService: presenceService,
		userService:     userService,
		events:          events,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// GroupStream godoc
// WS /ws/v1/groups/:group_id/stream?token=
// Upgrades to WebSocket. Every event published on the group is forwarded;
// the client sends send, typing, react and ping actions.
func (h *WSHandler) GroupStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	groupID, ok := paramUUID(c, "group_id")
	if !ok {
		return
	}

	// Membership is checked before upgrading so the client gets a plain HTTP error.
	if _, err := h.groupService.MemberRole(c.Request.Context(), groupID, claims.UserID); err != nil {
		respondError(c, err)
		return
	}

	userName := ""
	if user, err := h.userService.GetByID(c.Request.Context(), claims.UserID); err == nil {
		userName = user.Name
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	userID := claims.UserID
	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Str("group_id", groupID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.events.Subscribe(ctx, groupID)
	defer pubsub.Close()

	h.presenceService.Connect(ctx, groupID, userID)
	defer h.presenceService.Disconnect(context.Background(), groupID, userID)

	wsLog.Info().Msg("Member connected")

	go h.forward(ctx, cancel, conn, pubsub.Channel(), userID, wsLog)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadPayload(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var actionErr error
		switch msg.Action {
		case ws.ActionSend:
			actionErr = h.handleSend(ctx, conn, groupID, userID, &msg)
		case ws.ActionTyping:
			h.groupService.Typing(ctx, groupID, userID, userName)
		case ws.ActionReact:
			actionErr = h.handleReact(ctx, conn, groupID, userID, &msg)
		case ws.ActionPing:
			actionErr = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			actionErr = conn.WriteError("unknown action: " + string(msg.Action))
		}

		if errors.Is(actionErr, service.ErrNotGroupMember) {
			wsLog.Info().Msg("Member removed from group, closing stream")
			return
		}
		if actionErr != nil && ctx.Err() != nil {
			return
		}
	}
}

// eventWriter is the write side of a client connection.
type eventWriter interface {
	WriteRaw(payload []byte) error
	Close() error
}

// forward relays the group's published events to the client until the
// subscription closes, a write fails, or an event takes userID out of the group.
// In the last case the event is delivered before the connection is closed.
func (h *WSHandler) forward(ctx context.Context, cancel context.CancelFunc, conn eventWriter, ch <-chan *redis.Message, userID uuid.UUID, wsLog zerolog.Logger) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if err := conn.WriteRaw([]byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Forward write failed")
				conn.Close()
				return
			}
			if revokesAccess(msg.Payload, userID) {
				wsLog.Info().Msg("Membership ended, closing stream")
				conn.Close()
				return
			}
		}
	}
}

// revokesAccess reports whether a published group event ends userID's access
// to the group: the group was deleted, or the user was removed or left.
func revokesAccess(payload string, userID uuid.UUID) bool {
	var ev struct {
		Event ws.Event        `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return false
	}
	switch ev.Event {
	case ws.EventGroupDeleted:
		return true
	case ws.EventMemberChanged:
		var change ws.MemberChangeData
		if err := json.Unmarshal(ev.Data, &change); err != nil {
			return false
		}
		return change.Ends(userID)
	}
	return false
}

// handleSend publishes the message at once and queues it for the message worker.
func (h *WSHandler) handleSend(ctx context.Context, conn *ws.Conn, groupID, userID uuid.UUID, msg *ws.RequestPayload) error {
	sent, err := h.groupService.SendMessage(ctx, groupID, userID, msg.Content, msg.ReplyTo, true)
	if err != nil {
		h.writeActionError(conn, err)
		return err
	}
	return conn.WriteTyped(ws.AckResponse{
		Event:     ws.EventAck,
		ClientRef: msg.ClientRef,
		Data:      sent,
	})
}

func (h *WSHandler) handleReact(ctx context.Context, conn *ws.Conn, groupID, userID uuid.UUID, msg *ws.RequestPayload) error {
	messageID, err := uuid.Parse(msg.MessageID)
	if err != nil {
		return conn.WriteError("message_id must be a valid UUID")
	}
	reaction, err := h.groupService.ToggleReaction(ctx, groupID, messageID, userID, msg.Emoji)
	if err != nil {
		h.writeActionError(conn, err)
		return err
	}
	return conn.WriteTyped(ws.AckResponse{
		Event:     ws.EventAck,
		ClientRef: msg.ClientRef,
		Data:      reaction,
	})
}

// writeActionError reports a failed action to the client without closing the stream.
func (h *WSHandler) writeActionError(conn *ws.Conn, err error) {
	_, code, known := classifyError(err)
	if !known {
		h.log.Error().Err(err).Msg("WebSocket action failed")
	}
	conn.WriteError(response.GetMessage(code))
}
