package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second
)

// GroupEventsHandler streams group events over Server-Sent Events for clients
// that only need to listen.
type GroupEventsHandler struct {
	groupService    *service.GroupService
	presenceService *service.PresenceService
	events          *service.EventBus
	log             zerolog.Logger
}

func NewGroupEventsHandler(
	groupService *service.GroupService,
	presenceService *service.PresenceService,
	events *service.EventBus,
	log zerolog.Logger,
) *GroupEventsHandler {
	return &GroupEventsHandler{
		groupService:    groupService,
		presenceService: presenceService,
		events:          events,
		log:             log.With().Str("component", "group_events_handler").Logger(),
	}
}

// StreamEvents godoc
// GET /api/v1/groups/:id/events
func (h *GroupEventsHandler) StreamEvents(c *gin.Context) {
	groupID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if _, err := h.groupService.MemberRole(c.Request.Context(), groupID, claims.UserID); err != nil {
		respondError(c, err)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, reqCtx, groupID)

	pubsub := h.events.Subscribe(reqCtx, groupID)
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Debug().Str("group_id", groupID.String()).Str("user_id", claims.UserID.String()).Msg("SSE listener attached")

	pingPayload, _ := json.Marshal(map[string]string{"event": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Str("group_id", groupID.String()).Msg("SSE listener detached")
			return

		case msg, open := <-ch:
			if !open {
				return
			}
			// Already-encoded GroupEvent; forwarded as is.
			writeSSE(c, []byte(msg.Payload))
			if revokesAccess(msg.Payload, claims.UserID) {
				h.log.Debug().Str("group_id", groupID.String()).Str("user_id", claims.UserID.String()).Msg("Membership ended, closing SSE stream")
				return
			}

		case <-keepAliveTicker.C:
			writeSSE(c, pingPayload)
		}
	}
}

// sendSnapshot writes who is online and the running call as the first event.
func (h *GroupEventsHandler) sendSnapshot(c *gin.Context, ctx context.Context, groupID uuid.UUID) {
	fetchCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	snapshot, err := h.presenceService.Snapshot(fetchCtx, groupID)
	if err != nil {
		h.log.Warn().Err(err).Str("group_id", groupID.String()).Msg("Failed to build group snapshot")
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event": "snapshot",
		"data":  snapshot,
	})
	if err != nil {
		return
	}
	writeSSE(c, payload)
}

func writeSSE(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
