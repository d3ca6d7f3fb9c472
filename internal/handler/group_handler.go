package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// GroupHandler handles groups, membership, messages and reactions over REST.
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// ─── Groups ─────────────────────────────────────────────────────────────────

// CreateGroup godoc
// POST /api/v1/groups
// The creator becomes the first group admin. With class_id set, the class
// roster is added as members.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req model.CreateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	group, err := h.groupService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"group": group})
}

// ListMyGroups godoc
// GET /api/v1/groups
func (h *GroupHandler) ListMyGroups(c *gin.Context) {
	claims := middleware.GetClaims(c)

	groups, err := h.groupService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"groups": groups})
}

// GetGroup godoc
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	group, err := h.groupService.Get(c.Request.Context(), id, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group": group})
}

// UpdateGroup godoc
// PUT /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	group, err := h.groupService.Update(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group": group})
}

// DeleteGroup godoc
// DELETE /api/v1/groups/:id
// Allowed for group admins and portal admins.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.groupService.Delete(c.Request.Context(), id, claims.UserID, claims.Role); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "group deleted"})
}

// ─── Members ────────────────────────────────────────────────────────────────

// ListMembers godoc
// GET /api/v1/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	members, err := h.groupService.Members(c.Request.Context(), id, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"members": members})
}

// AddMembers godoc
// POST /api/v1/groups/:id/members
func (h *GroupHandler) AddMembers(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.AddMembersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	added, err := h.groupService.AddMembers(c.Request.Context(), id, claims.UserID, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"added": added})
}

// RemoveMember godoc
// DELETE /api/v1/groups/:id/members/:user_id
// Group admins remove anyone; members may only remove themselves.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	target, ok := paramUUID(c, "user_id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.groupService.RemoveMember(c.Request.Context(), id, claims.UserID, target); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "member removed"})
}

// LeaveGroup godoc
// POST /api/v1/groups/:id/leave
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.groupService.RemoveMember(c.Request.Context(), id, claims.UserID, claims.UserID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "left group"})
}

// SetMemberRole godoc
// PUT /api/v1/groups/:id/members/:user_id/role
// Demoting the last admin fails with LAST_GROUP_ADMIN.
func (h *GroupHandler) SetMemberRole(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	target, ok := paramUUID(c, "user_id")
	if !ok {
		return
	}

	var req model.MemberRoleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.groupService.SetMemberRole(c.Request.Context(), id, claims.UserID, target, req.Role); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "role updated"})
}

// ─── Messages ───────────────────────────────────────────────────────────────

// ListMessages godoc
// GET /api/v1/groups/:id/messages?before=&limit=
// Newest first. before is an RFC 3339 timestamp cursor taken from the last
// message of the previous page.
func (h *GroupHandler) ListMessages(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
			return
		}
		before = t
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	claims := middleware.GetClaims(c)
	messages, err := h.groupService.Messages(c.Request.Context(), id, claims.UserID, before, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// SendMessage godoc
// POST /api/v1/groups/:id/messages
// Persists the message before publishing it to the group stream.
func (h *GroupHandler) SendMessage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	msg, err := h.groupService.SendMessage(c.Request.Context(), id, claims.UserID, req.Content, req.ReplyTo, false)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// EditMessage godoc
// PUT /api/v1/groups/:id/messages/:message_id
func (h *GroupHandler) EditMessage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramUUID(c, "message_id")
	if !ok {
		return
	}

	var req model.EditMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	msg, err := h.groupService.EditMessage(c.Request.Context(), id, messageID, claims.UserID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage godoc
// DELETE /api/v1/groups/:id/messages/:message_id
// Soft delete. Senders delete their own messages; group admins delete any.
func (h *GroupHandler) DeleteMessage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramUUID(c, "message_id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.groupService.DeleteMessage(c.Request.Context(), id, messageID, claims.UserID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "message deleted"})
}

// ToggleReaction godoc
// POST /api/v1/groups/:id/messages/:message_id/reactions
// Adds the emoji, or removes it when the caller already reacted with it.
func (h *GroupHandler) ToggleReaction(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := paramUUID(c, "message_id")
	if !ok {
		return
	}

	var req model.ReactionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	reaction, err := h.groupService.ToggleReaction(c.Request.Context(), id, messageID, claims.UserID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reaction": reaction})
}
