package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// MeetingHandler handles faculty meetings.
type MeetingHandler struct {
	meetingService *service.MeetingService
}

// NewMeetingHandler creates a new MeetingHandler.
func NewMeetingHandler(meetingService *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// CreateMeeting godoc
// POST /api/v1/meetings
// The caller organises; every participant must be a faculty member.
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	var req model.CreateMeetingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	meeting, err := h.meetingService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"meeting": meeting})
}

// ListMyMeetings godoc
// GET /api/v1/meetings?from=&to=
// Meetings the caller organises or attends. Defaults to the next thirty days.
func (h *MeetingHandler) ListMyMeetings(c *gin.Context) {
	var q rangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var from, to time.Time
	if q.From != "" {
		from, _ = validator.ParseDate(q.From)
	}
	if q.To != "" {
		t, _ := validator.ParseDate(q.To)
		to = t.AddDate(0, 0, 1) // inclusive end date
	}

	claims := middleware.GetClaims(c)
	meetings, err := h.meetingService.ListMine(c.Request.Context(), claims.UserID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"meetings": meetings})
}

// GetMeeting godoc
// GET /api/v1/meetings/:id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	meeting, err := h.meetingService.Get(c.Request.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"meeting": meeting})
}

// DeleteMeeting godoc
// DELETE /api/v1/meetings/:id
func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.meetingService.Delete(c.Request.Context(), id, claims.UserID, claims.Role); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "meeting deleted"})
}
