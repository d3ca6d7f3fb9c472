package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// CallHandler handles Jitsi group calls.
type CallHandler struct {
	callService *service.CallService
}

// NewCallHandler creates a new CallHandler.
func NewCallHandler(callService *service.CallService) *CallHandler {
	return &CallHandler{callService: callService}
}

// StartCall godoc
// POST /api/v1/groups/:id/calls
// Returns 201 with a new room, or 200 with the call already in progress.
func (h *CallHandler) StartCall(c *gin.Context) {
	groupID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.StartCallRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	call, created, err := h.callService.Start(c.Request.Context(), groupID, claims.UserID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"call": call, "created": created})
}

// EndCall godoc
// POST /api/v1/groups/:id/calls/:call_id/end
func (h *CallHandler) EndCall(c *gin.Context) {
	groupID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	callID, ok := paramUUID(c, "call_id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	call, err := h.callService.End(c.Request.Context(), groupID, callID, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"call": call})
}

// ActiveCall godoc
// GET /api/v1/groups/:id/calls/active
// data.call is null when nothing is in progress.
func (h *CallHandler) ActiveCall(c *gin.Context) {
	groupID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	call, err := h.callService.Active(c.Request.Context(), groupID, claims.UserID)
	if repository.IsNotFound(err) {
		response.Success(c, http.StatusOK, gin.H{"call": nil})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"call": call})
}

// CallHistory godoc
// GET /api/v1/groups/:id/calls
func (h *CallHandler) CallHistory(c *gin.Context) {
	groupID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	calls, err := h.callService.History(c.Request.Context(), groupID, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"calls": calls})
}
