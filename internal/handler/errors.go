package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
)

type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// Domain errors and the responses they produce. Checked in order with errors.Is.
var errorMappings = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrWrongPassword, http.StatusBadRequest, response.ErrInvalidCredentials},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrCannotDeleteSelf, http.StatusForbidden, response.ErrActionForbidden},
	{service.ErrStudentAccount, http.StatusForbidden, response.ErrActionForbidden},
	{service.ErrInvalidFaculty, http.StatusBadRequest, response.ErrInvalidCoordinator},
	{service.ErrFutureDate, http.StatusBadRequest, response.ErrFutureDate},
	{service.ErrStudentNotInClass, http.StatusBadRequest, response.ErrStudentNotInClass},
	{service.ErrInvalidRange, http.StatusBadRequest, response.ErrInvalidDate},
	{service.ErrInvalidSpreadsheet, http.StatusBadRequest, response.ErrInvalidSheet},
	{service.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
	{service.ErrNotGroupMember, http.StatusForbidden, response.ErrNotGroupMember},
	{service.ErrNotGroupAdmin, http.StatusForbidden, response.ErrNotGroupAdmin},
	{service.ErrEmptyMessage, http.StatusBadRequest, response.ErrInvalidMessage},
	{service.ErrMessageTooLong, http.StatusBadRequest, response.ErrInvalidMessage},
	{service.ErrInvalidEmoji, http.StatusBadRequest, response.ErrInvalidPayload},
	{service.ErrInvalidReply, http.StatusBadRequest, response.ErrInvalidReply},
	{service.ErrMessageDeleted, http.StatusGone, response.ErrMessageDeleted},
	{service.ErrNotMessageOwner, http.StatusForbidden, response.ErrNotMessageOwner},
	{service.ErrCallNotActive, http.StatusConflict, response.ErrCallNotActive},
	{service.ErrNotMeetingOrganizer, http.StatusForbidden, response.ErrActionForbidden},
	{service.ErrInvalidParticipant, http.StatusBadRequest, response.ErrInvalidParticipant},
	{service.ErrCardNotIssued, http.StatusNotFound, response.ErrCardNotIssued},
	{repository.ErrLastGroupAdmin, http.StatusConflict, response.ErrLastGroupAdmin},
	{repository.ErrBookUnavailable, http.StatusConflict, response.ErrBookUnavailable},
	{repository.ErrIssueLimit, http.StatusConflict, response.ErrIssueLimit},
	{repository.ErrUnpaidFines, http.StatusConflict, response.ErrUnpaidFines},
	{repository.ErrAlreadyReturned, http.StatusConflict, response.ErrAlreadyReturned},
	{repository.ErrNoFineDue, http.StatusConflict, response.ErrNoFineDue},
	{repository.ErrCopiesBelowIssued, http.StatusConflict, response.ErrCopiesBelowIssue},
	{repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},
	{repository.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},
}

// classifyError resolves err to its response status and code. The last
// result is false for errors with no mapping.
func classifyError(err error) (int, response.ErrCode, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	if repository.IsNotFound(err) {
		return http.StatusNotFound, response.ErrNotFound, true
	}
	return http.StatusInternalServerError, response.ErrInternal, false
}

// respondError writes the error response for err. Unmapped errors are
// recorded on the context for the request logger and returned as 500.
func respondError(c *gin.Context, err error) {
	status, code, known := classifyError(err)
	if !known {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}

// paramUUID parses a UUID path parameter, writing a 400 when malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter. Empty yields nil.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}
	return &id, true
}
