package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
		known  bool
	}{
		{"bad login", service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials, true},
		{"wrapped sentinel", fmt.Errorf("upload: %w", service.ErrFileTooLarge), http.StatusRequestEntityTooLarge, response.ErrFileTooLarge, true},
		{"not a member", service.ErrNotGroupMember, http.StatusForbidden, response.ErrNotGroupMember, true},
		{"deleted message", service.ErrMessageDeleted, http.StatusGone, response.ErrMessageDeleted, true},
		{"unique violation", repository.ErrDuplicate, http.StatusConflict, response.ErrConflict, true},
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), http.StatusNotFound, response.ErrNotFound, true},
		{"repository not found", repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound, true},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, response.ErrInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, known := classifyError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestEveryMappedCodeHasAMessage(t *testing.T) {
	for _, m := range errorMappings {
		assert.NotEqual(t, response.GetMessage(response.ErrCode("")), response.GetMessage(m.code), "code %s", m.code)
	}
}

func TestRespondErrorRecordsUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, service.ErrNotGroupAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, c.Errors)
}

func TestParamUUID(t *testing.T) {
	r := gin.New()
	var got uuid.UUID
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		got = id
		c.Status(http.StatusNoContent)
	})

	want := uuid.New()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/"+want.String(), nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, want, got)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidID, decodeError(t, w))
}

func TestQueryUUID(t *testing.T) {
	r := gin.New()
	var got *uuid.UUID
	r.GET("/classes", func(c *gin.Context) {
		id, ok := queryUUID(c, "department_id")
		if !ok {
			return
		}
		got = id
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, got)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?department_id=cse", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
