package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, perPage             int
		wantPage, wantPer, offset int
	}{
		{0, 0, 1, 10, 0},
		{3, 20, 3, 20, 40},
		{-2, 500, 1, 100, 0},
	}
	for _, tt := range tests {
		page, per, off := NormalizePage(tt.page, tt.perPage)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantPer, per)
		assert.Equal(t, tt.offset, off)
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 2, PerPage: 10, TotalItems: 21, TotalPages: 3}, NewPagination(2, 10, 21))
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"hello": "world"}) })
	r.GET("/fail", func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"email": "email is required"})
	})

	t.Run("success keeps client request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "abc-123", body.Metadata.RequestID)
		assert.Nil(t, body.Error)
		assert.Equal(t, map[string]interface{}{"hello": "world"}, body.Data)
	})

	t.Run("oversized request id is replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})

	t.Run("failure carries code and fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Equal(t, ErrValidation, body.Error.Code)
		assert.Equal(t, GetMessage(ErrValidation), body.Error.Message)
		assert.Equal(t, "email is required", body.Error.Fields["email"])
	})
}

func TestGetMessageFallback(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred.", GetMessage(ErrCode("NOPE")))
}
