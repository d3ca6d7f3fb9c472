package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brotliRouter() *gin.Engine {
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, strings.Repeat("attendance ", 500)) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/png", func(c *gin.Context) { c.Data(http.StatusOK, "image/png", bytes.Repeat([]byte{1}, 4096)) })
	r.GET("/events", func(c *gin.Context) { c.String(http.StatusOK, strings.Repeat("data: x\n\n", 300)) })
	return r
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	w := get(brotliRouter(), "/big", map[string]string{"Accept-Encoding": "gzip, br;q=1.0"})

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("attendance ", 500), string(plain))
}

func TestBrotliPassthrough(t *testing.T) {
	r := brotliRouter()

	tests := []struct {
		name    string
		path    string
		headers map[string]string
	}{
		{"client without br", "/big", map[string]string{"Accept-Encoding": "gzip"}},
		{"small body", "/small", map[string]string{"Accept-Encoding": "br"}},
		{"already compressed type", "/png", map[string]string{"Accept-Encoding": "br"}},
		{"event stream", "/events", map[string]string{"Accept-Encoding": "br", "Accept": "text/event-stream"}},
		{"websocket upgrade", "/big", map[string]string{"Accept-Encoding": "br", "Upgrade": "websocket"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path, tt.headers)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.NotEmpty(t, w.Body.Bytes())
		})
	}
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/photo", CacheControl(60), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/qr", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "public, max-age=60, immutable", get(r, "/photo", nil).Header().Get("Cache-Control"))
	w := get(r, "/qr", nil)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}
