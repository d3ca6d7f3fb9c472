package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

type authFixture struct {
	auth   *service.AuthService
	router *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	_, rdb := newTestRedis(t)
	auth := service.NewAuthService(&config.Config{JWTSecret: "secret", JWTExpiry: time.Hour}, rdb, nil)

	r := gin.New()
	api := r.Group("/api", RequireJWT(auth), CheckSession(auth))
	api.GET("/users", RequirePermission(model.PermissionUsersRead), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/library", RequireAnyPermission(model.PermissionLibraryRead, model.PermissionLibraryWrite), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/students/me", RequireRole(model.RoleStudent), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ws", RequireWSAuth(auth), func(c *gin.Context) { c.Status(http.StatusOK) })

	return &authFixture{auth: auth, router: r}
}

func (f *authFixture) token(t *testing.T, role model.Role) (string, uuid.UUID) {
	t.Helper()
	user := &model.User{ID: uuid.New(), Role: role}
	token, _, err := f.auth.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	return token, user.ID
}

func (f *authFixture) do(path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireJWT(t *testing.T) {
	f := newAuthFixture(t)
	admin, _ := f.token(t, model.RoleAdmin)

	w := f.do("/api/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, errorCode(t, w))

	w = f.do("/api/users", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenInvalid, errorCode(t, w))

	assert.Equal(t, http.StatusOK, f.do("/api/users", "Bearer "+admin).Code)
	assert.Equal(t, http.StatusOK, f.do("/api/users", "bearer "+admin).Code)
	assert.Equal(t, http.StatusOK, f.do("/api/users?token="+admin, "").Code, "EventSource clients pass the token in the query")
}

func TestCheckSessionRejectsReplacedToken(t *testing.T) {
	f := newAuthFixture(t)
	user := &model.User{ID: uuid.New(), Role: model.RoleAdmin}

	old, _, err := f.auth.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	fresh, _, err := f.auth.GenerateToken(context.Background(), user)
	require.NoError(t, err)

	w := f.do("/api/users", "Bearer "+old)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrSessionInvalidated, errorCode(t, w))
	assert.Equal(t, http.StatusOK, f.do("/api/users", "Bearer "+fresh).Code)

	require.NoError(t, f.auth.Logout(context.Background(), user.ID))
	assert.Equal(t, http.StatusUnauthorized, f.do("/api/users", "Bearer "+fresh).Code)
}

func TestPermissionsAndRoles(t *testing.T) {
	f := newAuthFixture(t)
	student, _ := f.token(t, model.RoleStudent)
	librarian, _ := f.token(t, model.RoleLibrarian)

	w := f.do("/api/users", "Bearer "+student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrPermissionDenied, errorCode(t, w))

	assert.Equal(t, http.StatusOK, f.do("/api/library", "Bearer "+librarian).Code)
	assert.Equal(t, http.StatusForbidden, f.do("/api/library", "Bearer "+student).Code)

	assert.Equal(t, http.StatusOK, f.do("/api/students/me", "Bearer "+student).Code)
	w = f.do("/api/students/me", "Bearer "+librarian)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrForbidden, errorCode(t, w))
}

func TestRequireWSAuth(t *testing.T) {
	f := newAuthFixture(t)
	faculty, _ := f.token(t, model.RoleFaculty)

	assert.Equal(t, http.StatusUnauthorized, f.do("/ws", "Bearer "+faculty).Code, "headers are not read for websockets")
	assert.Equal(t, http.StatusOK, f.do("/ws?token="+faculty, "").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(model.PermissionUsersRead), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
