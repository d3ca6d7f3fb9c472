package validator

import (
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
	Setup()
}

type sample struct {
	Email string `json:"email" binding:"required,email"`
	Day   string `json:"day" binding:"omitempty,isodate"`
}

type sampleQuery struct {
	From string `form:"from" binding:"omitempty,isodate"`
	Page int    `form:"page" binding:"omitempty,min=1"`
}

func TestStruct(t *testing.T) {
	assert.Nil(t, Struct(&sample{Email: "a@example.com", Day: "2026-02-28"}))

	fields := Struct(&sample{Email: "nope", Day: "2026-02-30"})
	require.Len(t, fields, 2)
	assert.Contains(t, fields["email"], "email")
	assert.Equal(t, "day must be a date in YYYY-MM-DD format", fields["day"])
}

func TestBind(t *testing.T) {
	run := func(body string) map[string]string {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var dst sample
		return Bind(c, &dst)
	}

	assert.Nil(t, run(`{"email":"a@example.com"}`))
	assert.Contains(t, run(`{}`), "email")
	assert.Contains(t, run(`{"email":`), "detail")
}

func TestBindQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?from=01-02-2026&page=0", nil)

	var q sampleQuery
	fields := BindQuery(c, &q)
	assert.Contains(t, fields, "from")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 18, d.Day())

	_, err = ParseDate("18/10/2026")
	assert.Error(t, err)
}
