package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/ctxutil"
	"hihitutor/internal/pkg/ratelimit"
)

var errTokenInvalid = apperr.Unauthenticated(40102, "Token无效")

type stubAuthenticator map[string]*auth.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errTokenInvalid
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ctxutil.GetActor(c.Request.Context())
		body := gin.H{"ok": true}
		if actor != nil {
			body["role"] = actor.Role
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/x", handlers...)
	return r
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAuth(t *testing.T) {
	users := stubAuthenticator{
		"admin-token":   {ID: "a1", Tags: []string{"admin"}},
		"student-token": {ID: "s1", Tags: []string{"student"}},
	}

	tests := []struct {
		name   string
		header string
		admin  bool
		status int
		code   int
	}{
		{name: "missing header", status: http.StatusUnauthorized, code: 40100},
		{name: "bad scheme", header: "Token abc", status: http.StatusUnauthorized, code: 40104},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized, code: 40102},
		{name: "student ok", header: "Bearer student-token", status: http.StatusOK},
		{name: "student on admin route", header: "Bearer student-token", admin: true, status: http.StatusForbidden, code: 40300},
		{name: "admin on admin route", header: "bearer admin-token", admin: true, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := []gin.HandlerFunc{Auth(users)}
			if tt.admin {
				chain = append(chain, RequireAdmin())
			}
			r := newRouter(chain...)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != 0 {
				assert.Equal(t, tt.code, decodeCode(t, w))
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	users := stubAuthenticator{
		"admin-token":   {ID: "a1", Tags: []string{"admin"}},
		"tutor-token":   {ID: "t1", Tags: []string{"tutor"}},
		"student-token": {ID: "s1", Tags: []string{"student"}},
		"org-token":     {ID: "o1", Tags: []string{"institution"}},
	}
	r := newRouter(Auth(users), RequireRoles(auth.RoleTutor, auth.RoleStudent))

	tests := []struct {
		token  string
		status int
	}{
		{token: "admin-token", status: http.StatusOK},
		{token: "tutor-token", status: http.StatusOK},
		{token: "student-token", status: http.StatusForbidden},
		{token: "org-token", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	users := stubAuthenticator{"student-token": {ID: "s1", Tags: []string{"student"}}}
	r := newRouter(OptionalAuth(users))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "role")

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"student"`)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50001, decodeCode(t, w))
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(ratelimit.NewKeyed(0.001, 2, time.Minute)))

	statuses := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}
