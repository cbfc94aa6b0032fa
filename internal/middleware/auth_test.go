package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/service"
	"github.com/wfunc/minecraft-monitor/internal/utils"
)

type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, req *service.LoginRequest) (*service.LoginResponse, error) {
	return nil, errors.New(errors.ErrNotImplemented)
}

func (stubAuth) ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error) {
	if token != "good" {
		return nil, errors.New(errors.ErrTokenInvalid)
	}
	return &utils.AdminClaims{Username: "admin", SessionID: "s1"}, nil
}

func (stubAuth) EnsureAdmin(ctx context.Context, username, password string) error { return nil }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/private", NewAuthMiddleware(stubAuth{}).RequireAuth(), func(c *gin.Context) {
		name, _ := GetUsername(c)
		c.String(http.StatusOK, name)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequireAuth(t *testing.T) {
	r := newRouter()

	cases := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"缺少令牌", func(req *http.Request) {}, http.StatusUnauthorized},
		{"无效令牌", func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"Bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"小写bearer", func(req *http.Request) { req.Header.Set("Authorization", "bearer good") }, http.StatusOK},
		{"自定义头", func(req *http.Request) { req.Header.Set("X-Access-Token", "good") }, http.StatusOK},
		{"查询参数", func(req *http.Request) { req.URL.RawQuery = "token=good" }, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
