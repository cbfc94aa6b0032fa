package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/service"
)

// 上下文键
const (
	ContextUsername  = "username"
	ContextSessionID = "sessionID"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth 需要管理员令牌
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    int(errors.ErrAuthentication),
				"message": "缺少认证令牌",
			})
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			code := errors.GetCode(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    int(code),
				"message": "无效的令牌",
				"details": err.Error(),
			})
			return
		}

		c.Set(ContextUsername, claims.Username)
		c.Set(ContextSessionID, claims.SessionID)
		c.Next()
	}
}

// extractToken 依次从 Authorization 头、X-Access-Token 头和查询参数读取
// 浏览器的 WebSocket 无法设置请求头，因此保留查询参数
func extractToken(c *gin.Context) string {
	if bearer := c.GetHeader("Authorization"); bearer != "" {
		parts := strings.SplitN(bearer, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}
	return c.Query("token")
}

// GetUsername 从上下文获取管理员用户名
func GetUsername(c *gin.Context) (string, bool) {
	if username, exists := c.Get(ContextUsername); exists {
		if name, ok := username.(string); ok {
			return name, true
		}
	}
	return "", false
}
