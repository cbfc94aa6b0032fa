package service

import (
	"context"
	"time"

	"github.com/wfunc/minecraft-monitor/internal/utils"
)

// AuthService 管理员认证
type AuthService interface {
	// Login 校验账号密码并签发令牌
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	// ValidateToken 校验令牌
	ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error)
	// EnsureAdmin 把配置中的管理员账号写入设置
	EnsureAdmin(ctx context.Context, username, password string) error
}

// SettingsService 远程控制台设置
type SettingsService interface {
	Get(ctx context.Context) (*SettingsResponse, error)
	UpdateRCON(ctx context.Context, req *UpdateRCONRequest) (*SettingsResponse, error)
}

// SessionResetter 设置变更后断开现有连接
type SessionResetter interface {
	Reset()
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

// UpdateRCONRequest 更新远程控制台地址
// Password 为空时保留原密码
type UpdateRCONRequest struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port" binding:"required,min=1,max=65535"`
	Password string `json:"password"`
}

// SettingsResponse 对外展示的设置，不含密码
type SettingsResponse struct {
	RCONHost        string    `json:"rcon_host"`
	RCONPort        int       `json:"rcon_port"`
	HasRCONPassword bool      `json:"has_rcon_password"`
	MonitorRunning  bool      `json:"monitor_running"`
	AdminUsername   string    `json:"admin_username"`
	UpdatedAt       time.Time `json:"updated_at"`
}
