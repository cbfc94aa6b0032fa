package service

import (
	"time"

	"github.com/wfunc/minecraft-monitor/internal/repository"
	"github.com/wfunc/minecraft-monitor/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// Services 服务集合
type Services struct {
	Auth     AuthService
	Settings SettingsService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config, session SessionResetter, log *zap.Logger) *Services {
	settingsRepo := repository.NewSettingsRepository(db)
	jwtManager := utils.NewJWTManager(config.JWTSecret, config.TokenExpiry)

	return &Services{
		Auth:     NewAuthService(settingsRepo, jwtManager, log),
		Settings: NewSettingsService(settingsRepo, session, log),
	}
}
