package service

import (
	"context"
	"crypto/subtle"

	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/repository"
	"github.com/wfunc/minecraft-monitor/internal/utils"
	"go.uber.org/zap"
)

// authService 认证服务实现
type authService struct {
	settingsRepo repository.SettingsRepository
	jwtManager   *utils.JWTManager
	log          *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(settingsRepo repository.SettingsRepository, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	return &authService{
		settingsRepo: settingsRepo,
		jwtManager:   jwtManager,
		log:          log,
	}
}

// Login 管理员登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	// 用户名和密码都要比较，避免通过耗时区分
	nameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(settings.AdminUsername)) == 1
	passOK, err := utils.VerifyPassword(req.Password, settings.AdminPasswordHash)
	if err != nil {
		s.log.Error("管理员密码哈希格式错误", zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrAuthentication)
	}
	if !nameOK || !passOK {
		s.log.Warn("登录失败", zap.String("username", req.Username))
		return nil, errors.New(errors.ErrAuthentication, "用户名或密码错误")
	}

	token, expiresAt, err := s.jwtManager.GenerateToken(settings.AdminUsername)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknown, "签发令牌失败")
	}

	s.log.Info("管理员登录", zap.String("username", settings.AdminUsername))
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, Username: settings.AdminUsername}, nil
}

// ValidateToken 验证令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	switch {
	case err == utils.ErrExpiredToken:
		return nil, errors.New(errors.ErrTokenExpired)
	case err != nil:
		return nil, errors.New(errors.ErrTokenInvalid)
	}

	// 管理员改名后旧令牌失效
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if claims.Username != settings.AdminUsername {
		return nil, errors.New(errors.ErrTokenInvalid, "管理员账号已变更")
	}
	return claims, nil
}

// EnsureAdmin 密码未变化时不重新哈希
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New(errors.ErrInvalidParam, "管理员账号或密码为空")
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return err
	}
	if settings.AdminUsername == username {
		if ok, _ := utils.VerifyPassword(password, settings.AdminPasswordHash); ok {
			return nil
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "密码加密失败")
	}
	if err := s.settingsRepo.SetAdmin(ctx, username, hash); err != nil {
		return err
	}
	s.log.Info("已更新管理员账号", zap.String("username", username))
	return nil
}
