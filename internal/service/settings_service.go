package service

import (
	"context"
	"strings"

	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"github.com/wfunc/minecraft-monitor/internal/repository"
	"go.uber.org/zap"
)

type settingsService struct {
	settingsRepo repository.SettingsRepository
	session      SessionResetter
	log          *zap.Logger
}

// NewSettingsService 创建设置服务，session 可以为空
func NewSettingsService(settingsRepo repository.SettingsRepository, session SessionResetter, log *zap.Logger) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, session: session, log: log}
}

func (s *settingsService) Get(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

// UpdateRCON 保存新地址并断开旧连接，下一条命令按新地址连接
func (s *settingsService) UpdateRCON(ctx context.Context, req *UpdateRCONRequest) (*SettingsResponse, error) {
	host := strings.TrimSpace(req.Host)
	if host == "" {
		return nil, errors.New(errors.ErrInvalidParam, "主机地址不能为空")
	}
	if req.Port <= 0 || req.Port > 65535 {
		return nil, errors.Newf(errors.ErrInvalidParam, "端口超出范围: %d", req.Port)
	}

	current, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	password := req.Password
	if password == "" {
		password = current.RCONPassword
	}

	if err := s.settingsRepo.UpdateRCON(ctx, host, req.Port, password); err != nil {
		return nil, err
	}
	if s.session != nil {
		s.session.Reset()
	}
	s.log.Info("远程控制台地址已更新", zap.String("host", host), zap.Int("port", req.Port))
	return s.Get(ctx)
}

func toSettingsResponse(settings *models.Settings) *SettingsResponse {
	return &SettingsResponse{
		RCONHost:        settings.RCONHost,
		RCONPort:        settings.RCONPort,
		HasRCONPassword: settings.RCONPassword != "",
		MonitorRunning:  settings.MonitorRunning,
		AdminUsername:   settings.AdminUsername,
		UpdatedAt:       settings.UpdatedAt,
	}
}
