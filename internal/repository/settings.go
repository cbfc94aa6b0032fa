package repository

import (
	"context"
	"time"

	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"gorm.io/gorm"
)

// SettingsRepository 系统设置仓储接口
type SettingsRepository interface {
	BaseRepository
	Get(ctx context.Context) (*models.Settings, error)
	SetMonitorRunning(ctx context.Context, running bool) error
	UpdateRCON(ctx context.Context, host string, port int, password string) error
	SetAdmin(ctx context.Context, username, passwordHash string) error
}

// settingsRepo 系统设置仓储实现
type settingsRepo struct {
	*BaseRepo
}

// NewSettingsRepository 创建系统设置仓储
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepo{BaseRepo: NewBaseRepo(db)}
}

// Get 获取设置，不存在时按默认值创建
func (r *settingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	settings := models.Settings{ID: models.SingletonID}
	if err := r.db.WithContext(ctx).
		Where(models.Settings{ID: models.SingletonID}).
		FirstOrCreate(&settings).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "读取设置")
	}
	return &settings, nil
}

// SetMonitorRunning 只更新运行标志，避免覆盖其他字段
func (r *settingsRepo) SetMonitorRunning(ctx context.Context, running bool) error {
	return r.updateColumns(ctx, map[string]interface{}{"monitor_running": running})
}

// UpdateRCON 更新远程控制台连接参数
func (r *settingsRepo) UpdateRCON(ctx context.Context, host string, port int, password string) error {
	return r.updateColumns(ctx, map[string]interface{}{
		"rcon_host":     host,
		"rcon_port":     port,
		"rcon_password": password,
	})
}

// SetAdmin 更新管理员账号
func (r *settingsRepo) SetAdmin(ctx context.Context, username, passwordHash string) error {
	return r.updateColumns(ctx, map[string]interface{}{
		"admin_username":      username,
		"admin_password_hash": passwordHash,
	})
}

func (r *settingsRepo) updateColumns(ctx context.Context, values map[string]interface{}) error {
	if _, err := r.Get(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ?", models.SingletonID).
		Updates(values).Error
	logger.LogDatabaseOperation("update", models.Settings{}.TableName(), time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate, "更新设置")
	}
	return nil
}
