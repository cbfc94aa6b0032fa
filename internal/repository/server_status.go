package repository

import (
	"context"
	"time"

	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerStatusRepository 服务器状态仓储接口
type ServerStatusRepository interface {
	BaseRepository
	Get(ctx context.Context) (*models.ServerStatus, error)
	Save(ctx context.Context, status *models.ServerStatus) error
}

// serverStatusRepo 服务器状态仓储实现
type serverStatusRepo struct {
	*BaseRepo
}

// NewServerStatusRepository 创建服务器状态仓储
func NewServerStatusRepository(db *gorm.DB) ServerStatusRepository {
	return &serverStatusRepo{BaseRepo: NewBaseRepo(db)}
}

// Get 获取服务器状态，首次访问时创建
func (r *serverStatusRepo) Get(ctx context.Context) (*models.ServerStatus, error) {
	status := models.ServerStatus{ID: models.SingletonID}
	if err := r.db.WithContext(ctx).
		Where(models.ServerStatus{ID: models.SingletonID}).
		FirstOrCreate(&status).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "读取服务器状态")
	}
	return &status, nil
}

// Save 整体覆盖单例状态
func (r *serverStatusRepo) Save(ctx context.Context, status *models.ServerStatus) error {
	status.ID = models.SingletonID
	start := time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_running", "game_time", "day_time", "last_update"}),
	}).Create(status).Error
	logger.LogDatabaseOperation("save", models.ServerStatus{}.TableName(), time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate, "保存服务器状态")
	}
	return nil
}
