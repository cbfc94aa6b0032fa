package database

import (
	"fmt"

	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed 首次运行时写入设置表的默认值
type Seed struct {
	RCONHost      string
	RCONPort      int
	RCONPassword  string
	AdminUsername string
}

// AutoMigrate 迁移表结构并确保单例记录存在
func AutoMigrate(db *gorm.DB, seed Seed) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	migrationModels := []interface{}{
		&models.Settings{},
		&models.ServerStatus{},
		&models.Player{},
		&models.Coordinates{},
	}

	logger.Info("开始数据库迁移...")
	for _, model := range migrationModels {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	if err := initDefaultData(db, seed); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// initDefaultData 初始化单例记录，已存在时不覆盖
func initDefaultData(db *gorm.DB, seed Seed) error {
	settings := models.Settings{ID: models.SingletonID}
	if err := db.Where(models.Settings{ID: models.SingletonID}).
		Attrs(models.Settings{
			RCONHost:      seed.RCONHost,
			RCONPort:      seed.RCONPort,
			RCONPassword:  seed.RCONPassword,
			AdminUsername: seed.AdminUsername,
		}).
		FirstOrCreate(&settings).Error; err != nil {
		return fmt.Errorf("初始化设置失败: %w", err)
	}

	status := models.ServerStatus{ID: models.SingletonID}
	if err := db.Where(models.ServerStatus{ID: models.SingletonID}).
		FirstOrCreate(&status).Error; err != nil {
		return fmt.Errorf("初始化服务器状态失败: %w", err)
	}
	return nil
}
