package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 创建内存数据库并迁移全部模型
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接独立，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Settings{},
		&models.ServerStatus{},
		&models.Player{},
		&models.Coordinates{},
	))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateTestPlayer 构造在线玩家
func CreateTestPlayer(id string, name string, x, y, z int, dimension string) *models.Player {
	return &models.Player{
		ID:           uuid.MustParse(id),
		Name:         name,
		IsOnline:     true,
		LastOnlineAt: time.Now(),
		Coordinates: &models.Coordinates{
			X:         x,
			Y:         y,
			Z:         z,
			Dimension: dimension,
		},
	}
}
