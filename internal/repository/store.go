package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"gorm.io/gorm"
)

// Store 监控服务使用的持久化入口，聚合各仓储
type Store struct {
	Settings SettingsRepository
	Status   ServerStatusRepository
	Players  PlayerRepository
}

// NewStore 创建存储
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Settings: NewSettingsRepository(db),
		Status:   NewServerStatusRepository(db),
		Players:  NewPlayerRepository(db),
	}
}

func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	return s.Settings.Get(ctx)
}

func (s *Store) SetMonitorRunning(ctx context.Context, running bool) error {
	return s.Settings.SetMonitorRunning(ctx, running)
}

func (s *Store) GetServerStatus(ctx context.Context) (*models.ServerStatus, error) {
	return s.Status.Get(ctx)
}

func (s *Store) SaveServerStatus(ctx context.Context, status *models.ServerStatus) error {
	return s.Status.Save(ctx, status)
}

func (s *Store) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	return s.Players.List(ctx, false)
}

func (s *Store) FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return s.Players.FindByID(ctx, id)
}

func (s *Store) UpsertPlayer(ctx context.Context, player *models.Player) error {
	return s.Players.Upsert(ctx, player)
}
