package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerRepository 玩家仓储接口
type PlayerRepository interface {
	BaseRepository
	List(ctx context.Context, onlineOnly bool) ([]*models.Player, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Upsert(ctx context.Context, player *models.Player) error
	CountOnline(ctx context.Context) (int64, error)
}

// playerRepo 玩家仓储实现
type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{BaseRepo: NewBaseRepo(db)}
}

// List 按名称排序列出玩家
func (r *playerRepo) List(ctx context.Context, onlineOnly bool) ([]*models.Player, error) {
	var players []*models.Player
	query := r.db.WithContext(ctx).Preload("Coordinates")
	if onlineOnly {
		query = query.Where("is_online = ?", true)
	}
	if err := query.Order("name").Find(&players).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询玩家列表")
	}
	return players, nil
}

// FindByID 按标识查找玩家，不存在时返回 nil, nil
func (r *playerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return findPlayer(r.db.WithContext(ctx), id)
}

func findPlayer(db *gorm.DB, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := db.Preload("Coordinates").Where("id = ?", id).First(&player).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询玩家")
	}
	return &player, nil
}

// Upsert 创建或更新玩家
// 已存在的玩家原地更新坐标行，坐标ID保持不变
func (r *playerRepo) Upsert(ctx context.Context, player *models.Player) (err error) {
	start := time.Now()
	defer func() {
		logger.LogDatabaseOperation("upsert", models.Player{}.TableName(), time.Since(start), err)
	}()

	return r.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := findPlayer(tx, player.ID)
		if err != nil {
			return err
		}

		if existing == nil {
			if err := tx.Omit(clause.Associations).Create(player).Error; err != nil {
				return errors.Wrap(err, errors.ErrDatabaseInsert, "创建玩家")
			}
			return createCoordinates(tx, player)
		}

		if err := tx.Model(&models.Player{}).
			Where("id = ?", player.ID).
			Updates(map[string]interface{}{
				"name":           player.Name,
				"is_online":      player.IsOnline,
				"last_online_at": player.LastOnlineAt,
				"inventory":      player.Inventory,
			}).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate, "更新玩家")
		}

		if player.Coordinates == nil {
			return nil
		}
		if existing.Coordinates == nil {
			return createCoordinates(tx, player)
		}

		player.Coordinates.ID = existing.Coordinates.ID
		player.Coordinates.PlayerID = player.ID
		if err := tx.Model(&models.Coordinates{}).
			Where("id = ?", existing.Coordinates.ID).
			Updates(map[string]interface{}{
				"x":         player.Coordinates.X,
				"y":         player.Coordinates.Y,
				"z":         player.Coordinates.Z,
				"dimension": player.Coordinates.Dimension,
			}).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseUpdate, "更新坐标")
		}
		return nil
	})
}

func createCoordinates(tx *gorm.DB, player *models.Player) error {
	if player.Coordinates == nil {
		return nil
	}
	player.Coordinates.ID = 0
	player.Coordinates.PlayerID = player.ID
	if err := tx.Create(player.Coordinates).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "创建坐标")
	}
	return nil
}

// CountOnline 统计在线玩家数
func (r *playerRepo) CountOnline(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("is_online = ?", true).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseQuery, "统计在线玩家")
	}
	return count, nil
}
