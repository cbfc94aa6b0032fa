package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/metrics"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"github.com/wfunc/minecraft-monitor/internal/nbt"
	"github.com/wfunc/minecraft-monitor/internal/parser"
	"go.uber.org/zap"
)

// tick 执行一个轮询周期
// 任何一步失败都放弃本周期并把服务器标记为未运行，不影响下一个周期
func (s *Service) tick(ctx context.Context) {
	now := s.opts.Now()
	inventoryDue := now.Sub(s.lastInventoryAt) >= s.opts.InventoryInterval

	online, err := s.reconcile(ctx, now, inventoryDue)

	ev := Event{Type: EventUpdated, Running: s.running.Load()}
	if err != nil {
		s.logger.Warn("轮询失败，标记服务器未运行",
			zap.Int("code", int(errors.GetCode(err))),
			zap.Bool("retryable", errors.IsRetryable(err)),
			zap.Error(err),
		)
		metrics.TicksTotal.WithLabelValues(metrics.ResultFailed).Inc()
		metrics.ServerUp.Set(0)
		s.markDown(ctx, now)
		ev.Err = err.Error()
	} else {
		metrics.TicksTotal.WithLabelValues(metrics.ResultOK).Inc()
		metrics.ServerUp.Set(1)
		metrics.PlayersOnline.Set(float64(online))
		ev.ServerUp = true
		ev.PlayersOnline = online
	}

	if inventoryDue {
		s.lastInventoryAt = s.opts.Now()
	}
	s.publish(ev)
}

// reconcile 查询并合并本周期数据，返回在线人数
func (s *Service) reconcile(ctx context.Context, now time.Time, inventoryDue bool) (int, error) {
	gameText, err := s.exec.Execute(ctx, parser.CmdGameTime)
	if err != nil {
		return 0, err
	}
	dayText, err := s.exec.Execute(ctx, parser.CmdDayTime)
	if err != nil {
		return 0, err
	}
	gameTime, err := parser.ParseClock(gameText)
	if err != nil {
		return 0, err
	}
	dayTime, err := parser.ParseClock(dayText)
	if err != nil {
		return 0, err
	}

	if err := s.store.SaveServerStatus(ctx, &models.ServerStatus{
		IsRunning:  true,
		GameTime:   gameTime,
		DayTime:    dayTime,
		LastUpdate: now,
	}); err != nil {
		return 0, err
	}

	// 三条命令共用同一个会话，顺序执行
	rosterText, err := s.exec.Execute(ctx, parser.CmdListUUIDs)
	if err != nil {
		return 0, err
	}
	dimText, err := s.exec.Execute(ctx, parser.CmdPlayerDimension)
	if err != nil {
		return 0, err
	}
	posText, err := s.exec.Execute(ctx, parser.CmdPlayerPosition)
	if err != nil {
		return 0, err
	}

	if parser.IsEmptyRoster(rosterText) {
		return 0, s.markOffline(ctx, nil)
	}

	observations, err := s.segment(rosterText, dimText, posText)
	if err != nil {
		return 0, err
	}

	present := make(map[uuid.UUID]bool, len(observations))
	for _, obs := range observations {
		existing, err := s.store.FindPlayer(ctx, obs.ID)
		if err != nil {
			return 0, err
		}

		inventory, err := s.inventory(ctx, obs.Name, existing, inventoryDue)
		if err != nil {
			return 0, err
		}

		if err := s.store.UpsertPlayer(ctx, &models.Player{
			ID:           obs.ID,
			Name:         obs.Name,
			IsOnline:     true,
			LastOnlineAt: now,
			Inventory:    inventory,
			Coordinates: &models.Coordinates{
				X:         obs.X,
				Y:         obs.Y,
				Z:         obs.Z,
				Dimension: obs.Dimension,
			},
		}); err != nil {
			return 0, err
		}
		present[obs.ID] = true
	}

	if err := s.markOffline(ctx, present); err != nil {
		return 0, err
	}
	return len(observations), nil
}

func (s *Service) segment(rosterText, dimText, posText string) ([]parser.Observation, error) {
	roster, err := parser.ParseRoster(rosterText)
	if err != nil {
		return nil, err
	}
	dims, err := parser.ParseDimensions(dimText, parser.Names(roster))
	if err != nil {
		return nil, err
	}
	positions, err := parser.ParsePositions(posText)
	if err != nil {
		return nil, err
	}
	return parser.Align(roster, dims, positions)
}

// inventory 背包每隔 InventoryInterval 刷新一次，其余周期沿用已有数据
// 文本无法规整时只保留旧值，不影响整个周期
func (s *Service) inventory(ctx context.Context, name string, existing *models.Player, due bool) (*string, error) {
	var previous *string
	if existing != nil {
		previous = existing.Inventory
	}
	if !due {
		return previous, nil
	}

	text, err := s.exec.Execute(ctx, parser.InventoryCommand(name))
	if err != nil {
		return nil, err
	}
	if parser.IsNoEntity(text) {
		metrics.InventoryRefreshTotal.WithLabelValues(metrics.ResultNoEntity).Inc()
		return nil, nil
	}

	normalized, ok := nbt.Normalize(parser.StripEcho(text, name))
	if !ok {
		metrics.InventoryRefreshTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		s.logger.Debug("背包数据无法解析，保留上次结果", zap.String("player", name))
		return previous, nil
	}
	metrics.InventoryRefreshTotal.WithLabelValues(metrics.ResultOK).Inc()
	return &normalized, nil
}

// markOffline 把不在本次在线列表中的玩家标记为离线，坐标保持不变
func (s *Service) markOffline(ctx context.Context, present map[uuid.UUID]bool) error {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		if !p.IsOnline || present[p.ID] {
			continue
		}
		p.IsOnline = false
		p.Coordinates = nil
		if err := s.store.UpsertPlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// markDown 记录服务器不可达，保留上次的游戏时间
func (s *Service) markDown(ctx context.Context, now time.Time) {
	status, err := s.store.GetServerStatus(ctx)
	if err != nil {
		status = &models.ServerStatus{}
	}
	status.IsRunning = false
	status.LastUpdate = now
	if err := s.store.SaveServerStatus(ctx, status); err != nil {
		s.logger.Error("保存服务器状态失败", zap.Error(err))
	}
}
