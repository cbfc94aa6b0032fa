// Package snapshot 把每次监控事件后的服务器快照写入 Redis 并广播
package snapshot

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"github.com/wfunc/minecraft-monitor/internal/monitor"
	"go.uber.org/zap"
)

// Source 快照数据来源
type Source interface {
	GetServerStatus(ctx context.Context) (*models.ServerStatus, error)
	ListPlayers(ctx context.Context) ([]*models.Player, error)
}

// Snapshot 写入 Redis 的内容
type Snapshot struct {
	Event   monitor.Event        `json:"event"`
	Server  *models.ServerStatus `json:"server"`
	Players []*models.Player     `json:"players"`
}

// Publisher 快照发布器
type Publisher struct {
	client  *redis.Client
	source  Source
	key     string
	channel string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPublisher 创建发布器
func NewPublisher(client *redis.Client, source Source, key, channel string) *Publisher {
	return &Publisher{
		client:  client,
		source:  source,
		key:     key,
		channel: channel,
		logger:  logger.GetModuleLogger("snapshot"),
	}
}

// WithTTL 设置快照过期时间，0 表示不过期
func (p *Publisher) WithTTL(ttl time.Duration) *Publisher {
	p.ttl = ttl
	return p
}

// Run 消费事件直到通道关闭或 ctx 取消
// 单次发布失败只记录日志
func (p *Publisher) Run(ctx context.Context, events <-chan monitor.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := p.Publish(ctx, ev); err != nil {
				p.logger.Warn("发布快照失败", zap.String("type", string(ev.Type)), zap.Error(err))
			}
		}
	}
}

// Publish 读取当前状态，写入快照键并发布到频道
func (p *Publisher) Publish(ctx context.Context, ev monitor.Event) error {
	status, err := p.source.GetServerStatus(ctx)
	if err != nil {
		return err
	}
	players, err := p.source.ListPlayers(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Snapshot{Event: ev, Server: status, Players: players})
	if err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "序列化快照")
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.key, data, p.ttl)
		pipe.Publish(ctx, p.channel, data)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrRedis, "写入快照")
	}
	return nil
}

// Load 读取最近一次快照，不存在时返回 nil
func (p *Publisher) Load(ctx context.Context) (*Snapshot, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrRedis, "读取快照")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknown, "解析快照")
	}
	return &snap, nil
}
