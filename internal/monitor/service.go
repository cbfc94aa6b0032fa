// Package monitor 定时轮询游戏服务器并把结果合并到玩家记录
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"go.uber.org/zap"
)

// Executor 执行远程控制台命令
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Store 监控服务依赖的持久化操作，每个调用各自原子
type Store interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SetMonitorRunning(ctx context.Context, running bool) error
	GetServerStatus(ctx context.Context) (*models.ServerStatus, error)
	SaveServerStatus(ctx context.Context, status *models.ServerStatus) error
	ListPlayers(ctx context.Context) ([]*models.Player, error)
	FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	UpsertPlayer(ctx context.Context, player *models.Player) error
}

// Options 轮询参数
type Options struct {
	Interval          time.Duration
	InventoryInterval time.Duration
	EventBuffer       int
	// Now 测试时替换时钟
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}
	if o.InventoryInterval <= 0 {
		o.InventoryInterval = 30 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 16
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// request 启停请求，由轮询协程处理后回复
type request struct {
	running bool
	reply   chan error
}

// Service 监控服务
// 运行状态和背包刷新时间只由 Run 所在的协程修改
type Service struct {
	exec   Executor
	store  Store
	opts   Options
	logger *zap.Logger

	requests chan request
	done     chan struct{}
	started  atomic.Bool
	running  atomic.Bool

	lastInventoryAt time.Time

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New 创建监控服务
func New(exec Executor, store Store, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		exec:     exec,
		store:    store,
		opts:     opts,
		logger:   logger.GetModuleLogger("monitor"),
		requests: make(chan request),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Event),
	}
}

// Run 运行轮询循环直到 ctx 取消
// 设置中记录为运行中时自动恢复
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New(errors.ErrMonitorBusy, "轮询循环已在运行")
	}
	defer close(s.done)

	var wake <-chan time.Time
	if settings, err := s.store.GetSettings(ctx); err != nil {
		s.logger.Warn("读取设置失败，监控保持停止", zap.Error(err))
	} else if settings.MonitorRunning {
		s.logger.Info("恢复上次的监控状态")
		s.running.Store(true)
		s.publish(Event{Type: EventStatusChanged, Running: true})
		wake = time.After(0)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("监控循环退出")
			return nil

		case req := <-s.requests:
			err := s.apply(ctx, req.running)
			if err == nil {
				switch {
				case !req.running:
					wake = nil
				case wake == nil:
					wake = time.After(0)
				}
			}
			req.reply <- err

		case <-wake:
			// 关闭和定时器同时就绪时 select 随机选择，这里不再开始新的周期
			if ctx.Err() != nil {
				s.logger.Info("监控循环退出")
				return nil
			}
			s.tick(ctx)
			if s.running.Load() {
				wake = time.After(s.opts.Interval)
			} else {
				wake = nil
			}
		}
	}
}

// apply 先持久化运行标志再生效
func (s *Service) apply(ctx context.Context, running bool) error {
	if err := s.store.SetMonitorRunning(ctx, running); err != nil {
		s.logger.Error("保存监控状态失败", zap.Bool("running", running), zap.Error(err))
		return err
	}
	s.running.Store(running)
	s.logger.Info("监控状态变更", zap.Bool("running", running))
	s.publish(Event{Type: EventStatusChanged, Running: running})
	return nil
}

// Start 请求开始轮询
func (s *Service) Start(ctx context.Context) error {
	return s.send(ctx, true)
}

// Stop 请求停止轮询，正在进行的周期会先完成
func (s *Service) Stop(ctx context.Context) error {
	return s.send(ctx, false)
}

func (s *Service) send(ctx context.Context, running bool) error {
	if !s.started.Load() {
		return errors.New(errors.ErrMonitorNotStarted)
	}

	req := request{running: running, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return errors.New(errors.ErrMonitorNotStarted)
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrTimeout, "等待监控循环响应")
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrTimeout, "等待监控循环响应")
	}
}

// IsRunning 当前是否处于运行状态
func (s *Service) IsRunning() bool {
	return s.running.Load()
}
