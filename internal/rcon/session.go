package rcon

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	gorcon "github.com/gorcon/rcon"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/metrics"
	"go.uber.org/zap"
)

// DefaultTimeout 单条命令的超时时间
const DefaultTimeout = 10 * time.Second

// Session 持有一个已认证的远程控制台连接
// 首次使用或任何失败之后都会重新建连，本身不做重试
type Session struct {
	dialer   Dialer
	endpoint EndpointFunc
	timeout  time.Duration
	logger   *zap.Logger

	mu   sync.Mutex // 串行化命令，协议不支持并发请求
	conn Conn
	// connected 由持锁方写入，读取不需要锁
	connected atomic.Bool
}

// Option 会话选项
type Option func(*Session)

// WithTimeout 设置命令超时
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSession 创建会话，不会立即建连
func NewSession(dialer Dialer, endpoint EndpointFunc, opts ...Option) *Session {
	s := &Session{
		dialer:   dialer,
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		logger:   logger.GetModuleLogger("rcon"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type result struct {
	text string
	err  error
}

// Execute 执行一条命令
// 失败返回 ErrRCONTransport（建连、认证或读写失败）或 ErrRCONTimeout
// 超时后连接会被主动关闭，迟到的结果被丢弃
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected.Load() {
		if err := s.connect(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	conn := s.conn
	done := make(chan result, 1)
	go func() {
		text, err := conn.Execute(command)
		done <- result{text: text, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		elapsed := time.Since(start)
		metrics.RCONCommandLatency.Observe(elapsed.Seconds())
		logger.LogRCONCommand(command, elapsed, r.err)
		if r.err != nil {
			s.teardown()
			metrics.RCONCommandsTotal.WithLabelValues(metrics.ResultTransport).Inc()
			return "", errors.Wrapf(r.err, errors.ErrRCONTransport, "执行命令 %q", command)
		}
		metrics.RCONCommandsTotal.WithLabelValues(metrics.ResultOK).Inc()
		return r.text, nil

	case <-timer.C:
		s.teardown()
		err := errors.Newf(errors.ErrRCONTimeout, "命令 %q 超过 %s 未响应", command, s.timeout)
		logger.LogRCONCommand(command, s.timeout, err)
		metrics.RCONCommandsTotal.WithLabelValues(metrics.ResultTimeout).Inc()
		return "", err
	}
}

// connect 重新建连并认证，调用方持有锁
func (s *Session) connect(ctx context.Context) error {
	s.teardown()

	ep, err := s.endpoint(ctx)
	if err != nil {
		metrics.RCONConnectsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return errors.Wrap(err, errors.ErrRCONTransport, "读取连接设置")
	}

	s.logger.Info("连接远程控制台", zap.String("address", ep.Address))
	conn, err := s.dialer.Dial(ctx, ep.Address, ep.Password)
	if err != nil {
		metrics.RCONConnectsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		// 认证失败与连接失败对调用方不做区分
		if stderrors.Is(err, gorcon.ErrAuthFailed) {
			s.logger.Error("远程控制台认证失败，请检查密码", zap.String("address", ep.Address))
		} else {
			s.logger.Error("无法连接远程控制台，请检查地址和端口",
				zap.String("address", ep.Address),
				zap.Error(err),
			)
		}
		return errors.Wrapf(err, errors.ErrRCONTransport, "连接 %s", ep.Address)
	}

	s.conn = conn
	s.connected.Store(true)
	metrics.RCONConnectsTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("远程控制台连接成功", zap.String("address", ep.Address))
	return nil
}

// teardown 关闭并丢弃当前连接，调用方持有锁
func (s *Session) teardown() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("关闭连接失败", zap.Error(err))
		}
		s.conn = nil
	}
	s.connected.Store(false)
}

// Connected 当前是否持有可用连接，命令执行期间也不会阻塞
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Reset 丢弃当前连接，下一条命令会重新建连
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// Close 关闭会话
func (s *Session) Close() error {
	s.Reset()
	return nil
}
