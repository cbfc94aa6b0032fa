package monitor

import (
	"time"

	"github.com/wfunc/minecraft-monitor/internal/metrics"
	"go.uber.org/zap"
)

// EventType 事件类型
type EventType string

const (
	// EventStatusChanged 启停状态变化
	EventStatusChanged EventType = "status_changed"
	// EventUpdated 完成一个轮询周期，无论成功与否
	EventUpdated EventType = "updated"
)

// Event 监控事件
type Event struct {
	Type          EventType `json:"type"`
	Running       bool      `json:"running"`
	ServerUp      bool      `json:"server_up"`
	PlayersOnline int       `json:"players_online"`
	Err           string    `json:"error,omitempty"`
	Time          time.Time `json:"time"`
}

// Subscribe 订阅事件，返回取消订阅函数
// 订阅者缓冲满时事件被丢弃，不会阻塞轮询
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, s.opts.EventBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once bool
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Service) publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = s.opts.Now()
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			metrics.EventsDroppedTotal.Inc()
			s.logger.Debug("订阅者缓冲已满，丢弃事件", zap.Int("subscriber", id), zap.String("type", string(ev.Type)))
		}
	}
}
