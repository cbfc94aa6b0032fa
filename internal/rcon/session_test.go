package rcon

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/minecraft-monitor/internal/errors"
)

// fakeConn 可控的连接
type fakeConn struct {
	mu       sync.Mutex
	replies  map[string]string
	delay    time.Duration
	fail     error
	closed   atomic.Bool
	executed []string
}

func (c *fakeConn) Execute(command string) (string, error) {
	c.mu.Lock()
	c.executed = append(c.executed, command)
	delay, fail, reply := c.delay, c.fail, c.replies[command]
	c.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != nil {
		return "", fail
	}
	return reply, nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeDialer 记录拨号次数，按顺序返回连接
type fakeDialer struct {
	mu        sync.Mutex
	conns     []*fakeConn
	err       error
	dials     int
	addresses []string
}

func (d *fakeDialer) Dial(ctx context.Context, address, password string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.addresses = append(d.addresses, address)
	if d.err != nil {
		return nil, d.err
	}
	conn := d.conns[0]
	if len(d.conns) > 1 {
		d.conns = d.conns[1:]
	}
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// SessionTestSuite 会话测试套件
type SessionTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx = context.Background()
}

// 首次执行时建连，之后复用连接
func (s *SessionTestSuite) TestConnectsLazilyAndReuses() {
	conn := &fakeConn{replies: map[string]string{"/time query gametime": "The time is 1200"}}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	session := NewSession(dialer, StaticEndpoint("mc.local:25575", "pw"))

	s.False(session.Connected())
	s.Equal(0, dialer.dialCount())

	for i := 0; i < 3; i++ {
		text, err := session.Execute(s.ctx, "/time query gametime")
		s.Require().NoError(err)
		s.Equal("The time is 1200", text)
	}
	s.True(session.Connected())
	s.Equal(1, dialer.dialCount())
	s.Equal([]string{"mc.local:25575"}, dialer.addresses)
}

// 建连或认证失败统一报告为传输错误
func (s *SessionTestSuite) TestDialFailureIsTransport() {
	dialer := &fakeDialer{err: stderrors.New("connection refused")}
	session := NewSession(dialer, StaticEndpoint("mc.local:25575", "pw"))

	_, err := session.Execute(s.ctx, "/list uuids")
	s.True(errors.Is(err, errors.ErrRCONTransport))
	s.False(session.Connected())

	// 每次调用最多一次建连尝试
	_, err = session.Execute(s.ctx, "/list uuids")
	s.Error(err)
	s.Equal(2, dialer.dialCount())
}

// 命令超时返回超时错误，关闭连接，下一次调用重新建连
func (s *SessionTestSuite) TestTimeoutClosesConnection() {
	slow := &fakeConn{delay: 200 * time.Millisecond}
	fresh := &fakeConn{replies: map[string]string{"/list uuids": "There are 0 of a max of 20 players online:"}}
	dialer := &fakeDialer{conns: []*fakeConn{slow, fresh}}
	session := NewSession(dialer, StaticEndpoint("mc.local:25575", "pw"), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := session.Execute(s.ctx, "/list uuids")
	s.True(errors.Is(err, errors.ErrRCONTimeout))
	s.Less(time.Since(start), 150*time.Millisecond)
	s.True(slow.closed.Load())
	s.False(session.Connected())

	text, err := session.Execute(s.ctx, "/list uuids")
	s.Require().NoError(err)
	s.Contains(text, "There are 0")
	s.Equal(2, dialer.dialCount())
}

// 读写失败后丢弃连接
func (s *SessionTestSuite) TestExecuteFailureResets() {
	broken := &fakeConn{fail: stderrors.New("broken pipe")}
	dialer := &fakeDialer{conns: []*fakeConn{broken}}
	session := NewSession(dialer, StaticEndpoint("mc.local:25575", "pw"))

	_, err := session.Execute(s.ctx, "/time query daytime")
	s.True(errors.Is(err, errors.ErrRCONTransport))
	s.True(broken.closed.Load())
	s.False(session.Connected())
}

// 每次建连都重新读取连接设置
func (s *SessionTestSuite) TestEndpointReadOnEachConnect() {
	conn := &fakeConn{}
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	var calls atomic.Int32
	endpoint := func(context.Context) (Endpoint, error) {
		n := calls.Add(1)
		if n == 1 {
			return Endpoint{Address: "old:25575"}, nil
		}
		return Endpoint{Address: "new:25575"}, nil
	}
	session := NewSession(dialer, endpoint)

	_, err := session.Execute(s.ctx, "/list uuids")
	s.Require().NoError(err)
	session.Reset()
	_, err = session.Execute(s.ctx, "/list uuids")
	s.Require().NoError(err)

	s.Equal([]string{"old:25575", "new:25575"}, dialer.addresses)
}

func (s *SessionTestSuite) TestEndpointErrorIsTransport() {
	dialer := &fakeDialer{}
	session := NewSession(dialer, func(context.Context) (Endpoint, error) {
		return Endpoint{}, stderrors.New("settings missing")
	})

	_, err := session.Execute(s.ctx, "/list uuids")
	s.True(errors.Is(err, errors.ErrRCONTransport))
	s.Equal(0, dialer.dialCount())
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func TestCloseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(&fakeDialer{conns: []*fakeConn{conn}}, StaticEndpoint("a:1", ""))
	_, err := session.Execute(context.Background(), "/list uuids")
	require.NoError(t, err)

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close())
	assert.True(t, conn.closed.Load())
	assert.False(t, session.Connected())
}

func TestGorconDialerDeadlineOutlastsCommandTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{time.Millisecond, 2 * time.Second, DefaultTimeout} {
		d := NewGorconDialer(5*time.Second, timeout)
		assert.Equal(t, 5*time.Second, d.DialTimeout)
		assert.Greater(t, d.Deadline, timeout, "读写超时必须晚于命令超时")
	}
}
