package rcon

import (
	"context"
	"time"

	gorcon "github.com/gorcon/rcon"
)

// Conn 一个已认证的远程控制台连接
type Conn interface {
	Execute(command string) (string, error)
	Close() error
}

// Dialer 建立连接并完成认证
type Dialer interface {
	Dial(ctx context.Context, address, password string) (Conn, error)
}

// Endpoint 连接目标
type Endpoint struct {
	Address  string
	Password string
}

// EndpointFunc 每次建连时读取目标地址，设置变更后下次重连即生效
type EndpointFunc func(ctx context.Context) (Endpoint, error)

// StaticEndpoint 固定目标
func StaticEndpoint(address, password string) EndpointFunc {
	return func(context.Context) (Endpoint, error) {
		return Endpoint{Address: address, Password: password}, nil
	}
}

// deadlineSlack 网络读写超时比命令超时多出的余量，保证命令超时先触发
const deadlineSlack = time.Second

// GorconDialer 基于 gorcon 的拨号器
type GorconDialer struct {
	DialTimeout time.Duration
	// Deadline 单次读写的网络超时，应大于命令超时
	Deadline time.Duration
}

// NewGorconDialer 按命令超时推算读写超时
func NewGorconDialer(dialTimeout, commandTimeout time.Duration) GorconDialer {
	return GorconDialer{DialTimeout: dialTimeout, Deadline: commandTimeout + deadlineSlack}
}

// Dial 建立TCP连接并认证
func (d GorconDialer) Dial(ctx context.Context, address, password string) (Conn, error) {
	timeout := d.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	var opts []gorcon.Option
	if timeout > 0 {
		opts = append(opts, gorcon.SetDialTimeout(timeout))
	}
	if d.Deadline > 0 {
		opts = append(opts, gorcon.SetDeadline(d.Deadline))
	}
	conn, err := gorcon.Dial(address, password, opts...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
