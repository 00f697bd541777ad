package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Recipient 单次发送的目标联系方式
type Recipient struct {
	UserID      uint
	Phone       string
	Email       string
	DeviceAlias string
}

// Content 发送内容
type Content struct {
	AlertID string
	Title   string
	Body    string
	Level   string
	Extras  map[string]string
}

// Sender 通道发送器。外部网关（短信/邮件/推送服务商）视为黑盒，
// 失败由调用方记录，不在此层重试。
type Sender interface {
	Send(ctx context.Context, rcpt Recipient, content Content) error
}

// Gateway 按通道名路由到发送器，并对每次发送施加有界超时
type Gateway struct {
	mu      sync.RWMutex
	senders map[string]Sender
	timeout time.Duration
}

func NewGateway(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{senders: make(map[string]Sender), timeout: timeout}
}

// Register 注册通道发送器
func (g *Gateway) Register(channel string, s Sender) {
	g.mu.Lock()
	g.senders[channel] = s
	g.mu.Unlock()
}

// Send 单次发送，超时计为失败
func (g *Gateway) Send(ctx context.Context, channel string, rcpt Recipient, content Content) error {
	g.mu.RLock()
	s, ok := g.senders[channel]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no sender registered for channel %q", channel)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Send(ctx, rcpt, content) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send on %s timed out: %w", channel, ctx.Err())
	}
}
