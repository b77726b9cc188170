package g3node

import (
	"context"
	"fmt"
	"time"

	"github.com/g3tzkp/go-g3node/internal/core/eventbus"
	"github.com/g3tzkp/go-g3node/internal/core/protocol/system/ping"
	"github.com/g3tzkp/go-g3node/internal/protocol/messaging"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Send 向目标发送消息，使用配置的默认超时
//
// target 可以是裸 NodeID，也可以是以 /p2p/<NodeID> 结尾的地址。
// 每次调用恰好返回一个结果；节点未运行时返回 Failed。
func (n *Node) Send(ctx context.Context, target string, payload []byte) SendResult {
	return n.SendWithTimeout(ctx, target, payload, 0)
}

// SendWithTimeout 向目标发送消息
//
// timeout <= 0 时使用配置的默认超时。
func (n *Node) SendWithTimeout(ctx context.Context, target string, payload []byte, timeout time.Duration) SendResult {
	svc := n.runningMessaging()
	if svc == nil {
		return SendResult{Status: SendFailed, Reason: "node not running", Err: ErrNotStarted}
	}
	return svc.SendWithTimeout(ctx, target, payload, timeout)
}

// Ping 测量到目标的往返时间
func (n *Node) Ping(ctx context.Context, target string) (time.Duration, error) {
	h := n.runningHost()
	if h == nil {
		return 0, ErrNotStarted
	}

	info, err := types.ParseTarget(target)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPeerIdentifier, err)
	}

	rtt, err := ping.Ping(ctx, h, info)
	if err != nil {
		return 0, err
	}
	n.metrics.PingRTT(rtt.Seconds())
	return rtt, nil
}

// Subscribe 订阅入站消息
//
// buffer 为每个订阅者的缓冲，<= 0 时使用配置值。缓冲已满时新事件被丢弃；
// 需要逐条处理的场景使用 WithMessageHandler。
func (n *Node) Subscribe(buffer int) (Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != StateRunning {
		return nil, ErrNotStarted
	}
	if buffer <= 0 {
		buffer = n.config.Messaging.EventBuffer
	}
	return n.bus.Subscribe(buffer), nil
}

// runningMessaging 运行中返回消息服务
func (n *Node) runningMessaging() *messaging.Service {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateRunning {
		return nil
	}
	return n.messaging
}

var _ Subscription = (*eventbus.Subscription[types.InboundMessageEvent])(nil)
