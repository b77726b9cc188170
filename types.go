package g3node

import (
	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              公共类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// NodeID 节点标识
	NodeID = types.NodeID

	// Multiaddr 多格式地址
	Multiaddr = types.Multiaddr

	// InboundMessageEvent 入站消息事件
	InboundMessageEvent = types.InboundMessageEvent

	// SendResult 发送结果
	SendResult = types.SendResult

	// SendStatus 发送结果状态
	SendStatus = types.SendStatus

	// NodeStatus 节点状态快照
	NodeStatus = types.NodeStatus

	// ConnectionPolicy 连接策略
	ConnectionPolicy = config.ConnectionPolicy
)

// 发送结果状态
const (
	SendFailed           = types.SendFailed
	SendDelivered        = types.SendDelivered
	SendNoAcknowledgment = types.SendNoAcknowledgment
)

// DefaultConnectionPolicy 默认连接策略：最少 1、最多 25 个连接，每 10 秒自动拨号
func DefaultConnectionPolicy() ConnectionPolicy {
	return config.DefaultConnectionPolicy()
}

// Subscription 入站消息订阅
type Subscription interface {
	// Out 事件通道，节点停止或订阅关闭后关闭
	Out() <-chan InboundMessageEvent

	// Close 取消订阅
	Close() error
}
