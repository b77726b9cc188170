package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// ============================================================================
//                              InboundMessageEvent - 入站消息事件
// ============================================================================

// InboundMessageEvent 入站消息事件
//
// 由协议处理器在每个成功解码的帧上产生一次，交付给宿主应用后所有权
// 转移，处理器不保留 Payload 的引用。
type InboundMessageEvent struct {
	// ID 事件唯一标识（UUID）
	ID string `json:"id"`

	// From 发送方节点 ID
	From NodeID `json:"from"`

	// Protocol 流协商的协议
	Protocol ProtocolID `json:"protocol"`

	// Payload 消息内容
	Payload []byte `json:"payload"`

	// ReceivedAt 接收时间
	ReceivedAt time.Time `json:"receivedAt"`
}

// Clone 返回持有独立 Payload 副本的事件
func (e InboundMessageEvent) Clone() InboundMessageEvent {
	e.Payload = bytes.Clone(e.Payload)
	return e
}

// Text 以文本形式返回 Payload
func (e InboundMessageEvent) Text() string {
	return string(e.Payload)
}

// ============================================================================
//                              SendResult - 发送结果
// ============================================================================

// SendStatus 发送结果状态
type SendStatus int

const (
	// SendFailed 发送失败（含超时、拨号失败、无效目标）
	SendFailed SendStatus = iota
	// SendDelivered 对端已确认（收到 ACK）
	SendDelivered
	// SendNoAcknowledgment 对端关闭流但未发送 ACK
	SendNoAcknowledgment
)

// String 返回状态名称
func (s SendStatus) String() string {
	switch s {
	case SendDelivered:
		return "delivered"
	case SendNoAcknowledgment:
		return "no_acknowledgment"
	default:
		return "failed"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s SendStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReasonTimeout 超时失败的原因文本
const ReasonTimeout = "timeout"

// SendResult 一次发送调用的结果
//
// 每次调用恰好返回一个结果。Status 为 SendFailed 时 Reason 与 Err 有值。
type SendResult struct {
	Status  SendStatus
	Reason  string
	Err     error
	Latency time.Duration
}

// Delivered 是否已确认送达
func (r SendResult) Delivered() bool {
	return r.Status == SendDelivered
}

// String 返回可读表示
func (r SendResult) String() string {
	if r.Status == SendFailed {
		return "failed: " + r.Reason
	}
	return r.Status.String()
}

// sendResultJSON SendResult 的 JSON 形式
type sendResultJSON struct {
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// MarshalJSON 实现 json.Marshaler
func (r SendResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(sendResultJSON{
		Status:    r.Status.String(),
		Success:   r.Delivered(),
		Reason:    r.Reason,
		LatencyMs: r.Latency.Milliseconds(),
	})
}

// ============================================================================
//                              NodeStatus - 节点状态快照
// ============================================================================

// NodeStatus 节点状态只读快照
type NodeStatus struct {
	ID     NodeID      `json:"id"`
	Online bool        `json:"online"`
	Addrs  []Multiaddr `json:"addrs"`
	Peers  int         `json:"peers"`
}
