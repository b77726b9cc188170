package messaging

import (
	"errors"
	"fmt"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

var (
	// ErrInvalidPeerIdentifier 目标节点标识无效
	ErrInvalidPeerIdentifier = errors.New("messaging: invalid peer identifier")

	// ErrTimeout 发送超时
	ErrTimeout = errors.New("messaging: timeout")

	// ErrDial 打开出站流失败
	ErrDial = errors.New("messaging: dial failed")

	// ErrServiceClosed 服务已关闭
	ErrServiceClosed = errors.New("messaging: service closed")

	// ErrMessageTooLarge 消息超过最大帧长度
	ErrMessageTooLarge = errors.New("messaging: message too large")

	// ErrInvalidText 消息不是合法的 UTF-8 文本
	ErrInvalidText = errors.New("messaging: message is not valid UTF-8 text")

	// ErrMalformedFrame 帧长度前缀损坏或帧被截断
	ErrMalformedFrame = errors.New("messaging: malformed frame")
)

// SendResult 失败原因
const (
	ReasonTimeout        = types.ReasonTimeout
	ReasonInvalidPeer    = "invalid peer identifier"
	ReasonInvalidMessage = "invalid message"
	ReasonDial           = "dial failed"
	ReasonCanceled       = "canceled"
	ReasonClosed         = "service closed"
	ReasonStream         = "stream error"
	ReasonProtocol       = "protocol error"
)

// ProtocolDecodeError 入站帧无法解码
//
// 只关闭出错的流，其他流不受影响。
type ProtocolDecodeError struct {
	// Peer 发送方
	Peer types.NodeID

	// Stream 流标识
	Stream string

	// Err 底层原因（ErrMalformedFrame、ErrMessageTooLarge 或 ErrInvalidText）
	Err error
}

// Error 实现 error
func (e *ProtocolDecodeError) Error() string {
	return fmt.Sprintf("messaging: decode frame from %s (stream %s): %v", e.Peer.ShortString(), e.Stream, e.Err)
}

// Unwrap 返回底层原因
func (e *ProtocolDecodeError) Unwrap() error {
	return e.Err
}

// isDecodeErr 判断读帧错误是否属于协议解码错误
func isDecodeErr(err error) bool {
	return errors.Is(err, ErrMalformedFrame) ||
		errors.Is(err, ErrMessageTooLarge) ||
		errors.Is(err, ErrInvalidText)
}
