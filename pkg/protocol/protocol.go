// Package protocol 定义 g3node 协议标识符
//
// 本包是所有协议 ID 的单一真相源，各模块应从此处引用协议常量。
//
//   - 应用协议: /g3zkp/<version>
//   - 系统协议: /g3zkp/sys/<protocol>/<version>
package protocol

import (
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ID 协议标识符
type ID = types.ProtocolID

// Messaging 点对点消息协议
//
// 入站流由消息协议处理器处理，每帧回复 AckSentinel。
const Messaging ID = "/g3zkp/1.0.0"

// 系统协议
const (
	// Identify 身份识别协议，交换监听地址和支持的协议
	Identify ID = "/g3zkp/sys/identify/1.0.0"

	// Ping 用于检测连通性和测量延迟
	Ping ID = "/g3zkp/sys/ping/1.0.0"
)

// AckSentinel 确认标记
//
// 消息处理器的唯一成功信号。发送方只把与之完全相同的帧视为送达。
const AckSentinel = "ACK"

// AckFrame 返回确认帧内容，每次调用得到新的切片
func AckFrame() []byte {
	return []byte(AckSentinel)
}

// IsAck 判断帧是否为确认标记
func IsAck(frame []byte) bool {
	return string(frame) == AckSentinel
}

// IsSystem 是否为系统协议
func IsSystem(id ID) bool {
	return id == Identify || id == Ping
}
