package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// StreamHandler 流处理函数类型
//
// 每个入站流在独立 goroutine 中调用一次，处理函数返回前必须关闭流。
type StreamHandler func(Stream)

// Stream 定义双向流接口
type Stream interface {
	io.Reader
	io.Writer

	// Close 关闭流的读写两端
	//
	// 幂等：重复调用或对端已关闭时返回 nil。
	Close() error

	// CloseWrite 半关闭写端，对端读到 EOF
	CloseWrite() error

	// CloseRead 关闭读端
	CloseRead() error

	// Reset 异常终止流，未完成的读写立即返回错误
	Reset() error

	// SetDeadline 设置读写截止时间
	SetDeadline(t time.Time) error

	// SetReadDeadline 设置读截止时间
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline 设置写截止时间
	SetWriteDeadline(t time.Time) error

	// ID 流唯一标识（用于日志）
	ID() string

	// Protocol 返回协商的协议
	Protocol() types.ProtocolID

	// RemotePeer 返回对端节点 ID
	RemotePeer() types.NodeID
}

// Conn 连接的只读视图
type Conn interface {
	// ID 连接唯一标识
	ID() string

	// RemotePeer 对端节点 ID
	RemotePeer() types.NodeID

	// RemoteMultiaddr 对端地址
	RemoteMultiaddr() types.Multiaddr

	// Direction 连接方向
	Direction() types.Direction

	// Opened 连接建立时间
	Opened() time.Time

	// NumStreams 当前活跃流数
	NumStreams() int

	// Close 关闭连接及其所有流
	Close() error
}

// Overlay 覆盖网络服务能力集
//
// 提供身份、安全传输、多路复用流和协议注册。
type Overlay interface {
	// ID 返回本节点 ID
	ID() types.NodeID

	// Listen 监听指定地址
	//
	// 至少一个地址绑定成功即返回 nil；全部失败时返回汇总错误。
	Listen(addrs ...types.Multiaddr) error

	// RegisterProtocol 为协议注册流处理器
	RegisterProtocol(id types.ProtocolID, handler StreamHandler)

	// RemoveProtocol 移除协议处理器
	RemoveProtocol(id types.ProtocolID)

	// Protocols 返回已注册的协议
	Protocols() []types.ProtocolID

	// Dial 打开到目标节点的出站流
	//
	// 建连、开流和协议协商全部受 ctx 约束；失败或取消时不留下半开的流。
	Dial(ctx context.Context, target types.AddrInfo, protocols ...types.ProtocolID) (Stream, error)

	// Addrs 返回可达地址，带 /p2p/<self> 后缀
	Addrs() []types.Multiaddr

	// Conns 返回当前连接
	Conns() []Conn

	// Close 关闭服务，幂等
	Close() error
}
