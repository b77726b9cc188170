package interfaces

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// 传输层错误
var (
	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("transport: listener closed")

	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport: closed")

	// ErrUnsupportedAddr 传输不支持该地址
	ErrUnsupportedAddr = errors.New("transport: unsupported address")
)

// MuxedStream 多路复用流
//
// 传输层的原始流，尚未绑定协议。
type MuxedStream interface {
	io.Reader
	io.Writer

	Close() error
	CloseWrite() error
	CloseRead() error
	Reset() error

	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// CapableConn 已认证、可多路复用的连接
//
// TCP 与 WebSocket 经 Noise + yamux 升级得到；QUIC 自带 TLS 1.3 与原生流。
type CapableConn interface {
	// OpenStream 打开出站流，受 ctx 约束
	OpenStream(ctx context.Context) (MuxedStream, error)

	// AcceptStream 接受入站流，连接关闭时返回错误
	AcceptStream() (MuxedStream, error)

	LocalPeer() types.NodeID
	RemotePeer() types.NodeID
	LocalMultiaddr() types.Multiaddr
	RemoteMultiaddr() types.Multiaddr

	// Transport 传输名称（tcp / ws / quic-v1）
	Transport() string

	// NumStreams 当前活跃流数量
	NumStreams() int

	// Close 关闭连接及其所有流，幂等
	Close() error
	IsClosed() bool
}

// Listener 传输监听器
//
// Accept 返回已完成安全握手的连接。
type Listener interface {
	Accept() (CapableConn, error)
	Close() error
	Multiaddr() types.Multiaddr
}

// Transport 传输协议
type Transport interface {
	// Dial 拨号并完成安全握手，对端身份必须为 expected
	Dial(ctx context.Context, raddr types.Multiaddr, expected types.NodeID) (CapableConn, error)

	// Listen 监听地址，返回的监听器地址为实际绑定地址
	Listen(laddr types.Multiaddr) (Listener, error)

	// CanDial 是否支持该地址
	CanDial(addr types.Multiaddr) bool

	// Protocol 传输名称
	Protocol() string

	Close() error
}

// ConnGater 入站连接过滤
type ConnGater interface {
	// InterceptAccept 在安全握手之前调用，返回 false 时直接关闭原始连接
	InterceptAccept(remote types.Multiaddr) bool
}
