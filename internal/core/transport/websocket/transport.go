package websocket

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	ws "github.com/gorilla/websocket"

	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/transport/websocket")

// 确保实现接口
var _ pkgif.Transport = (*Transport)(nil)

// Transport WebSocket 传输
type Transport struct {
	upgrader *upgrader.Upgrader
	dialer   *ws.Dialer

	mu        sync.Mutex
	listeners []pkgif.Listener

	closed atomic.Bool
}

// New 创建 WebSocket 传输
func New(u *upgrader.Upgrader) *Transport {
	return &Transport{
		upgrader: u,
		dialer: &ws.Dialer{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Dial 建立 WebSocket 连接并完成升级
func (t *Transport) Dial(ctx context.Context, raddr types.Multiaddr, expected types.NodeID) (pkgif.CapableConn, error) {
	if t.closed.Load() {
		return nil, pkgif.ErrTransportClosed
	}
	if !t.CanDial(raddr) {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, raddr)
	}

	_, hostport, err := raddr.DialArgs()
	if err != nil {
		return nil, err
	}

	c, resp, err := t.dialer.DialContext(ctx, "ws://"+hostport+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("websocket 连接失败: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	conn := NewConn(c)
	laddr, _ := types.FromNetAddr(conn.LocalAddr(), types.TransportWebSocket)
	return t.upgrader.Upgrade(ctx, conn, types.DirOutbound, expected, types.TransportWebSocket, laddr, raddr.WithoutPeerID())
}

// Listen 监听 WebSocket 地址
func (t *Transport) Listen(laddr types.Multiaddr) (pkgif.Listener, error) {
	if t.closed.Load() {
		return nil, pkgif.ErrTransportClosed
	}
	if laddr.Transport() != types.TransportWebSocket {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, laddr)
	}

	network, addr, err := laddr.DialArgs()
	if err != nil {
		return nil, err
	}
	raw, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}
	actual, err := types.FromNetAddr(raw.Addr(), types.TransportWebSocket)
	if err != nil {
		raw.Close()
		return nil, err
	}

	l := t.upgrader.Listen(newListener(raw), types.TransportWebSocket, actual)
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()

	logger.Debug("WebSocket 监听已启动", "addr", actual)
	return l, nil
}

// CanDial 检查是否可以拨号到指定地址
func (t *Transport) CanDial(addr types.Multiaddr) bool {
	return !t.closed.Load() && addr.Transport() == types.TransportWebSocket
}

// Protocol 返回传输名称
func (t *Transport) Protocol() string {
	return types.TransportWebSocket
}

// Close 关闭传输及全部监听器
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.mu.Lock()
	ls := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	var lastErr error
	for _, l := range ls {
		if err := l.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
