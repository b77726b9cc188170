package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

// 确保实现接口
var _ pkgif.Transport = (*Transport)(nil)

// keepAlivePeriod TCP KeepAlive 周期
const keepAlivePeriod = 30 * time.Second

// Transport TCP 传输层实现
type Transport struct {
	upgrader *upgrader.Upgrader

	mu        sync.Mutex
	listeners map[pkgif.Listener]struct{}

	closed atomic.Bool
}

// New 创建 TCP 传输
func New(u *upgrader.Upgrader) *Transport {
	return &Transport{
		upgrader:  u,
		listeners: make(map[pkgif.Listener]struct{}),
	}
}

// Dial 建立出站连接并完成升级
func (t *Transport) Dial(ctx context.Context, raddr types.Multiaddr, expected types.NodeID) (pkgif.CapableConn, error) {
	if t.closed.Load() {
		return nil, pkgif.ErrTransportClosed
	}
	if !t.CanDial(raddr) {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, raddr)
	}

	network, addr, err := raddr.DialArgs()
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{KeepAlive: keepAlivePeriod}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("连接失败: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	laddr, _ := types.FromNetAddr(conn.LocalAddr(), types.TransportTCP)
	return t.upgrader.Upgrade(ctx, conn, types.DirOutbound, expected, types.TransportTCP, laddr, raddr.WithoutPeerID())
}

// Listen 监听入站连接
func (t *Transport) Listen(laddr types.Multiaddr) (pkgif.Listener, error) {
	if t.closed.Load() {
		return nil, pkgif.ErrTransportClosed
	}
	if laddr.Transport() != types.TransportTCP {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, laddr)
	}

	network, addr, err := laddr.DialArgs()
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{KeepAlive: keepAlivePeriod}
	raw, err := lc.Listen(context.Background(), network, addr)
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}

	// 获取实际监听地址（端口可能是 0）
	actual, err := types.FromNetAddr(raw.Addr(), types.TransportTCP)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("获取监听地址失败: %w", err)
	}

	l := &trackedListener{Listener: t.upgrader.Listen(raw, types.TransportTCP, actual), owner: t}
	t.mu.Lock()
	t.listeners[l] = struct{}{}
	t.mu.Unlock()

	logger.Debug("TCP 监听已启动", "addr", actual)
	return l, nil
}

// CanDial 检查是否可以拨号到指定地址
func (t *Transport) CanDial(addr types.Multiaddr) bool {
	return !t.closed.Load() && addr.Transport() == types.TransportTCP
}

// Protocol 返回传输名称
func (t *Transport) Protocol() string {
	return types.TransportTCP
}

// Close 关闭传输层及其全部监听器
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	ls := make([]pkgif.Listener, 0, len(t.listeners))
	for l := range t.listeners {
		ls = append(ls, l)
	}
	t.listeners = make(map[pkgif.Listener]struct{})
	t.mu.Unlock()

	var lastErr error
	for _, l := range ls {
		if err := l.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (t *Transport) untrack(l pkgif.Listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

// trackedListener 关闭时从传输中移除
type trackedListener struct {
	pkgif.Listener
	owner *Transport
}

func (l *trackedListener) Close() error {
	l.owner.untrack(l)
	return l.Listener.Close()
}
