package quic

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/transport/quic")

// 确保实现接口
var _ pkgif.Transport = (*Transport)(nil)

// socket 共享的 UDP socket 与 quic.Transport
type socket struct {
	udp *net.UDPConn
	qt  *quic.Transport
}

func (s *socket) close() error {
	err := s.qt.Close()
	s.udp.Close()
	return err
}

// Transport QUIC 传输
type Transport struct {
	mu sync.Mutex

	localPeer types.NodeID
	tls       *tls.ConfigBuilder
	config    *quic.Config
	gater     pkgif.ConnGater

	sockets   []*socket
	dialSock  *socket
	listeners map[*Listener]struct{}
	closed    bool
}

// DefaultConfig 返回默认 QUIC 配置
func DefaultConfig() *quic.Config {
	return ConfigFromUnified(config.DefaultTransportConfig().QUIC)
}

// ConfigFromUnified 从统一配置创建 quic.Config
func ConfigFromUnified(c config.QUICConfig) *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:        c.MaxIdleTimeout.Duration(),
		KeepAlivePeriod:       c.KeepAlivePeriod.Duration(),
		MaxIncomingStreams:    c.MaxIncomingStreams,
		MaxIncomingUniStreams: -1, // 不使用单向流
		HandshakeIdleTimeout:  10 * time.Second,
	}
}

// New 创建 QUIC 传输
func New(localPeer types.NodeID, tb *tls.ConfigBuilder, qc *quic.Config) *Transport {
	if qc == nil {
		qc = DefaultConfig()
	}
	return &Transport{
		localPeer: localPeer,
		tls:       tb,
		config:    qc,
		listeners: make(map[*Listener]struct{}),
	}
}

// SetGater 设置入站过滤器
func (t *Transport) SetGater(g pkgif.ConnGater) {
	t.mu.Lock()
	t.gater = g
	t.mu.Unlock()
}

// Dial 拨号并完成 TLS 握手
//
// 使用第一个监听 socket 拨号，使出站连接与监听端口一致。
func (t *Transport) Dial(ctx context.Context, raddr types.Multiaddr, expected types.NodeID) (pkgif.CapableConn, error) {
	if !t.CanDial(raddr) {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, raddr)
	}
	sock, err := t.dialSocket()
	if err != nil {
		return nil, err
	}

	network, addr, err := raddr.DialArgs()
	if err != nil {
		return nil, err
	}
	udpAddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	qc, err := sock.qt.Dial(ctx, udpAddr, t.tls.ClientConfig(expected), t.config)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c, err := newConn(qc, t.localPeer)
	if err != nil {
		qc.CloseWithError(0, "invalid identity")
		return nil, err
	}
	if !expected.IsEmpty() && c.RemotePeer() != expected {
		c.Close()
		return nil, fmt.Errorf("%w: want %s, got %s", ErrPeerIDMismatch, expected.ShortString(), c.RemotePeer().ShortString())
	}
	c.raddr = raddr.WithoutPeerID()
	return c, nil
}

func (t *Transport) dialSocket() (*socket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, pkgif.ErrTransportClosed
	}
	if t.dialSock != nil {
		return t.dialSock, nil
	}

	// 未监听时使用临时端口
	udp, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("listen udp for dial: %w", err)
	}
	s := &socket{udp: udp, qt: &quic.Transport{Conn: udp}}
	t.sockets = append(t.sockets, s)
	t.dialSock = s
	return s, nil
}

// Listen 监听 QUIC 地址
func (t *Transport) Listen(laddr types.Multiaddr) (pkgif.Listener, error) {
	if laddr.Transport() != types.TransportQUIC {
		return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, laddr)
	}
	network, addr, err := laddr.DialArgs()
	if err != nil {
		return nil, err
	}
	udpAddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, pkgif.ErrTransportClosed
	}

	udp, err := net.ListenUDP(network, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	sock := &socket{udp: udp, qt: &quic.Transport{Conn: udp}}

	ql, err := sock.qt.Listen(t.tls.ServerConfig(), t.config)
	if err != nil {
		sock.close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	// 获取实际监听地址（端口可能是 0）
	actual, err := types.FromNetAddr(udp.LocalAddr(), types.TransportQUIC)
	if err != nil {
		ql.Close()
		sock.close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{ql: ql, laddr: actual, transport: t, ctx: ctx, cancel: cancel}

	t.sockets = append(t.sockets, sock)
	// 首个监听 socket 用于出站拨号（替换临时 socket 仅影响后续拨号）
	if t.dialSock == nil || len(t.listeners) == 0 {
		t.dialSock = sock
	}
	t.listeners[l] = struct{}{}

	logger.Debug("QUIC 监听已启动", "addr", actual)
	return l, nil
}

func (t *Transport) removeListener(l *Listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

// CanDial 检查是否为 QUIC 地址
func (t *Transport) CanDial(addr types.Multiaddr) bool {
	return addr.Transport() == types.TransportQUIC
}

// Protocol 返回传输名称
func (t *Transport) Protocol() string {
	return types.TransportQUIC
}

// Close 关闭传输及全部 socket（会关闭所有连接）
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ls := make([]*Listener, 0, len(t.listeners))
	for l := range t.listeners {
		ls = append(ls, l)
	}
	socks := t.sockets
	t.sockets = nil
	t.dialSock = nil
	t.mu.Unlock()

	for _, l := range ls {
		l.Close()
	}
	var lastErr error
	for _, s := range socks {
		if err := s.close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
