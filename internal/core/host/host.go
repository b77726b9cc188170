package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	mss "github.com/multiformats/go-multistream"
	"go.uber.org/multierr"

	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/host")

// Transports 按地址选择传输
type Transports interface {
	ForAddr(addr types.Multiaddr) (pkgif.Transport, error)
}

// Notifee 连接事件接收者
//
// 同一连接的 Connected 一定先于 Disconnected 送达。回调在 Host 的
// goroutine 中同步执行，不应阻塞。
type Notifee interface {
	Connected(pkgif.Conn)
	Disconnected(pkgif.Conn)
}

// Admitter 握手完成后的准入判断
type Admitter interface {
	InterceptSecured(dir types.Direction, peer types.NodeID) bool
}

// Host 覆盖网络服务
type Host struct {
	id         types.NodeID
	cfg        Config
	transports Transports
	ps         *peerstore.Peerstore
	metrics    *metrics.Metrics
	admitter   Admitter

	// 入站协商与处理器注册
	mux *mss.MultistreamMuxer[types.ProtocolID]

	mu        sync.RWMutex
	conns     map[types.NodeID][]*conn
	listeners []pkgif.Listener
	notifees  []Notifee

	// 进行中的拨号，按节点合并
	dialMu sync.Mutex
	dials  map[types.NodeID]*dialCall
	nextID atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

var _ pkgif.Overlay = (*Host)(nil)

// Option Host 构造选项
type Option func(*Host)

// WithConfig 设置配置
func WithConfig(cfg Config) Option {
	return func(h *Host) {
		h.cfg = cfg
	}
}

// WithPeerstore 设置地址簿
func WithPeerstore(ps *peerstore.Peerstore) Option {
	return func(h *Host) {
		h.ps = ps
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithAdmitter 设置入站准入
func WithAdmitter(a Admitter) Option {
	return func(h *Host) {
		h.admitter = a
	}
}

// New 创建 Host
func New(id types.NodeID, transports Transports, opts ...Option) (*Host, error) {
	if id.IsEmpty() {
		return nil, errors.New("host: empty local peer id")
	}
	if transports == nil {
		return nil, errors.New("host: no transports")
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		id:         id,
		cfg:        DefaultConfig(),
		transports: transports,
		mux:        mss.NewMultistreamMuxer[types.ProtocolID](),
		conns:      make(map[types.NodeID][]*conn),
		dials:      make(map[types.NodeID]*dialCall),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.DialTimeout <= 0 {
		h.cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	if h.cfg.NegotiationTimeout <= 0 {
		h.cfg.NegotiationTimeout = DefaultConfig().NegotiationTimeout
	}
	return h, nil
}

// ID 返回本节点 ID
func (h *Host) ID() types.NodeID {
	return h.id
}

// AgentVersion 返回代理标识
func (h *Host) AgentVersion() string {
	return h.cfg.AgentVersion
}

// Peerstore 返回地址簿（可能为 nil）
func (h *Host) Peerstore() *peerstore.Peerstore {
	return h.ps
}

// Notify 注册连接事件接收者
func (h *Host) Notify(n Notifee) {
	h.mu.Lock()
	h.notifees = append(h.notifees, n)
	h.mu.Unlock()
}

// ============================================================================
//                              协议注册
// ============================================================================

// RegisterProtocol 为协议注册流处理器
//
// 重复注册同一协议时替换旧处理器。
func (h *Host) RegisterProtocol(id types.ProtocolID, handler pkgif.StreamHandler) {
	h.mux.AddHandler(id, func(proto types.ProtocolID, rwc io.ReadWriteCloser) error {
		s, ok := rwc.(*stream)
		if !ok {
			return fmt.Errorf("unexpected stream type for protocol %s", proto)
		}
		handler(s)
		return nil
	})
	logger.Debug("注册协议处理器", "protocol", id)
}

// RemoveProtocol 移除协议处理器
func (h *Host) RemoveProtocol(id types.ProtocolID) {
	h.mux.RemoveHandler(id)
	logger.Debug("移除协议处理器", "protocol", id)
}

// Protocols 返回已注册的协议（有序）
func (h *Host) Protocols() []types.ProtocolID {
	protos := h.mux.Protocols()
	slices.Sort(protos)
	return protos
}

// ============================================================================
//                              连接
// ============================================================================

// Conns 返回当前连接
func (h *Host) Conns() []pkgif.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []pkgif.Conn
	for _, cs := range h.conns {
		for _, c := range cs {
			out = append(out, c)
		}
	}
	return out
}

// Peers 返回已连接的节点
func (h *Host) Peers() []types.NodeID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.NodeID, 0, len(h.conns))
	for id := range h.conns {
		out = append(out, id)
	}
	return out
}

// ConnsToPeer 返回到指定节点的连接
func (h *Host) ConnsToPeer(id types.NodeID) []pkgif.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cs := h.conns[id]
	out := make([]pkgif.Conn, 0, len(cs))
	for _, c := range cs {
		out = append(out, c)
	}
	return out
}

// bestConn 返回到节点的一个可用连接
func (h *Host) bestConn(id types.NodeID) *conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.conns[id] {
		if !c.isClosed() {
			return c
		}
	}
	return nil
}

// addConn 接纳已认证的连接并启动入站流循环
//
// 失败时关闭 cc。
func (h *Host) addConn(cc pkgif.CapableConn, dir types.Direction) (*conn, error) {
	peer := cc.RemotePeer()
	if peer == h.id {
		_ = cc.Close()
		return nil, ErrDialToSelf
	}
	if h.admitter != nil && !h.admitter.InterceptSecured(dir, peer) {
		_ = cc.Close()
		return nil, ErrConnRefused
	}

	c := newConn(h, cc, dir)

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		_ = cc.Close()
		return nil, ErrHostClosed
	}
	h.conns[peer] = append(h.conns[peer], c)
	notifees := slices.Clone(h.notifees)
	h.wg.Add(1)
	// 在锁内持有事件锁，保证 Connected 先于 Disconnected
	c.evMu.Lock()
	h.mu.Unlock()

	h.metrics.ConnOpened(cc.Transport(), dir)
	for _, n := range notifees {
		n.Connected(c)
	}
	c.evMu.Unlock()

	logger.Info("连接已建立",
		"peer", peer.ShortString(),
		"direction", dir,
		"transport", cc.Transport(),
		"remote", cc.RemoteMultiaddr())

	go h.handleIncomingStreams(c)
	return c, nil
}

// removeConn 移除连接并通知
func (h *Host) removeConn(c *conn) {
	c.evMu.Lock()
	defer c.evMu.Unlock()

	peer := c.RemotePeer()
	h.mu.Lock()
	cs := slices.DeleteFunc(h.conns[peer], func(x *conn) bool { return x == c })
	if len(cs) == 0 {
		delete(h.conns, peer)
	} else {
		h.conns[peer] = cs
	}
	notifees := slices.Clone(h.notifees)
	h.mu.Unlock()

	h.metrics.ConnClosed(c.cc.Transport())
	for _, n := range notifees {
		n.Disconnected(c)
	}
	logger.Debug("连接已断开", "peer", peer.ShortString(), "direction", c.dir)
}

// ============================================================================
//                              入站流
// ============================================================================

// handleIncomingStreams 连接的入站流循环，连接出错时关闭连接
func (h *Host) handleIncomingStreams(c *conn) {
	defer h.wg.Done()
	defer c.Close()

	for {
		ms, err := c.cc.AcceptStream()
		if err != nil {
			if !c.isClosed() && !h.closed.Load() {
				logger.Debug("接受入站流失败", "peer", c.RemotePeer().ShortString(), "error", err)
			}
			return
		}

		s := newStream(c, ms, types.DirInbound)
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.handleInboundStream(s)
		}()
	}
}

// handleInboundStream 协商协议并分发给处理器
//
// 处理器返回后流总会被关闭。
func (h *Host) handleInboundStream(s *stream) {
	if h.closed.Load() {
		_ = s.Reset()
		return
	}

	_ = s.SetDeadline(time.Now().Add(h.cfg.NegotiationTimeout))
	proto, handler, err := h.mux.Negotiate(s)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logger.Debug("协议协商失败", "peer", s.RemotePeer().ShortString(), "error", err)
		}
		_ = s.Reset()
		return
	}
	_ = s.SetDeadline(time.Time{})

	s.protocol = proto
	h.metrics.StreamOpened(proto, types.DirInbound)

	if handler == nil {
		_ = s.Reset()
		return
	}
	if err := handler(proto, s); err != nil {
		logger.Debug("流处理失败", "peer", s.RemotePeer().ShortString(), "protocol", proto, "error", err)
		_ = s.Reset()
		return
	}
	_ = s.Close()
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭监听器与所有连接，并等待后台 goroutine 退出，幂等
func (h *Host) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	logger.Info("正在关闭 Host")

	h.cancel()

	// 此后不会再发起新的拨号
	h.dialMu.Lock()
	h.dialMu.Unlock()

	h.mu.Lock()
	listeners := h.listeners
	h.listeners = nil
	var conns []*conn
	for _, cs := range h.conns {
		conns = append(conns, cs...)
	}
	h.mu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	for _, c := range conns {
		if cerr := c.Close(); cerr != nil {
			logger.Debug("关闭连接失败", "peer", c.RemotePeer().ShortString(), "error", cerr)
		}
	}

	h.wg.Wait()
	logger.Info("Host 已关闭")
	return err
}

// Closed 是否已关闭
func (h *Host) Closed() bool {
	return h.closed.Load()
}
