package connmgr

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/connmgr")

// Host 连接管理所需的最小主机能力
type Host interface {
	ID() types.NodeID
	Conns() []pkgif.Conn
	Connect(ctx context.Context, info types.AddrInfo) error
}

// 确保实现接口
var _ pkgif.ConnGater = (*Manager)(nil)

// Config 管理器配置
type Config struct {
	Policy      config.ConnectionPolicy
	Gater       config.GaterConfig
	DialTimeout time.Duration
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	return Config{
		Policy:      cfg.ConnMgr,
		Gater:       cfg.Gater,
		DialTimeout: cfg.Transport.DialTimeout.Duration(),
	}
}

// Manager 连接管理器
type Manager struct {
	cfg     Config
	ps      *peerstore.Peerstore
	metrics *metrics.Metrics
	clock   clock.Clock
	limiter *rate.Limiter

	host Host

	// conns 已建立的连接数（由 Notifee 维护）
	conns atomic.Int64

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New 创建连接管理器
func New(cfg Config, ps *peerstore.Peerstore, m *metrics.Metrics, clk clock.Clock) (*Manager, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.Gater.InboundRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Gater.InboundRate), cfg.Gater.InboundBurst)
	}

	return &Manager{
		cfg:     cfg,
		ps:      ps,
		metrics: m,
		clock:   clk,
		limiter: limiter,
	}, nil
}

// SetHost 设置主机，必须在 Start 之前调用
func (m *Manager) SetHost(h Host) {
	m.host = h
}

// Policy 返回生效的连接策略
func (m *Manager) Policy() config.ConnectionPolicy {
	return m.cfg.Policy
}

// ============================================================================
//                              准入
// ============================================================================

// InterceptAccept 安全握手前的入站过滤
func (m *Manager) InterceptAccept(remote types.Multiaddr) bool {
	if !m.admitCount() {
		logger.Debug("入站连接超过上限", "remote", remote, "max", m.cfg.Policy.MaxConnections)
		return false
	}
	if m.limiter != nil && !m.limiter.AllowN(m.clock.Now(), 1) {
		logger.Debug("入站连接速率受限", "remote", remote)
		m.metrics.ConnRefused(refuseRate)
		return false
	}
	return true
}

// InterceptSecured 握手完成后的入站复核
//
// 并发握手可能同时通过 InterceptAccept，这里按最新连接数再判断一次。
func (m *Manager) InterceptSecured(dir types.Direction, peer types.NodeID) bool {
	if dir != types.DirInbound {
		return true
	}
	if !m.admitCount() {
		logger.Debug("握手后拒绝入站连接", "peer", peer.ShortString())
		return false
	}
	return true
}

func (m *Manager) admitCount() bool {
	if int(m.conns.Load()) >= m.cfg.Policy.MaxConnections {
		m.metrics.ConnRefused(refuseMaxConns)
		return false
	}
	return true
}

// Connected 连接建立通知
func (m *Manager) Connected(c pkgif.Conn) {
	n := m.conns.Add(1)
	logger.Debug("连接建立", "peer", c.RemotePeer().ShortString(), "direction", c.Direction(), "total", n)
}

// Disconnected 连接断开通知
func (m *Manager) Disconnected(c pkgif.Conn) {
	n := m.conns.Add(-1)
	logger.Debug("连接断开", "peer", c.RemotePeer().ShortString(), "total", n)
	if m.ps != nil {
		m.ps.UpdateAddrs(c.RemotePeer(), peerstore.ConnectedAddrTTL, peerstore.RecentlyConnectedAddrTTL)
	}
}

// NumConns 当前连接数
func (m *Manager) NumConns() int {
	return int(m.conns.Load())
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动裁剪与自动拨号循环
func (m *Manager) Start(ctx context.Context) error {
	if m.host == nil {
		return ErrNoHost
	}
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop(ctx, m.cfg.Policy.PollInterval.Duration(), m.TrimOpenConns)
	}()

	if m.cfg.Policy.AutoDial {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			// 启动后立即补足一次
			m.AutoDial(ctx)
			m.loop(ctx, m.cfg.Policy.AutoDialInterval.Duration(), m.AutoDial)
		}()
	}

	logger.Debug("连接管理器已启动",
		"min", m.cfg.Policy.MinConnections,
		"max", m.cfg.Policy.MaxConnections,
		"autoDial", m.cfg.Policy.AutoDial)
	return nil
}

func (m *Manager) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := m.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// Close 停止后台循环并等待退出，幂等
func (m *Manager) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	return nil
}
