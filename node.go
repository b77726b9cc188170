package g3node

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/connmgr"
	"github.com/g3tzkp/go-g3node/internal/core/eventbus"
	"github.com/g3tzkp/go-g3node/internal/core/host"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/protocol/messaging"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("g3node")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota

	// StateStarting 启动中
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopping 停止中
	StateStopping

	// StateStopped 已停止，不可再启动
	StateStopped
)

// String 返回状态名称
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node g3zkp 消息节点
//
// 身份在 New 中确定，之后不变。Start 组装并启动覆盖网络和消息协议；
// Stop 之后节点不可重启。
type Node struct {
	opts     *options
	config   *config.Config
	identity *identity.Identity

	mu    sync.Mutex
	state NodeState
	app   *fx.App

	// online Stop 开始时即置为 false
	online atomic.Bool

	// 由 Fx 注入
	host      *host.Host
	messaging *messaging.Service
	bus       *eventbus.Bus[types.InboundMessageEvent]
	connmgr   *connmgr.Manager
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
}

// New 创建节点
//
// 身份优先级：WithIdentity > 配置中的密钥文件 > 自动生成。
func New(opts ...Option) (*Node, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if o.config == nil {
		o.config = config.NewConfig()
	}

	id, err := resolveIdentity(o)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	return &Node{
		opts:     o,
		config:   o.config,
		identity: id,
	}, nil
}

// resolveIdentity 按优先级确定节点身份
func resolveIdentity(o *options) (*identity.Identity, error) {
	if o.privateKey != nil {
		return identity.FromPrivateKey(o.privateKey)
	}

	cfg := o.config.Identity
	var passphrase []byte
	if cfg.PassphraseEnv != "" {
		passphrase = []byte(os.Getenv(cfg.PassphraseEnv))
	}
	return identity.LoadOrGenerate(cfg.KeyFile, passphrase, cfg.AutoGenerate)
}

// Identity 返回节点 ID
func (n *Node) Identity() types.NodeID {
	return n.identity.ID()
}

// State 返回当前状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// IsOnline 节点是否在线
func (n *Node) IsOnline() bool {
	return n.online.Load()
}

// Status 返回只读状态快照
//
// 离线时 Addrs 为空。
func (n *Node) Status() types.NodeStatus {
	st := types.NodeStatus{
		ID:     n.identity.ID(),
		Online: n.online.Load(),
		Addrs:  []types.Multiaddr{},
	}
	if !st.Online {
		return st
	}

	h := n.runningHost()
	if h == nil {
		return st
	}
	st.Addrs = h.Addrs()
	st.Peers = len(h.Peers())
	return st
}

// Peers 返回已连接的节点
func (n *Node) Peers() []types.NodeID {
	h := n.runningHost()
	if h == nil {
		return nil
	}
	return h.Peers()
}

// Policy 返回生效的连接策略
func (n *Node) Policy() ConnectionPolicy {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.connmgr != nil {
		return n.connmgr.Policy()
	}
	return n.config.ConnMgr
}

// Gatherer 返回指标收集器，指标关闭或未启动时为 nil
func (n *Node) Gatherer() prometheus.Gatherer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gatherer
}

// runningHost 运行中返回 Host，否则返回 nil
func (n *Node) runningHost() *host.Host {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateRunning {
		return nil
	}
	return n.host
}
