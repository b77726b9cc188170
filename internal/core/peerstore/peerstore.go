package peerstore

import (
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/peerstore")

// Config Peerstore 配置
type Config struct {
	// Capacity 最多记录的节点数
	Capacity int
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return Config{Capacity: 1024}
}

// expiringAddr 带过期时间的地址，零值 expires 表示永不过期
type expiringAddr struct {
	addr    types.Multiaddr
	expires time.Time
}

// peerInfo 单个节点的记录
type peerInfo struct {
	addrs        []expiringAddr
	protocols    []types.ProtocolID
	agentVersion string
}

// Peerstore 节点信息存储
type Peerstore struct {
	mu    sync.Mutex
	peers *lru.Cache[types.NodeID, *peerInfo]
	clock clock.Clock
}

// New 创建 Peerstore
func New(cfg Config) *Peerstore {
	return NewWithClock(cfg, clock.New())
}

// NewWithClock 使用指定时钟创建 Peerstore
func NewWithClock(cfg Config, clk clock.Clock) *Peerstore {
	if cfg.Capacity <= 0 {
		cfg.Capacity = NewConfig().Capacity
	}
	// 容量为正时不会返回错误
	cache, _ := lru.NewWithEvict[types.NodeID, *peerInfo](cfg.Capacity, func(id types.NodeID, _ *peerInfo) {
		logger.Debug("节点记录被淘汰", "peer", id.ShortString())
	})
	return &Peerstore{peers: cache, clock: clk}
}

func (ps *Peerstore) getOrCreate(id types.NodeID) *peerInfo {
	pi, ok := ps.peers.Get(id)
	if !ok {
		pi = &peerInfo{}
		ps.peers.Add(id, pi)
	}
	return pi
}

// expiry 计算过期时间，PermanentAddrTTL 不过期
func (ps *Peerstore) expiry(ttl time.Duration) time.Time {
	if ttl >= PermanentAddrTTL {
		return time.Time{}
	}
	return ps.clock.Now().Add(ttl)
}

// AddAddrs 添加节点地址
//
// 已存在的地址只延长过期时间，不缩短。/p2p 后缀被剥离。
func (ps *Peerstore) AddAddrs(id types.NodeID, addrs []types.Multiaddr, ttl time.Duration) {
	if id.IsEmpty() || len(addrs) == 0 || ttl <= 0 {
		return
	}
	exp := ps.expiry(ttl)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	pi := ps.getOrCreate(id)
	for _, a := range addrs {
		if a.IsEmpty() {
			continue
		}
		a = a.WithoutPeerID()
		idx := slices.IndexFunc(pi.addrs, func(e expiringAddr) bool { return e.addr == a })
		if idx < 0 {
			pi.addrs = append(pi.addrs, expiringAddr{addr: a, expires: exp})
			continue
		}
		if cur := pi.addrs[idx].expires; !cur.IsZero() && (exp.IsZero() || exp.After(cur)) {
			pi.addrs[idx].expires = exp
		}
	}
}

// UpdateAddrs 将剩余寿命不超过 oldTTL 的地址改为 newTTL
//
// 用于连接断开后把 ConnectedAddrTTL 降为 RecentlyConnectedAddrTTL。
// 永久地址不受影响。
func (ps *Peerstore) UpdateAddrs(id types.NodeID, oldTTL, newTTL time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	pi, ok := ps.peers.Peek(id)
	if !ok {
		return
	}
	now := ps.clock.Now()
	limit := now.Add(oldTTL)
	for i, e := range pi.addrs {
		if e.expires.IsZero() || e.expires.After(limit) {
			continue
		}
		pi.addrs[i].expires = now.Add(newTTL)
	}
}

// Addrs 返回节点未过期的地址，按添加顺序
func (ps *Peerstore) Addrs(id types.NodeID) []types.Multiaddr {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	pi, ok := ps.peers.Get(id)
	if !ok {
		return nil
	}
	now := ps.clock.Now()
	pi.addrs = slices.DeleteFunc(pi.addrs, func(e expiringAddr) bool {
		return !e.expires.IsZero() && !now.Before(e.expires)
	})

	out := make([]types.Multiaddr, len(pi.addrs))
	for i, e := range pi.addrs {
		out[i] = e.addr
	}
	return out
}

// ClearAddrs 清除节点全部地址
func (ps *Peerstore) ClearAddrs(id types.NodeID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if pi, ok := ps.peers.Peek(id); ok {
		pi.addrs = nil
	}
}

// PeersWithAddrs 返回拥有未过期地址的节点
func (ps *Peerstore) PeersWithAddrs() []types.NodeID {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := ps.clock.Now()
	var out []types.NodeID
	for _, id := range ps.peers.Keys() {
		pi, ok := ps.peers.Peek(id)
		if !ok {
			continue
		}
		if slices.ContainsFunc(pi.addrs, func(e expiringAddr) bool {
			return e.expires.IsZero() || now.Before(e.expires)
		}) {
			out = append(out, id)
		}
	}
	return out
}

// SetProtocols 设置节点支持的协议（覆盖）
func (ps *Peerstore) SetProtocols(id types.NodeID, protos ...types.ProtocolID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.getOrCreate(id).protocols = slices.Clone(protos)
}

// Protocols 返回节点支持的协议
func (ps *Peerstore) Protocols(id types.NodeID) ([]types.ProtocolID, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	pi, ok := ps.peers.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(pi.protocols), nil
}

// SupportsProtocol 节点是否声明支持该协议
func (ps *Peerstore) SupportsProtocol(id types.NodeID, proto types.ProtocolID) bool {
	protos, err := ps.Protocols(id)
	return err == nil && slices.Contains(protos, proto)
}

// SetAgentVersion 记录节点代理版本
func (ps *Peerstore) SetAgentVersion(id types.NodeID, v string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.getOrCreate(id).agentVersion = v
}

// AgentVersion 返回节点代理版本
func (ps *Peerstore) AgentVersion(id types.NodeID) (string, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	pi, ok := ps.peers.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	return pi.agentVersion, nil
}

// PeerInfo 返回节点的 AddrInfo
func (ps *Peerstore) PeerInfo(id types.NodeID) types.AddrInfo {
	return types.AddrInfo{ID: id, Addrs: ps.Addrs(id)}
}

// RemovePeer 删除节点全部记录
func (ps *Peerstore) RemovePeer(id types.NodeID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.peers.Remove(id)
}

// Len 返回记录的节点数
func (ps *Peerstore) Len() int {
	return ps.peers.Len()
}
