// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 或 YAML 加载和保存配置
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.ConnMgr.MaxConnections = 50
//
//	// 从文件加载（按扩展名选择 JSON / YAML）
//	cfg, err := config.Load("g3node.yaml")
package config

import (
	"errors"
	"fmt"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// KnownPeer 已知节点配置
//
// 启动时写入地址簿，连接数低于 MinConnections 时自动拨号。
type KnownPeer struct {
	// PeerID 目标节点 ID（Base58）
	PeerID string `json:"peer_id" yaml:"peer_id"`

	// Addrs 目标节点地址列表（multiaddr 格式）
	Addrs []string `json:"addrs" yaml:"addrs"`
}

// AddrInfo 转换为 types.AddrInfo
func (p KnownPeer) AddrInfo() (types.AddrInfo, error) {
	id, err := types.ParseNodeID(p.PeerID)
	if err != nil {
		return types.AddrInfo{}, fmt.Errorf("known peer %q: %w", p.PeerID, err)
	}
	addrs, err := types.ParseMultiaddrs(p.Addrs)
	if err != nil {
		return types.AddrInfo{}, fmt.Errorf("known peer %s: %w", id.ShortString(), err)
	}
	return types.AddrInfo{ID: id, Addrs: addrs}, nil
}

// Config 是 g3node 的完整配置结构
//
//   - Listen: 监听地址
//   - Identity: 身份和密钥管理
//   - Transport: 传输协议（TCP/WebSocket/QUIC）与多路复用
//   - ConnMgr: 连接策略
//   - Gater: 入站连接限速
//   - Messaging: 消息协议
//   - Control: 宿主应用命令接口
//   - Metrics: Prometheus 指标
//   - Log: 日志
type Config struct {
	// Listen 监听地址列表（multiaddr 格式）
	Listen []string `json:"listen" yaml:"listen"`

	// Identity 身份配置
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// ConnMgr 连接策略
	ConnMgr ConnectionPolicy `json:"conn_mgr" yaml:"conn_mgr"`

	// Gater 入站连接限速
	Gater GaterConfig `json:"gater" yaml:"gater"`

	// Messaging 消息协议配置
	Messaging MessagingConfig `json:"messaging" yaml:"messaging"`

	// Control 命令接口配置
	Control ControlConfig `json:"control" yaml:"control"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// KnownPeers 已知节点列表
	KnownPeers []KnownPeer `json:"known_peers,omitempty" yaml:"known_peers,omitempty"`
}

// DefaultListenAddrs 默认监听地址
func DefaultListenAddrs() []string {
	return []string{
		"/ip4/0.0.0.0/tcp/9090",
		"/ip4/0.0.0.0/tcp/9091/ws",
		"/ip4/0.0.0.0/udp/9090/quic-v1",
	}
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Listen:    DefaultListenAddrs(),
		Identity:  DefaultIdentityConfig(),
		Transport: DefaultTransportConfig(),
		ConnMgr:   DefaultConnectionPolicy(),
		Gater:     DefaultGaterConfig(),
		Messaging: DefaultMessagingConfig(),
		Control:   DefaultControlConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回第一个错误。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.ListenAddrs(); err != nil {
		return err
	}
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.ConnMgr.Validate(); err != nil {
		return err
	}
	if err := c.Gater.Validate(); err != nil {
		return err
	}
	if err := c.Messaging.Validate(); err != nil {
		return err
	}
	if err := c.Control.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	for _, p := range c.KnownPeers {
		if _, err := p.AddrInfo(); err != nil {
			return err
		}
	}
	return nil
}

// ListenAddrs 解析监听地址
func (c *Config) ListenAddrs() ([]types.Multiaddr, error) {
	addrs, err := types.ParseMultiaddrs(c.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return addrs, nil
}

// KnownPeerInfos 解析已知节点，跳过无效项
func (c *Config) KnownPeerInfos() []types.AddrInfo {
	out := make([]types.AddrInfo, 0, len(c.KnownPeers))
	for _, p := range c.KnownPeers {
		if info, err := p.AddrInfo(); err == nil {
			out = append(out, info)
		}
	}
	return out
}
