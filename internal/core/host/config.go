package host

import (
	"time"

	"github.com/g3tzkp/go-g3node/config"
)

// AgentVersion 默认代理标识，通过 identify 协议告知对端
const AgentVersion = "g3node/0.1.0"

// Config Host 配置
type Config struct {
	// AgentVersion 代理标识
	AgentVersion string

	// DialTimeout 单次建连超时（所有地址共享）
	DialTimeout time.Duration

	// NegotiationTimeout 流协议协商超时（默认 10s）
	NegotiationTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		AgentVersion:       AgentVersion,
		DialTimeout:        10 * time.Second,
		NegotiationTimeout: 10 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if d := cfg.Transport.DialTimeout.Duration(); d > 0 {
		c.DialTimeout = d
	}
	if d := cfg.Transport.HandshakeTimeout.Duration(); d > 0 {
		c.NegotiationTimeout = d
	}
	return c
}
