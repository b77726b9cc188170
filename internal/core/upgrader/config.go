package upgrader

import (
	"time"

	"github.com/hashicorp/yamux"

	"github.com/g3tzkp/go-g3node/internal/core/muxer"
)

// Config 升级器配置
type Config struct {
	// HandshakeTimeout 入站连接的升级超时（出站由调用方 ctx 控制）
	HandshakeTimeout time.Duration

	// Yamux 多路复用配置，nil 使用默认值
	Yamux *yamux.Config
}

// NewConfig 返回默认配置
func NewConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		Yamux:            muxer.DefaultYamuxConfig(),
	}
}
