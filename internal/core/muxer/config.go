package muxer

import (
	"io"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/g3tzkp/go-g3node/config"
)

// ID 多路复用协议标识
const ID = "/yamux/1.0.0"

// DefaultYamuxConfig 返回默认的 yamux 配置
func DefaultYamuxConfig() *yamux.Config {
	return &yamux.Config{
		AcceptBacklog:          256,
		EnableKeepAlive:        true,
		KeepAliveInterval:      30 * time.Second,
		ConnectionWriteTimeout: 10 * time.Second,
		MaxStreamWindowSize:    256 * 1024, // 256 KB
		StreamOpenTimeout:      75 * time.Second,
		StreamCloseTimeout:     30 * time.Second,
		LogOutput:              io.Discard,
	}
}

// ConfigToYamux 将 config.YamuxConfig 转换为 yamux.Config
func ConfigToYamux(cfg config.YamuxConfig) *yamux.Config {
	yc := DefaultYamuxConfig()
	if cfg.MaxStreamWindowSize > 0 {
		yc.MaxStreamWindowSize = cfg.MaxStreamWindowSize
	}
	if cfg.KeepAliveInterval > 0 {
		yc.KeepAliveInterval = cfg.KeepAliveInterval.Duration()
	}
	return yc
}
