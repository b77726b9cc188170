package config

import (
	"errors"
	"time"
)

// TransportConfig 传输层配置
//
//   - QUIC: 自带 TLS 1.3 与原生多路复用
//   - TCP: Noise + yamux 升级
//   - WebSocket: Noise + yamux 升级
type TransportConfig struct {
	EnableQUIC      bool `json:"enable_quic" yaml:"enable_quic"`
	EnableTCP       bool `json:"enable_tcp" yaml:"enable_tcp"`
	EnableWebSocket bool `json:"enable_websocket" yaml:"enable_websocket"`

	// DialTimeout 单个地址的拨号超时（含安全握手）
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// HandshakeTimeout 入站连接安全握手超时
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`

	// Yamux 多路复用配置
	Yamux YamuxConfig `json:"yamux" yaml:"yamux"`

	// QUIC QUIC 配置
	QUIC QUICConfig `json:"quic" yaml:"quic"`
}

// YamuxConfig yamux 多路复用配置
type YamuxConfig struct {
	// MaxStreamWindowSize 单流最大接收窗口
	MaxStreamWindowSize uint32 `json:"max_stream_window_size" yaml:"max_stream_window_size"`

	// KeepAliveInterval 心跳间隔
	KeepAliveInterval Duration `json:"keep_alive_interval" yaml:"keep_alive_interval"`
}

// QUICConfig QUIC 传输配置
type QUICConfig struct {
	// MaxIdleTimeout 最大空闲超时
	MaxIdleTimeout Duration `json:"max_idle_timeout" yaml:"max_idle_timeout"`

	// KeepAlivePeriod KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period" yaml:"keep_alive_period"`

	// MaxIncomingStreams 最大并发入站流
	MaxIncomingStreams int64 `json:"max_incoming_streams" yaml:"max_incoming_streams"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableQUIC:       true,
		EnableTCP:        true,
		EnableWebSocket:  true,
		DialTimeout:      Duration(10 * time.Second),
		HandshakeTimeout: Duration(10 * time.Second),
		Yamux: YamuxConfig{
			MaxStreamWindowSize: 256 * 1024,
			KeepAliveInterval:   Duration(30 * time.Second),
		},
		QUIC: QUICConfig{
			MaxIdleTimeout:     Duration(30 * time.Second),
			KeepAlivePeriod:    Duration(15 * time.Second),
			MaxIncomingStreams: 256,
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if !c.EnableQUIC && !c.EnableTCP && !c.EnableWebSocket {
		return errors.New("transport: at least one transport must be enabled")
	}
	if c.DialTimeout <= 0 || c.HandshakeTimeout <= 0 {
		return errors.New("transport: dial_timeout and handshake_timeout must be positive")
	}
	if c.Yamux.MaxStreamWindowSize < 256*1024 {
		return errors.New("transport: yamux max_stream_window_size must be at least 256KiB")
	}
	if c.Yamux.KeepAliveInterval <= 0 {
		return errors.New("transport: yamux keep_alive_interval must be positive")
	}
	if c.QUIC.MaxIdleTimeout <= 0 || c.QUIC.MaxIncomingStreams <= 0 {
		return errors.New("transport: quic max_idle_timeout and max_incoming_streams must be positive")
	}
	return nil
}

// GaterConfig 入站连接限速
//
// 令牌桶：每秒 InboundRate 个新入站连接，突发 InboundBurst。
type GaterConfig struct {
	InboundRate  float64 `json:"inbound_rate" yaml:"inbound_rate"`
	InboundBurst int     `json:"inbound_burst" yaml:"inbound_burst"`
}

// DefaultGaterConfig 返回默认限速配置
func DefaultGaterConfig() GaterConfig {
	return GaterConfig{
		InboundRate:  20,
		InboundBurst: 40,
	}
}

// Validate 验证限速配置
func (c GaterConfig) Validate() error {
	if c.InboundRate <= 0 || c.InboundBurst <= 0 {
		return errors.New("gater: inbound_rate and inbound_burst must be positive")
	}
	return nil
}
