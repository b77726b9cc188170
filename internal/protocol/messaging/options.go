package messaging

import (
	"time"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Config 消息服务配置
type Config struct {
	// SendTimeout 未指定超时时的发送超时
	SendTimeout time.Duration

	// IdleTimeout 入站流两帧之间的最长等待
	IdleTimeout time.Duration

	// MaxMessageSize 单帧最大字节数
	MaxMessageSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		SendTimeout:    10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxMessageSize: MaxMessageSize,
	}
}

// ConfigFromUnified 从统一配置创建
func ConfigFromUnified(cfg config.MessagingConfig) Config {
	c := DefaultConfig()
	if cfg.SendTimeout > 0 {
		c.SendTimeout = cfg.SendTimeout.Duration()
	}
	if cfg.IdleTimeout > 0 {
		c.IdleTimeout = cfg.IdleTimeout.Duration()
	}
	if cfg.MaxMessageSize > 0 {
		c.MaxMessageSize = cfg.MaxMessageSize
	}
	return c
}

// EventSink 接收入站消息事件
//
// 在回写 ACK 之前同步调用；返回后事件的所有权归接收方。
type EventSink func(types.InboundMessageEvent)

// ErrorSink 接收单个流上的错误，例如 *ProtocolDecodeError
type ErrorSink func(error)

// Option 服务选项
type Option func(*Service)

// WithConfig 设置配置
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithEventSink 设置入站消息回调
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.deliver = sink
	}
}

// WithErrorSink 设置错误回调
func WithErrorSink(sink ErrorSink) Option {
	return func(s *Service) {
		s.report = sink
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}
