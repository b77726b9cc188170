package config

import (
	"errors"
	"time"
)

// MessagingConfig 消息协议配置
type MessagingConfig struct {
	// SendTimeout 默认发送超时（拨号、写入、等待 ACK 共用）
	SendTimeout Duration `json:"send_timeout" yaml:"send_timeout"`

	// MaxMessageSize 单帧最大字节数
	MaxMessageSize int `json:"max_message_size" yaml:"max_message_size"`

	// IdleTimeout 入站流空闲超时
	IdleTimeout Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// EventBuffer 每个订阅者的事件缓冲
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`
}

// DefaultMessagingConfig 返回默认消息配置
func DefaultMessagingConfig() MessagingConfig {
	return MessagingConfig{
		SendTimeout:    Duration(10 * time.Second),
		MaxMessageSize: 1 << 20,
		IdleTimeout:    Duration(60 * time.Second),
		EventBuffer:    64,
	}
}

// Validate 验证消息配置
func (c MessagingConfig) Validate() error {
	if c.SendTimeout <= 0 {
		return errors.New("messaging: send_timeout must be positive")
	}
	if c.MaxMessageSize <= 0 {
		return errors.New("messaging: max_message_size must be positive")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("messaging: idle_timeout must be positive")
	}
	if c.EventBuffer < 0 {
		return errors.New("messaging: event_buffer must be non-negative")
	}
	return nil
}
