package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy 连接策略无效
//
// 在节点构造时快速失败，节点不会启动。
var ErrInvalidPolicy = errors.New("config: invalid connection policy")

// ConnectionPolicy 连接策略
//
// 约束节点并发连接数和自动拨号行为。构造时校验一次，之后按值传递，
// 不再修改。
type ConnectionPolicy struct {
	// MinConnections 最小连接数
	// 低于此值且 AutoDial 开启时，从地址簿中自动拨号补足
	MinConnections int `json:"min_connections" yaml:"min_connections"`

	// MaxConnections 最大连接数
	// 达到此值后拒绝新的入站连接，轮询时回收多余的空闲连接
	MaxConnections int `json:"max_connections" yaml:"max_connections"`

	// PollInterval 连接数检查间隔
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval"`

	// AutoDial 是否自动拨号
	AutoDial bool `json:"auto_dial" yaml:"auto_dial"`

	// AutoDialInterval 自动拨号间隔
	AutoDialInterval Duration `json:"auto_dial_interval" yaml:"auto_dial_interval"`
}

// DefaultConnectionPolicy 返回默认连接策略
func DefaultConnectionPolicy() ConnectionPolicy {
	return ConnectionPolicy{
		MinConnections:   1,
		MaxConnections:   25,
		PollInterval:     Duration(2 * time.Second),
		AutoDial:         true,
		AutoDialInterval: Duration(10 * time.Second),
	}
}

// Validate 验证连接策略
//
// 不做任何修正：MinConnections > MaxConnections 或任一间隔 ≤ 0 都直接
// 返回包装了 ErrInvalidPolicy 的错误。
func (p ConnectionPolicy) Validate() error {
	if p.MinConnections < 0 {
		return fmt.Errorf("%w: min_connections must be non-negative, got %d", ErrInvalidPolicy, p.MinConnections)
	}
	if p.MaxConnections < p.MinConnections {
		return fmt.Errorf("%w: max_connections (%d) < min_connections (%d)",
			ErrInvalidPolicy, p.MaxConnections, p.MinConnections)
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidPolicy)
	}
	if p.AutoDialInterval <= 0 {
		return fmt.Errorf("%w: auto_dial_interval must be positive", ErrInvalidPolicy)
	}
	return nil
}
