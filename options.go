package g3node

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/g3tzkp/go-g3node/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// config 完整配置，为 nil 时使用默认配置
	config *config.Config

	// privateKey 直接指定的身份私钥，优先于配置中的密钥文件
	privateKey ed25519.PrivateKey

	// onMessage 入站消息回调，在回写 ACK 之前同步调用
	onMessage func(InboundMessageEvent)

	// onError 单个流上的错误回调
	onError func(error)

	// registerer 指标注册器
	registerer prometheus.Registerer
}

// WithConfig 使用完整配置
//
// 配置在 New 中复制，之后对 cfg 的修改不影响节点。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		c := *cfg
		o.config = &c
		return nil
	}
}

// WithIdentity 使用指定的 Ed25519 私钥作为节点身份
func WithIdentity(key ed25519.PrivateKey) Option {
	return func(o *options) error {
		if len(key) != ed25519.PrivateKeySize {
			return fmt.Errorf("invalid private key size: %d", len(key))
		}
		o.privateKey = key
		return nil
	}
}

// WithMessageHandler 设置入站消息回调
//
// 回调在流的处理 goroutine 中同步执行，发送方在回调返回后才收到确认。
// 回调中不要做长时间阻塞的操作。
func WithMessageHandler(fn func(InboundMessageEvent)) Option {
	return func(o *options) error {
		o.onMessage = fn
		return nil
	}
}

// WithErrorHandler 设置错误回调，例如 *ProtocolDecodeError
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) error {
		o.onError = fn
		return nil
	}
}

// WithMetricsRegisterer 把节点指标注册到 reg
//
// 未设置时使用节点私有的 Registry。
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}
