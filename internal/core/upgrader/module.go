package upgrader

import (
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/muxer"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

// Params Upgrader 依赖参数
type Params struct {
	fx.In

	Security *noise.Transport
	Config   *config.Config  `optional:"true"`
	Gater    pkgif.ConnGater `optional:"true"`
}

// ConfigFromUnified 从统一配置创建 Upgrader 配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := NewConfig()
	if cfg != nil {
		c.HandshakeTimeout = cfg.Transport.HandshakeTimeout.Duration()
		c.Yamux = muxer.ConfigToYamux(cfg.Transport.Yamux)
	}
	return c
}

// ProvideUpgrader 提供 Upgrader（依赖注入）
func ProvideUpgrader(p Params) (*Upgrader, error) {
	u, err := New(p.Security, ConfigFromUnified(p.Config))
	if err != nil {
		return nil, err
	}
	if p.Gater != nil {
		u.SetGater(p.Gater)
	}
	return u, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("upgrader",
		fx.Provide(ProvideUpgrader),
	)
}
