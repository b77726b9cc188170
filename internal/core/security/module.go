package security

import (
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
)

// ModuleOutput 模块输出服务
type ModuleOutput struct {
	fx.Out

	Noise *noise.Transport
	TLS   *tls.ConfigBuilder
}

// ProvideServices 提供安全传输
func ProvideServices(id *identity.Identity) (ModuleOutput, error) {
	nt, err := noise.New(id)
	if err != nil {
		return ModuleOutput{}, err
	}
	tb, err := tls.NewConfigBuilder(id)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Noise: nt, TLS: tb}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("security",
		fx.Provide(ProvideServices),
	)
}
