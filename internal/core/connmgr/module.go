package connmgr

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

// Params 依赖参数
type Params struct {
	fx.In

	Config    *config.Config
	Peerstore *peerstore.Peerstore
	Metrics   *metrics.Metrics `optional:"true"`
	Clock     clock.Clock      `optional:"true"`
}

// Output 模块输出
type Output struct {
	fx.Out

	Manager *Manager
	Gater   pkgif.ConnGater
}

// ProvideManager 提供连接管理器，同时作为入站过滤器
func ProvideManager(p Params) (Output, error) {
	m, err := New(ConfigFromUnified(p.Config), p.Peerstore, p.Metrics, p.Clock)
	if err != nil {
		return Output{}, err
	}
	return Output{Manager: m, Gater: m}, nil
}

// Module 返回 Fx 模块
//
// 生命周期由 host 模块在主机创建后注册（需要先 SetHost）。
func Module() fx.Option {
	return fx.Module("connmgr",
		fx.Provide(ProvideManager),
	)
}

// RegisterLifecycle 注册启动与停止钩子
func RegisterLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
}
