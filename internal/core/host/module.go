package host

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/connmgr"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	"github.com/g3tzkp/go-g3node/internal/core/transport"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config
	Identity   *identity.Identity
	Transports *transport.TransportManager
	Peerstore  *peerstore.Peerstore

	ConnMgr *connmgr.Manager `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Host    *Host
	Overlay pkgif.Overlay
}

// ProvideHost 提供 Host，并与连接管理器互相挂接
func ProvideHost(in ModuleInput) (ModuleOutput, error) {
	opts := []Option{
		WithConfig(ConfigFromUnified(in.Config)),
		WithPeerstore(in.Peerstore),
		WithMetrics(in.Metrics),
	}
	if in.ConnMgr != nil {
		opts = append(opts, WithAdmitter(in.ConnMgr))
	}

	h, err := New(in.Identity.ID(), in.Transports, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	if in.ConnMgr != nil {
		h.Notify(in.ConnMgr)
		in.ConnMgr.SetHost(h)
	}

	return ModuleOutput{Host: h, Overlay: h}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("host",
		fx.Provide(ProvideHost),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput Lifecycle 注册输入
type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Config  *config.Config
	Host    *Host
	ConnMgr *connmgr.Manager `optional:"true"`
}

// registerLifecycle 注册生命周期钩子
//
// 启动顺序：监听 → 连接管理循环；停止时反序。
func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addrs, err := in.Config.ListenAddrs()
			if err != nil {
				return err
			}
			if len(addrs) == 0 {
				return nil
			}
			if err := in.Host.Listen(addrs...); err != nil {
				return fmt.Errorf("host listen: %w", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return in.Host.Close()
		},
	})

	if in.ConnMgr != nil {
		connmgr.RegisterLifecycle(in.LC, in.ConnMgr)
	}
}
