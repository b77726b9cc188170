package messaging

import (
	"context"

	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/eventbus"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Sinks 宿主应用提供的回调
type Sinks struct {
	Events EventSink
	Errors ErrorSink
}

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Overlay pkgif.Overlay

	Sinks   *Sinks                                   `optional:"true"`
	Bus     *eventbus.Bus[types.InboundMessageEvent] `optional:"true"`
	Metrics *metrics.Metrics                         `optional:"true"`
}

// ProvideService 提供消息服务
//
// 事件先同步交给宿主回调，再扇出到事件总线。宿主回调与每个订阅者
// 各自持有 Payload 的副本。
func ProvideService(in ModuleInput) (*Service, error) {
	var sinks Sinks
	if in.Sinks != nil {
		sinks = *in.Sinks
	}

	deliver := sinks.Events
	if in.Bus != nil {
		bus := in.Bus
		deliver = func(ev types.InboundMessageEvent) {
			if sinks.Events != nil {
				sinks.Events(ev.Clone())
			}
			_ = bus.Emit(ev)
		}
	}

	return NewService(in.Overlay,
		WithConfig(ConfigFromUnified(in.Config.Messaging)),
		WithEventSink(deliver),
		WithErrorSink(sinks.Errors),
		WithMetrics(in.Metrics),
	)
}

// Module 返回 Fx 模块
//
// 协议处理器在构造阶段注册，早于任何监听。
func Module() fx.Option {
	return fx.Module("messaging",
		fx.Provide(ProvideService),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Service *Service
}

func registerLifecycle(in lifecycleInput) {
	in.Service.Register()
	in.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return in.Service.Close()
		},
	})
}
