package eventbus

import (
	"context"

	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Module 返回 Fx 模块
//
// 提供入站消息事件总线，停止时关闭所有订阅。
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(newInboundBus),
		fx.Invoke(registerLifecycle),
	)
}

// newInboundBus 创建入站消息总线，每个订阅者拿到独立的 Payload
func newInboundBus() *Bus[types.InboundMessageEvent] {
	return New(WithCopy(types.InboundMessageEvent.Clone))
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC  fx.Lifecycle
	Bus *Bus[types.InboundMessageEvent]
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Bus.Close()
		},
	})
}
