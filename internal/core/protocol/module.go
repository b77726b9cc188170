package protocol

import (
	"context"

	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/internal/core/host"
	"github.com/g3tzkp/go-g3node/internal/core/protocol/system/identify"
	"github.com/g3tzkp/go-g3node/internal/core/protocol/system/ping"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
)

var logger = log.Logger("core/protocol")

// ProvideIdentify 提供 Identify 服务
func ProvideIdentify(h *host.Host) *identify.Service {
	return identify.NewService(h, h.Peerstore(), h.AgentVersion())
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("protocol",
		fx.Provide(ProvideIdentify),
		fx.Invoke(registerSystemProtocols),
	)
}

// systemProtocolsInput 系统协议注册输入
type systemProtocolsInput struct {
	fx.In

	LC       fx.Lifecycle
	Host     *host.Host
	Identify *identify.Service
}

// registerSystemProtocols 注册系统协议
func registerSystemProtocols(in systemProtocolsInput) {
	ping.Register(in.Host)
	in.Host.RegisterProtocol(identify.ProtocolID, in.Identify.Handler)
	in.Host.Notify(in.Identify)

	logger.Debug("系统协议已注册", "protocols", []string{string(ping.ProtocolID), string(identify.ProtocolID)})

	in.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return in.Identify.Close()
		},
	})
}
