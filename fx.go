package g3node

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"

	"github.com/g3tzkp/go-g3node/internal/core/connmgr"
	"github.com/g3tzkp/go-g3node/internal/core/eventbus"
	"github.com/g3tzkp/go-g3node/internal/core/host"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	"github.com/g3tzkp/go-g3node/internal/core/protocol"
	"github.com/g3tzkp/go-g3node/internal/core/security"
	"github.com/g3tzkp/go-g3node/internal/core/transport"
	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	"github.com/g3tzkp/go-g3node/internal/protocol/messaging"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

var fxLogger = log.Logger("g3node/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Identity → Metrics → Peerstore → ConnMgr
//  2. Security → Upgrader → Transport → Host
//  3. 系统协议（identify / ping）→ EventBus → Messaging
//
// 所有协议处理器在 Invoke 阶段注册，早于 Host 在 OnStart 中开始监听。
func buildFxApp(cfg *config.Config, opts *options, node *Node) *fx.App {
	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg),
		fx.Supply(fx.Annotated{Name: "identity_key", Target: node.identity.PrivateKey()}),
		fx.Supply(&messaging.Sinks{Events: opts.onMessage, Errors: opts.onError}),

		// 基础组件
		identity.Module(),
		metrics.Module(),
		peerstore.Module(),
		connmgr.Module(),

		// 传输层
		security.Module(),
		upgrader.Module(),
		transport.Module(),
		host.Module(),

		// 协议层
		protocol.Module(),
		eventbus.Module(),
		messaging.Module(),
	}

	if opts.registerer != nil {
		reg := opts.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	fxLogger.Debug("组装节点模块", "modules", len(modules))
	return fx.New(modules...)
}

// nodeInjectParams 注入到 Node 的组件
type nodeInjectParams struct {
	fx.In

	Host      *host.Host
	Messaging *messaging.Service
	Bus       *eventbus.Bus[types.InboundMessageEvent]
	ConnMgr   *connmgr.Manager

	Metrics  *metrics.Metrics    `optional:"true"`
	Gatherer prometheus.Gatherer `optional:"true"`
}

// injectNodeComponents 把 Fx 构造的组件注入到 Node
func injectNodeComponents(node *Node) interface{} {
	return func(params nodeInjectParams) {
		node.host = params.Host
		node.messaging = params.Messaging
		node.bus = params.Bus
		node.connmgr = params.ConnMgr
		node.metrics = params.Metrics
		node.gatherer = params.Gatherer
	}
}
