package transport

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	"github.com/g3tzkp/go-g3node/internal/core/transport/quic"
	"github.com/g3tzkp/go-g3node/internal/core/transport/tcp"
	"github.com/g3tzkp/go-g3node/internal/core/transport/websocket"
	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/transport")

// TransportManager 传输管理器
type TransportManager struct {
	transports []pkgif.Transport
}

// NewTransportManager 按配置创建传输
func NewTransportManager(
	cfg config.TransportConfig,
	id *identity.Identity,
	tb *tls.ConfigBuilder,
	u *upgrader.Upgrader,
	gater pkgif.ConnGater,
) *TransportManager {
	tm := &TransportManager{}

	if cfg.EnableQUIC {
		qt := quic.New(id.ID(), tb, quic.ConfigFromUnified(cfg.QUIC))
		if gater != nil {
			qt.SetGater(gater)
		}
		tm.transports = append(tm.transports, qt)
	}
	if cfg.EnableTCP {
		tm.transports = append(tm.transports, tcp.New(u))
	}
	if cfg.EnableWebSocket {
		tm.transports = append(tm.transports, websocket.New(u))
	}

	logger.Debug("传输管理器创建成功", "transportCount", len(tm.transports))
	return tm
}

// Transports 返回所有传输
func (tm *TransportManager) Transports() []pkgif.Transport {
	return tm.transports
}

// ForAddr 返回可拨号或监听该地址的传输
func (tm *TransportManager) ForAddr(addr types.Multiaddr) (pkgif.Transport, error) {
	for _, t := range tm.transports {
		if t.Protocol() == addr.Transport() {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", pkgif.ErrUnsupportedAddr, addr)
}

// Close 关闭所有传输
func (tm *TransportManager) Close() error {
	var err error
	for _, t := range tm.transports {
		err = multierr.Append(err, t.Close())
	}
	return err
}

// Params 依赖参数
type Params struct {
	fx.In

	Config   *config.Config
	Identity *identity.Identity
	TLS      *tls.ConfigBuilder
	Upgrader *upgrader.Upgrader
	Gater    pkgif.ConnGater `optional:"true"`
}

// ProvideTransports 提供 TransportManager
func ProvideTransports(p Params) *TransportManager {
	return NewTransportManager(p.Config.Transport, p.Identity, p.TLS, p.Upgrader, p.Gater)
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideTransports),
		fx.Invoke(registerLifecycle),
	)
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, tm *TransportManager) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return tm.Close()
		},
	})
}
