package peerstore

import (
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
)

// Params Peerstore 依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ProvidePeerstore 提供 Peerstore，并写入配置中的已知节点
func ProvidePeerstore(p Params) *Peerstore {
	ps := New(NewConfig())
	if p.Config != nil {
		for _, info := range p.Config.KnownPeerInfos() {
			ps.AddAddrs(info.ID, info.Addrs, PermanentAddrTTL)
		}
	}
	return ps
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("peerstore",
		fx.Provide(ProvidePeerstore),
	)
}
