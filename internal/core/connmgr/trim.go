package connmgr

import (
	"context"
	"slices"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

// TrimOpenConns 连接数超过上限时关闭多余连接
//
// 只关闭没有活跃流的连接，按建立时间从早到晚；全部连接都有活跃流时
// 本轮不裁剪。
func (m *Manager) TrimOpenConns(_ context.Context) {
	if m.host == nil {
		return
	}
	conns := m.host.Conns()
	excess := len(conns) - m.cfg.Policy.MaxConnections
	if excess <= 0 {
		return
	}

	idle := slices.DeleteFunc(slices.Clone(conns), func(c pkgif.Conn) bool {
		return c.NumStreams() > 0
	})
	slices.SortFunc(idle, func(a, b pkgif.Conn) int {
		return a.Opened().Compare(b.Opened())
	})
	if len(idle) > excess {
		idle = idle[:excess]
	}

	logger.Info("裁剪连接", "current", len(conns), "max", m.cfg.Policy.MaxConnections, "toTrim", len(idle))
	for _, c := range idle {
		if err := c.Close(); err != nil {
			logger.Debug("关闭连接失败", "peer", c.RemotePeer().ShortString(), "error", err)
		}
	}
}
