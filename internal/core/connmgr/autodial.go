package connmgr

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// maxConcurrentDials 自动拨号并发上限
const maxConcurrentDials = 8

// AutoDial 连接数低于下限时拨号补足
//
// 候选为 peerstore 中拥有地址、尚未连接的节点。单个节点拨号失败不影响
// 其他节点，也不在本轮内补拨替代节点。
func (m *Manager) AutoDial(ctx context.Context) {
	if m.host == nil || m.ps == nil {
		return
	}
	conns := m.host.Conns()
	deficit := m.cfg.Policy.MinConnections - len(conns)
	if deficit <= 0 {
		return
	}

	connected := make(map[types.NodeID]struct{}, len(conns))
	for _, c := range conns {
		connected[c.RemotePeer()] = struct{}{}
	}

	self := m.host.ID()
	var candidates []types.NodeID
	for _, id := range m.ps.PeersWithAddrs() {
		if id == self {
			continue
		}
		if _, ok := connected[id]; ok {
			continue
		}
		candidates = append(candidates, id)
		if len(candidates) == deficit {
			break
		}
	}
	if len(candidates) == 0 {
		return
	}

	logger.Debug("自动拨号", "connections", len(conns), "min", m.cfg.Policy.MinConnections, "candidates", len(candidates))

	var g errgroup.Group
	g.SetLimit(maxConcurrentDials)
	for _, id := range candidates {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
			defer cancel()
			if err := m.host.Connect(dctx, m.ps.PeerInfo(id)); err != nil {
				logger.Debug("自动拨号失败", "peer", id.ShortString(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
