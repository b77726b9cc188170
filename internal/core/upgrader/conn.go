package upgrader

import (
	"context"

	"github.com/g3tzkp/go-g3node/internal/core/muxer"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// 确保实现了接口
var _ pkgif.CapableConn = (*upgradedConn)(nil)

// upgradedConn 升级后的连接
type upgradedConn struct {
	sess *muxer.Session
	sec  *noise.Conn

	transport    string
	laddr, raddr types.Multiaddr
}

func (c *upgradedConn) OpenStream(ctx context.Context) (pkgif.MuxedStream, error) {
	s, err := c.sess.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *upgradedConn) AcceptStream() (pkgif.MuxedStream, error) {
	s, err := c.sess.AcceptStream()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *upgradedConn) LocalPeer() types.NodeID          { return c.sec.LocalPeer() }
func (c *upgradedConn) RemotePeer() types.NodeID         { return c.sec.RemotePeer() }
func (c *upgradedConn) LocalMultiaddr() types.Multiaddr  { return c.laddr }
func (c *upgradedConn) RemoteMultiaddr() types.Multiaddr { return c.raddr }
func (c *upgradedConn) Transport() string                { return c.transport }
func (c *upgradedConn) NumStreams() int                  { return c.sess.NumStreams() }

// Close 关闭会话（会话关闭底层安全连接）
func (c *upgradedConn) Close() error {
	return c.sess.Close()
}

func (c *upgradedConn) IsClosed() bool {
	return c.sess.IsClosed()
}
