package host

import (
	"strconv"
	"sync"
	"time"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// conn Host 持有的连接
type conn struct {
	host *Host
	cc   pkgif.CapableConn

	id     string
	dir    types.Direction
	opened time.Time

	// evMu 串行化同一连接的建立与断开通知
	evMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

var _ pkgif.Conn = (*conn)(nil)

func newConn(h *Host, cc pkgif.CapableConn, dir types.Direction) *conn {
	return &conn{
		host:   h,
		cc:     cc,
		id:     cc.RemotePeer().ShortString() + "-" + strconv.FormatUint(h.nextID.Add(1), 10),
		dir:    dir,
		opened: time.Now(),
	}
}

func (c *conn) ID() string                       { return c.id }
func (c *conn) RemotePeer() types.NodeID         { return c.cc.RemotePeer() }
func (c *conn) RemoteMultiaddr() types.Multiaddr { return c.cc.RemoteMultiaddr() }
func (c *conn) Direction() types.Direction       { return c.dir }
func (c *conn) Opened() time.Time                { return c.opened }
func (c *conn) NumStreams() int                  { return c.cc.NumStreams() }

// Close 关闭连接并从 Host 移除，幂等
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.cc.Close()
		c.host.removeConn(c)
	})
	return c.closeErr
}

func (c *conn) isClosed() bool {
	return c.cc.IsClosed()
}
