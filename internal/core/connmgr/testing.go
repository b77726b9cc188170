package connmgr

import (
	"context"
	"sync"
	"time"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// testConn 测试用连接
type testConn struct {
	peer    types.NodeID
	opened  time.Time
	streams int

	mu     sync.Mutex
	closed bool
	onClose func(*testConn)
}

func (c *testConn) ID() string                       { return c.peer.ShortString() }
func (c *testConn) RemotePeer() types.NodeID         { return c.peer }
func (c *testConn) RemoteMultiaddr() types.Multiaddr { return "" }
func (c *testConn) Direction() types.Direction       { return types.DirInbound }
func (c *testConn) Opened() time.Time                { return c.opened }
func (c *testConn) NumStreams() int                  { return c.streams }

func (c *testConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.onClose != nil {
		c.onClose(c)
	}
	return nil
}

func (c *testConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// testHost 测试用主机
type testHost struct {
	id types.NodeID

	mu      sync.Mutex
	conns   []*testConn
	dialed  []types.NodeID
	dialErr error
}

func (h *testHost) ID() types.NodeID { return h.id }

func (h *testHost) Conns() []pkgif.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]pkgif.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		if !c.isClosed() {
			out = append(out, c)
		}
	}
	return out
}

func (h *testHost) Connect(_ context.Context, info types.AddrInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dialed = append(h.dialed, info.ID)
	if h.dialErr != nil {
		return h.dialErr
	}
	h.conns = append(h.conns, &testConn{peer: info.ID, opened: time.Now()})
	return nil
}

func (h *testHost) add(c *testConn) {
	h.mu.Lock()
	h.conns = append(h.conns, c)
	h.mu.Unlock()
}

func (h *testHost) dialedPeers() []types.NodeID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.NodeID(nil), h.dialed...)
}
