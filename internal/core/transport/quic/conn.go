package quic

import (
	"context"
	"sync/atomic"

	"github.com/quic-go/quic-go"

	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// 确保实现接口
var _ pkgif.CapableConn = (*Conn)(nil)

// Conn QUIC 连接封装
type Conn struct {
	qc *quic.Conn

	localPeer, remotePeer types.NodeID
	laddr, raddr          types.Multiaddr

	streams atomic.Int64
	closed  atomic.Bool
}

// newConn 从握手完成的 QUIC 连接构建 Conn，并提取对端身份
func newConn(qc *quic.Conn, local types.NodeID) (*Conn, error) {
	remote, err := tls.RemotePeer(qc.ConnectionState().TLS)
	if err != nil {
		return nil, err
	}
	laddr, _ := types.FromNetAddr(qc.LocalAddr(), types.TransportQUIC)
	raddr, _ := types.FromNetAddr(qc.RemoteAddr(), types.TransportQUIC)
	return &Conn{
		qc:         qc,
		localPeer:  local,
		remotePeer: remote,
		laddr:      laddr,
		raddr:      raddr,
	}, nil
}

// OpenStream 创建新流
func (c *Conn) OpenStream(ctx context.Context) (pkgif.MuxedStream, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	qs, err := c.qc.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	c.streams.Add(1)
	return newStream(qs, c), nil
}

// AcceptStream 接受对方创建的流
func (c *Conn) AcceptStream() (pkgif.MuxedStream, error) {
	qs, err := c.qc.AcceptStream(context.Background())
	if err != nil {
		if c.closed.Load() {
			return nil, ErrConnectionClosed
		}
		return nil, err
	}
	c.streams.Add(1)
	return newStream(qs, c), nil
}

func (c *Conn) LocalPeer() types.NodeID          { return c.localPeer }
func (c *Conn) RemotePeer() types.NodeID         { return c.remotePeer }
func (c *Conn) LocalMultiaddr() types.Multiaddr  { return c.laddr }
func (c *Conn) RemoteMultiaddr() types.Multiaddr { return c.raddr }
func (c *Conn) Transport() string                { return types.TransportQUIC }
func (c *Conn) NumStreams() int                  { return int(c.streams.Load()) }

// Close 关闭连接
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.qc.CloseWithError(0, "connection closed")
}

// IsClosed 检查是否已关闭（含对端关闭与空闲超时）
func (c *Conn) IsClosed() bool {
	if c.closed.Load() {
		return true
	}
	return c.qc.Context().Err() != nil
}
