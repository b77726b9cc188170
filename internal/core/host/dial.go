package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	mss "github.com/multiformats/go-multistream"

	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Dial 打开到目标节点的出站流
//
// 建连、开流与协商都受 ctx 约束。ctx 结束时正在协商的流被重置，不会
// 留下半开的流。
func (h *Host) Dial(ctx context.Context, target types.AddrInfo, protocols ...types.ProtocolID) (pkgif.Stream, error) {
	if len(protocols) == 0 {
		return nil, ErrNoProtocols
	}

	c, err := h.connect(ctx, target)
	if err != nil {
		return nil, err
	}

	s, err := h.newStream(ctx, c, protocols)
	if err != nil && c.isClosed() && ctx.Err() == nil {
		// 复用的连接已失效，重新建连一次
		_ = c.Close()
		if c, err = h.connect(ctx, target); err != nil {
			return nil, err
		}
		s, err = h.newStream(ctx, c, protocols)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newStream 在连接上开流并协商协议
func (h *Host) newStream(ctx context.Context, c *conn, protocols []types.ProtocolID) (*stream, error) {
	ms, err := c.cc.OpenStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	s := newStream(c, ms, types.DirOutbound)

	stop := context.AfterFunc(ctx, func() {
		_ = s.Reset()
	})

	deadline := time.Now().Add(h.cfg.NegotiationTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.SetDeadline(deadline)

	proto, err := mss.SelectOneOf(protocols, s)
	if !stop() {
		return nil, ctx.Err()
	}
	if err != nil {
		_ = s.Reset()
		return nil, fmt.Errorf("protocol negotiation: %w", err)
	}
	_ = s.SetDeadline(time.Time{})

	s.protocol = proto
	h.metrics.StreamOpened(proto, types.DirOutbound)
	return s, nil
}

// Connect 确保与目标节点存在连接
func (h *Host) Connect(ctx context.Context, info types.AddrInfo) error {
	_, err := h.connect(ctx, info)
	return err
}

// dialCall 同一节点上合并的一次拨号
//
// 拨号上下文由所有等待者共同持有：最后一个等待者放弃时取消拨号，
// 正在握手的连接随之关闭。
type dialCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int

	done chan struct{}
	conn *conn
	err  error
}

// connect 复用或建立到节点的连接
//
// 同一节点的并发拨号合并为一次。拨号以 DialTimeout 为上限，并在所有
// 调用方的 ctx 都结束后被取消。
func (h *Host) connect(ctx context.Context, info types.AddrInfo) (*conn, error) {
	if h.closed.Load() {
		return nil, ErrHostClosed
	}
	if info.ID.IsEmpty() {
		return nil, errors.New("host: empty peer id")
	}
	if info.ID == h.id {
		return nil, ErrDialToSelf
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if h.ps != nil && len(info.Addrs) > 0 {
		h.ps.AddAddrs(info.ID, info.Addrs, peerstore.TempAddrTTL)
	}

	if c := h.bestConn(info.ID); c != nil {
		return c, nil
	}

	call, err := h.joinDial(info)
	if err != nil {
		return nil, err
	}
	defer h.leaveDial(info.ID, call)

	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		return call.conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// joinDial 加入进行中的拨号，没有时发起一次
func (h *Host) joinDial(info types.AddrInfo) (*dialCall, error) {
	h.dialMu.Lock()
	defer h.dialMu.Unlock()

	if h.closed.Load() {
		return nil, ErrHostClosed
	}
	call, ok := h.dials[info.ID]
	if !ok {
		ctx, cancel := context.WithTimeout(h.ctx, h.cfg.DialTimeout)
		call = &dialCall{ctx: ctx, cancel: cancel, done: make(chan struct{})}
		h.dials[info.ID] = call

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			call.conn, call.err = h.dialPeer(call.ctx, info)

			h.dialMu.Lock()
			if h.dials[info.ID] == call {
				delete(h.dials, info.ID)
			}
			h.dialMu.Unlock()

			close(call.done)
			call.cancel()
		}()
	}
	call.waiters++
	return call, nil
}

// leaveDial 退出等待；最后一个等待者退出时取消尚未完成的拨号
func (h *Host) leaveDial(id types.NodeID, call *dialCall) {
	h.dialMu.Lock()
	defer h.dialMu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}
	select {
	case <-call.done:
		return
	default:
	}
	call.cancel()
	// 被取消的拨号不再接纳新的等待者
	if h.dials[id] == call {
		delete(h.dials, id)
	}
}

// dialPeer 依次尝试节点的已知地址
func (h *Host) dialPeer(ctx context.Context, info types.AddrInfo) (*conn, error) {
	if c := h.bestConn(info.ID); c != nil {
		return c, nil
	}

	addrs := h.addrsFor(info)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAddresses, info.ID.ShortString())
	}

	logger.Debug("开始拨号", "peer", info.ID.ShortString(), "addrs", len(addrs))

	var errs []error
	for _, addr := range addrs {
		cc, err := h.dialAddr(ctx, info.ID, addr)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			// 握手完成时所有等待者已放弃
			_ = cc.Close()
			return nil, err
		}

		c, err := h.addConn(cc, types.DirOutbound)
		if err != nil {
			return nil, err
		}
		if h.ps != nil {
			h.ps.AddAddrs(info.ID, []types.Multiaddr{addr}, peerstore.ConnectedAddrTTL)
		}
		return c, nil
	}

	return nil, &DialError{Peer: info.ID, Errors: errs}
}

// dialAddr 拨号单个地址
func (h *Host) dialAddr(ctx context.Context, peer types.NodeID, addr types.Multiaddr) (pkgif.CapableConn, error) {
	t, err := h.transports.ForAddr(addr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cc, err := t.Dial(ctx, addr, peer)
	if err != nil {
		logger.Debug("拨号失败", "peer", peer.ShortString(), "addr", addr, "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if cc.RemotePeer() != peer {
		_ = cc.Close()
		return nil, fmt.Errorf("dial %s: peer id mismatch: expected %s, got %s",
			addr, peer.ShortString(), cc.RemotePeer().ShortString())
	}
	return cc, nil
}

// addrsFor 合并 AddrInfo 与地址簿中的地址，AddrInfo 的在前
func (h *Host) addrsFor(info types.AddrInfo) []types.Multiaddr {
	seen := make(map[types.Multiaddr]struct{})
	var out []types.Multiaddr
	add := func(addrs []types.Multiaddr) {
		for _, a := range addrs {
			a = a.WithoutPeerID()
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	add(info.Addrs)
	if h.ps != nil {
		add(h.ps.Addrs(info.ID))
	}
	return out
}
