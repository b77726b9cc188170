package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var errTestReset = errors.New("stream reset")

// testStream 基于 io.Pipe 的内存流，支持半关闭和重置
type testStream struct {
	id    string
	peer  types.NodeID
	proto types.ProtocolID

	r *io.PipeReader
	w *io.PipeWriter

	closes atomic.Int32
	resets atomic.Int32
}

// newStreamPair 创建一对互联的流，a 的对端是 bID，b 的对端是 aID
func newStreamPair(aID, bID types.NodeID) (*testStream, *testStream) {
	abR, abW := io.Pipe()
	baR, baW := io.Pipe()

	a := &testStream{id: "a", peer: bID, proto: ProtocolID, r: baR, w: abW}
	b := &testStream{id: "b", peer: aID, proto: ProtocolID, r: abR, w: baW}
	return a, b
}

func (s *testStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *testStream) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *testStream) Close() error {
	s.closes.Add(1)
	_ = s.w.Close()
	_ = s.r.Close()
	return nil
}

func (s *testStream) CloseWrite() error { return s.w.Close() }
func (s *testStream) CloseRead() error  { return s.r.Close() }

func (s *testStream) Reset() error {
	s.resets.Add(1)
	_ = s.w.CloseWithError(errTestReset)
	_ = s.r.CloseWithError(errTestReset)
	return nil
}

func (s *testStream) SetDeadline(time.Time) error      { return nil }
func (s *testStream) SetReadDeadline(time.Time) error  { return nil }
func (s *testStream) SetWriteDeadline(time.Time) error { return nil }

func (s *testStream) ID() string                 { return s.id }
func (s *testStream) Protocol() types.ProtocolID { return s.proto }
func (s *testStream) RemotePeer() types.NodeID   { return s.peer }

// testOverlay 最小覆盖网络：Dial 交给 dialFn，记录协议注册
type testOverlay struct {
	id     types.NodeID
	dialFn func(ctx context.Context, target types.AddrInfo) (pkgif.Stream, error)
	dials  atomic.Int32

	mu       sync.Mutex
	handlers map[types.ProtocolID]pkgif.StreamHandler
}

func newTestOverlay(id types.NodeID) *testOverlay {
	return &testOverlay{id: id, handlers: make(map[types.ProtocolID]pkgif.StreamHandler)}
}

func (o *testOverlay) ID() types.NodeID                 { return o.id }
func (o *testOverlay) Listen(...types.Multiaddr) error  { return nil }
func (o *testOverlay) Addrs() []types.Multiaddr         { return nil }
func (o *testOverlay) Conns() []pkgif.Conn              { return nil }
func (o *testOverlay) Close() error                     { return nil }

func (o *testOverlay) RegisterProtocol(id types.ProtocolID, h pkgif.StreamHandler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[id] = h
}

func (o *testOverlay) RemoveProtocol(id types.ProtocolID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.handlers, id)
}

func (o *testOverlay) Protocols() []types.ProtocolID {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.ProtocolID, 0, len(o.handlers))
	for id := range o.handlers {
		out = append(out, id)
	}
	return out
}

func (o *testOverlay) handler(id types.ProtocolID) pkgif.StreamHandler {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handlers[id]
}

func (o *testOverlay) Dial(ctx context.Context, target types.AddrInfo, _ ...types.ProtocolID) (pkgif.Stream, error) {
	o.dials.Add(1)
	if o.dialFn == nil {
		return nil, errors.New("no route")
	}
	return o.dialFn(ctx, target)
}
