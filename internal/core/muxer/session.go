package muxer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/yamux"
)

// ErrSessionClosed 会话已关闭
var ErrSessionClosed = errors.New("muxer: session closed")

// Session 封装 yamux.Session
type Session struct {
	session  *yamux.Session
	isServer bool
	closed   atomic.Bool

	mu      sync.Mutex
	streams map[uint32]*Stream
}

// NewSession 在安全连接上创建多路复用会话
//
// isServer 为 true 时作为 yamux 服务端（入站连接）。
func NewSession(conn io.ReadWriteCloser, isServer bool, cfg *yamux.Config) (*Session, error) {
	if conn == nil {
		return nil, errors.New("muxer: conn is nil")
	}
	if cfg == nil {
		cfg = DefaultYamuxConfig()
	}

	var (
		s   *yamux.Session
		err error
	)
	if isServer {
		s, err = yamux.Server(conn, cfg)
	} else {
		s, err = yamux.Client(conn, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("创建 yamux session 失败: %w", err)
	}

	return &Session{
		session:  s,
		isServer: isServer,
		streams:  make(map[uint32]*Stream),
	}, nil
}

// OpenStream 创建新流
//
// yamux 的 OpenStream 不支持 context，在单独的 goroutine 中打开；
// ctx 先结束时关闭孤立的流以防泄漏。
func (s *Session) OpenStream(ctx context.Context) (*Stream, error) {
	if s.IsClosed() {
		return nil, ErrSessionClosed
	}

	type result struct {
		stream *yamux.Stream
		err    error
	}
	resultCh := make(chan result, 1)
	abandoned := make(chan struct{})

	go func() {
		ys, err := s.session.OpenStream()
		select {
		case resultCh <- result{ys, err}:
		case <-abandoned:
			if ys != nil {
				_ = ys.Close()
			}
		}
	}()

	select {
	case <-ctx.Done():
		close(abandoned)
		// goroutine 可能已把结果放入缓冲
		select {
		case r := <-resultCh:
			if r.stream != nil {
				_ = r.stream.Close()
			}
		default:
		}
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("创建流失败: %w", r.err)
		}
		return s.track(r.stream), nil
	}
}

// AcceptStream 接受新流
func (s *Session) AcceptStream() (*Stream, error) {
	ys, err := s.session.AcceptStream()
	if err != nil {
		if s.IsClosed() || errors.Is(err, yamux.ErrSessionShutdown) {
			return nil, ErrSessionClosed
		}
		return nil, fmt.Errorf("接受流失败: %w", err)
	}
	return s.track(ys), nil
}

// Close 关闭会话及其全部流，幂等
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	streams := s.streams
	s.streams = make(map[uint32]*Stream)
	s.mu.Unlock()

	for _, st := range streams {
		_ = st.Reset()
	}
	return s.session.Close()
}

// IsClosed 检查是否已关闭
func (s *Session) IsClosed() bool {
	return s.closed.Load() || s.session.IsClosed()
}

// CloseChan 会话关闭时关闭的 channel
func (s *Session) CloseChan() <-chan struct{} {
	return s.session.CloseChan()
}

// NumStreams 返回当前活跃流数量
func (s *Session) NumStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// IsServer 返回是否是服务端
func (s *Session) IsServer() bool {
	return s.isServer
}

func (s *Session) track(ys *yamux.Stream) *Stream {
	st := newStream(ys, s.untrack)
	s.mu.Lock()
	s.streams[st.id] = st
	s.mu.Unlock()
	return st
}

func (s *Session) untrack(id uint32) {
	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()
}
