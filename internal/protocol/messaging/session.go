package messaging

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// State 入站会话状态
type State int32

const (
	// StateOpen 流已打开，尚未读取
	StateOpen State = iota
	// StateReading 等待下一帧
	StateReading
	// StateResponding 正在回写 ACK
	StateResponding
	// StateClosed 终态，流已释放
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReading:
		return "reading"
	case StateResponding:
		return "responding"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session 驱动一个入站流，从打开到关闭
//
// 会话独占其流；Run 只能由一个 goroutine 调用一次。
type Session struct {
	id      string
	stream  pkgif.Stream
	cfg     Config
	deliver EventSink
	metrics *metrics.Metrics
	now     func() time.Time

	state    atomic.Int32
	frames   atomic.Int64
	released sync.Once
}

// NewSession 创建会话
func NewSession(stream pkgif.Stream, cfg Config, deliver EventSink, m *metrics.Metrics) *Session {
	return &Session{
		id:      uuid.NewString(),
		stream:  stream,
		cfg:     cfg,
		deliver: deliver,
		metrics: m,
		now:     time.Now,
	}
}

// ID 会话标识
func (s *Session) ID() string {
	return s.id
}

// State 当前状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// Frames 已确认的帧数
func (s *Session) Frames() int64 {
	return s.frames.Load()
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run 运行状态机直到 Closed
//
// 对端正常结束流时返回 nil；解码失败返回 *ProtocolDecodeError；
// 其他情况返回导致关闭的 I/O 错误。返回时流已释放。
func (s *Session) Run() error {
	defer s.release()

	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()

	fr := NewFrameReader(s.stream, s.cfg.MaxMessageSize)
	s.setState(StateReading)

	for {
		if s.cfg.IdleTimeout > 0 {
			_ = s.stream.SetReadDeadline(s.now().Add(s.cfg.IdleTimeout))
		}

		frame, err := fr.ReadFrame()
		if err == nil {
			err = DecodeText(frame)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if isDecodeErr(err) {
				s.metrics.DecodeError()
				return &ProtocolDecodeError{
					Peer:   s.stream.RemotePeer(),
					Stream: s.stream.ID(),
					Err:    err,
				}
			}
			return err
		}

		if err := s.emit(frame); err != nil {
			return err
		}

		s.setState(StateResponding)
		if s.cfg.IdleTimeout > 0 {
			_ = s.stream.SetWriteDeadline(s.now().Add(s.cfg.IdleTimeout))
		}
		if err := WriteFrame(s.stream, protocol.AckFrame()); err != nil {
			return fmt.Errorf("write ack: %w", err)
		}
		s.frames.Add(1)
		s.setState(StateReading)
	}
}

// emit 同步交付事件
//
// 回调 panic 被转换为错误，只结束当前会话。
func (s *Session) emit(frame []byte) (err error) {
	ev := types.InboundMessageEvent{
		ID:         uuid.NewString(),
		From:       s.stream.RemotePeer(),
		Protocol:   s.stream.Protocol(),
		Payload:    frame,
		ReceivedAt: s.now(),
	}
	s.metrics.MessageReceived(len(frame))

	if s.deliver == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messaging: event sink panic: %v", r)
		}
	}()
	s.deliver(ev)
	return nil
}

// Abort 重置流，使阻塞中的 Run 立即返回
func (s *Session) Abort() {
	if s.State() == StateClosed {
		return
	}
	_ = s.stream.Reset()
}

// release 释放流，只执行一次
func (s *Session) release() {
	s.released.Do(func() {
		if err := s.stream.Close(); err != nil {
			logger.Debug("关闭入站流失败", "stream", s.stream.ID(), "error", err)
		}
		s.setState(StateClosed)
	})
}
