package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/g3tzkp/go-g3node/internal/core/metrics"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("protocol/messaging")

// ProtocolID 消息协议 ID
const ProtocolID = protocol.Messaging

// Service 消息服务
//
// 作为入站流处理器注册到覆盖网络，同时提供出站发送。
type Service struct {
	overlay pkgif.Overlay
	cfg     Config
	metrics *metrics.Metrics
	deliver EventSink
	report  ErrorSink

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewService 创建消息服务
func NewService(o pkgif.Overlay, opts ...Option) (*Service, error) {
	if o == nil {
		return nil, errors.New("messaging: overlay is nil")
	}

	s := &Service{
		overlay:  o,
		cfg:      DefaultConfig(),
		sessions: make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxMessageSize <= 0 {
		s.cfg.MaxMessageSize = MaxMessageSize
	}
	if s.cfg.SendTimeout <= 0 {
		s.cfg.SendTimeout = DefaultConfig().SendTimeout
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Config 返回生效的配置
func (s *Service) Config() Config {
	return s.cfg
}

// Register 在覆盖网络上注册消息协议处理器
func (s *Service) Register() {
	s.overlay.RegisterProtocol(ProtocolID, s.HandleStream)
	logger.Debug("消息协议已注册", "protocol", ProtocolID)
}

// HandleStream 处理一个入站流
func (s *Service) HandleStream(stream pkgif.Stream) {
	sess := NewSession(stream, s.cfg, s.deliver, s.metrics)
	if !s.track(sess) {
		_ = stream.Reset()
		return
	}
	defer s.untrack(sess)

	err := sess.Run()
	switch {
	case err == nil:
		logger.Debug("入站流结束",
			"peer", stream.RemotePeer().ShortString(),
			"stream", stream.ID(),
			"frames", sess.Frames())
	case isDecodeErrType(err):
		logger.Warn("入站帧解码失败，关闭流",
			"peer", stream.RemotePeer().ShortString(),
			"stream", stream.ID(),
			"error", err)
		s.reportErr(err)
	default:
		logger.Debug("入站流异常结束",
			"peer", stream.RemotePeer().ShortString(),
			"stream", stream.ID(),
			"error", err)
	}
}

func isDecodeErrType(err error) bool {
	var pde *ProtocolDecodeError
	return errors.As(err, &pde)
}

// reportErr 交给错误回调，回调 panic 被吞掉
func (s *Service) reportErr(err error) {
	if s.report == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("错误回调 panic", "panic", r)
		}
	}()
	s.report(err)
}

// track 登记会话，服务已关闭时返回 false
func (s *Service) track(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Service) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	s.wg.Done()
}

// begin 登记一次出站发送
func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// ActiveSessions 当前入站会话数
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close 关闭服务
//
// 注销协议处理器，重置所有入站会话，取消所有出站发送并等待它们结束。幂等。
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	s.overlay.RemoveProtocol(ProtocolID)
	s.cancel()
	for _, sess := range sessions {
		sess.Abort()
	}
	s.wg.Wait()

	logger.Debug("消息服务已关闭", "sessions", len(sessions))
	return nil
}

// Send 向目标发送消息，使用默认超时
//
// target 可以是裸 NodeID，也可以是以 /p2p/<NodeID> 结尾的地址。
func (s *Service) Send(ctx context.Context, target string, payload []byte) types.SendResult {
	return s.SendWithTimeout(ctx, target, payload, s.cfg.SendTimeout)
}

// SendWithTimeout 向目标发送消息
//
// timeout <= 0 时使用默认超时。目标无法解析时不进行任何网络操作。
func (s *Service) SendWithTimeout(ctx context.Context, target string, payload []byte, timeout time.Duration) types.SendResult {
	info, err := types.ParseTarget(target)
	if err != nil {
		res := failed(ReasonInvalidPeer, fmt.Errorf("%w: %w", ErrInvalidPeerIdentifier, err))
		s.metrics.SendResult(res, len(payload))
		return res
	}
	return s.SendTo(ctx, info, payload, timeout)
}
