package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// SendTo 向已解析的目标发送消息
//
// 每次调用恰好返回一个结果。拨号、写入和等待 ACK 共用同一个超时；
// 超时或取消时流被重置，返回时流已关闭。
func (s *Service) SendTo(ctx context.Context, target types.AddrInfo, payload []byte, timeout time.Duration) (res types.SendResult) {
	start := time.Now()
	defer func() {
		res.Latency = time.Since(start)
		s.metrics.SendResult(res, len(payload))
		logger.Debug("发送完成",
			"peer", target.ID.ShortString(),
			"status", res.Status.String(),
			"reason", res.Reason,
			"latency", res.Latency)
	}()

	if target.ID.IsEmpty() {
		return failed(ReasonInvalidPeer, ErrInvalidPeerIdentifier)
	}
	if len(payload) > s.cfg.MaxMessageSize {
		return failed(ReasonInvalidMessage, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, len(payload), s.cfg.MaxMessageSize))
	}
	if err := DecodeText(payload); err != nil {
		return failed(ReasonInvalidMessage, err)
	}

	if !s.begin() {
		return failed(ReasonClosed, ErrServiceClosed)
	}
	defer s.wg.Done()

	if timeout <= 0 {
		timeout = s.cfg.SendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	stopSvc := context.AfterFunc(s.ctx, cancel)
	defer stopSvc()

	stream, err := s.overlay.Dial(ctx, target, ProtocolID)
	if err != nil {
		return s.failure(ctx, ReasonDial, fmt.Errorf("%w: %w", ErrDial, err))
	}
	defer stream.Close()

	// 超时或取消时重置流，打断阻塞中的读写
	stop := context.AfterFunc(ctx, func() {
		_ = stream.Reset()
	})
	defer stop()

	if err := WriteFrame(stream, payload); err != nil {
		return s.failure(ctx, ReasonStream, fmt.Errorf("write message: %w", err))
	}
	if err := stream.CloseWrite(); err != nil {
		return s.failure(ctx, ReasonStream, fmt.Errorf("close write: %w", err))
	}

	fr := NewFrameReader(stream, s.cfg.MaxMessageSize)
	for {
		frame, err := fr.ReadFrame()
		if err == nil {
			if protocol.IsAck(frame) {
				return types.SendResult{Status: types.SendDelivered}
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return s.failure(ctx, ReasonStream, err)
			}
			return types.SendResult{Status: types.SendNoAcknowledgment}
		}
		if isDecodeErr(err) {
			return s.failure(ctx, ReasonProtocol, err)
		}
		return s.failure(ctx, ReasonStream, fmt.Errorf("read ack: %w", err))
	}
}

// failure 构造失败结果；ctx 已结束时以超时、取消或关闭为准
func (s *Service) failure(ctx context.Context, reason string, err error) types.SendResult {
	switch {
	case s.ctx.Err() != nil:
		return failed(ReasonClosed, ErrServiceClosed)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return failed(ReasonTimeout, fmt.Errorf("%w: %w", ErrTimeout, context.DeadlineExceeded))
	case errors.Is(ctx.Err(), context.Canceled):
		return failed(ReasonCanceled, context.Canceled)
	}
	return failed(reason, err)
}

func failed(reason string, err error) types.SendResult {
	return types.SendResult{Status: types.SendFailed, Reason: reason, Err: err}
}
