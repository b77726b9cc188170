package identify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("protocol/identify")

// ProtocolID Identify 协议 ID
const ProtocolID = protocol.Identify

const (
	// MaxMessageSize 消息大小上限
	MaxMessageSize = 64 * 1024

	// Timeout 单次识别超时
	Timeout = 10 * time.Second
)

// Service Identify 服务
//
// 作为连接事件接收者，每个新连接触发一次识别。
type Service struct {
	overlay pkgif.Overlay
	ps      *peerstore.Peerstore
	agent   string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewService 创建 Identify 服务
func NewService(o pkgif.Overlay, ps *peerstore.Peerstore, agent string) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		overlay: o,
		ps:      ps,
		agent:   agent,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler 处理 Identify 请求（响应方），写入本节点信息后关闭流
func (s *Service) Handler(stream pkgif.Stream) {
	defer stream.Close()

	info := &Info{
		Peer:         s.overlay.ID(),
		ListenAddrs:  s.overlay.Addrs(),
		Protocols:    s.overlay.Protocols(),
		AgentVersion: s.agent,
	}

	_ = stream.SetWriteDeadline(time.Now().Add(Timeout))
	if _, err := stream.Write(info.Marshal()); err != nil {
		logger.Debug("写入 identify 响应失败", "peer", stream.RemotePeer().ShortString(), "error", err)
	}
}

// Identify 主动识别节点，并把结果写入 Peerstore
func (s *Service) Identify(ctx context.Context, target types.AddrInfo) (*Info, error) {
	stream, err := s.overlay.Dial(ctx, target, ProtocolID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = stream.Reset()
	})
	defer stop()

	_ = stream.CloseWrite()
	data, err := io.ReadAll(io.LimitReader(stream, MaxMessageSize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read identify: %w", err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrMalformed, MaxMessageSize)
	}

	info := &Info{Peer: stream.RemotePeer()}
	if err := info.Unmarshal(data); err != nil {
		return nil, err
	}
	s.record(info)
	return info, nil
}

func (s *Service) record(info *Info) {
	if s.ps == nil {
		return
	}
	if len(info.ListenAddrs) > 0 {
		s.ps.AddAddrs(info.Peer, info.ListenAddrs, peerstore.IdentifyAddrTTL)
	}
	s.ps.SetProtocols(info.Peer, info.Protocols...)
	if info.AgentVersion != "" {
		s.ps.SetAgentVersion(info.Peer, info.AgentVersion)
	}
	logger.Debug("已识别节点",
		"peer", info.Peer.ShortString(),
		"addrs", len(info.ListenAddrs),
		"protocols", len(info.Protocols),
		"agent", info.AgentVersion)
}

// Connected 新连接建立后异步识别对端
func (s *Service) Connected(c pkgif.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	peer := c.RemotePeer()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, Timeout)
		defer cancel()
		if _, err := s.Identify(ctx, types.AddrInfo{ID: peer}); err != nil {
			logger.Debug("识别节点失败", "peer", peer.ShortString(), "error", err)
		}
	}()
}

// Disconnected 无操作
func (s *Service) Disconnected(pkgif.Conn) {}

// Close 取消进行中的识别并等待退出，幂等
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
