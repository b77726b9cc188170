package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	g3node "github.com/g3tzkp/go-g3node"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("control")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:9190"

// maxBodySize 请求体上限（消息本身最大 1 MiB，另留 JSON 开销）
const maxBodySize = 2 << 20

// writeWait 单条 websocket 写入超时
const writeWait = 5 * time.Second

// ============================================================================
//                              配置
// ============================================================================

// Node 命令接口依赖的节点能力，*g3node.Node 实现此接口
type Node interface {
	Identity() types.NodeID
	Status() types.NodeStatus
	SendWithTimeout(ctx context.Context, target string, payload []byte, timeout time.Duration) types.SendResult
	Ping(ctx context.Context, target string) (time.Duration, error)
	Subscribe(buffer int) (g3node.Subscription, error)
}

var _ Node = (*g3node.Node)(nil)

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 "127.0.0.1:9190"
	Addr string

	// Node 被控制的节点
	Node Node

	// Gatherer 可选，非空时暴露 /metrics
	Gatherer prometheus.Gatherer

	// Pprof 暴露 /debug/pprof/
	Pprof bool
}

// ============================================================================
//                              Server
// ============================================================================

// Server 宿主应用命令接口（HTTP + websocket）
type Server struct {
	config   Config
	upgrader ws.Upgrader

	server   *http.Server
	listener net.Listener

	// done Stop 时关闭，结束所有事件推送连接
	done     chan struct{}
	doneOnce sync.Once
	trackMu  sync.Mutex
	streams  sync.WaitGroup

	running bool
	mu      sync.Mutex
}

// New 创建命令接口服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		config: cfg,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		done: make(chan struct{}),
	}
}

// Handler 返回路由，测试可直接挂到 httptest.Server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/identity", s.handleIdentity)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("POST /v1/messages", s.handleSend)
	mux.HandleFunc("POST /v1/ping", s.handlePing)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.config.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.config.Pprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.config.Node == nil {
		return errors.New("control: node is required")
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("命令接口异常退出", "error", err)
		}
	}()

	s.running = true
	logger.Info("命令接口已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
//
// 先结束事件推送连接，再关闭 HTTP 服务。幂等。
func (s *Server) Stop() error {
	s.closeStreams()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭命令接口失败", "error", err)
		return err
	}
	logger.Info("命令接口已停止")
	return nil
}

// closeStreams 结束并等待所有事件推送连接
func (s *Server) closeStreams() {
	s.doneOnce.Do(func() {
		s.trackMu.Lock()
		close(s.done)
		s.trackMu.Unlock()
	})
	s.streams.Wait()
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}
