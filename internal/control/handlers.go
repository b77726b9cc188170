package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"

	g3node "github.com/g3tzkp/go-g3node"
)

// ============================================================================
//                              HTTP 处理器
// ============================================================================

func (s *Server) handleIdentity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IdentityResponse{ID: s.config.Node.Identity().String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusFrom(s.config.Node.Status()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.config.Node.Status().Online {
		status = "offline"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleSend 发送消息
//
// 发送结果（包括失败）以 200 返回；只有请求本身无法解析时返回 400。
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var timeout time.Duration
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid timeout %q", req.Timeout))
			return
		}
		timeout = d
	}

	res := s.config.Node.SendWithTimeout(r.Context(), req.Peer, []byte(req.Message), timeout)
	if !res.Delivered() {
		logger.Debug("发送未确认", "peer", req.Peer, "status", res.Status, "reason", res.Reason)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req PingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rtt, err := s.config.Node.Ping(r.Context(), req.Peer)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, PingResponse{
			RTT:   rtt.String(),
			RTTMs: float64(rtt) / float64(time.Millisecond),
		})
	case errors.Is(err, g3node.ErrInvalidPeerIdentifier):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, g3node.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

// handleEvents 以 websocket 推送入站消息
//
// 每条消息一个 JSON 文本帧。订阅缓冲满时新消息被丢弃；节点停止时以
// CloseGoingAway 结束连接。
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		writeError(w, http.StatusServiceUnavailable, errors.New("control server stopping"))
		return
	}
	defer s.streams.Done()

	sub, err := s.config.Node.Subscribe(0)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer sub.Close()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写入 HTTP 错误响应
		return
	}
	defer conn.Close()

	// 读循环只用于感知对端关闭
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Out():
			if !ok {
				writeClose(conn, "node stopped")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(eventFrom(ev)); err != nil {
				logger.Debug("推送事件失败", "error", err)
				return
			}
		case <-s.done:
			writeClose(conn, "server stopping")
			return
		case <-gone:
			return
		}
	}
}

// track 登记一个事件推送连接，服务停止后返回 false
func (s *Server) track() bool {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}
	s.streams.Add(1)
	return true
}

// ============================================================================
//                              辅助函数
// ============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("JSON 编码失败", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func writeClose(conn *ws.Conn, reason string) {
	msg := ws.FormatCloseMessage(ws.CloseGoingAway, reason)
	_ = conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(writeWait))
}
