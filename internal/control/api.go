package control

import (
	"time"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ============================================================================
//                              请求与响应
// ============================================================================

// IdentityResponse GET /v1/identity
type IdentityResponse struct {
	ID string `json:"id"`
}

// StatusResponse GET /v1/status
type StatusResponse struct {
	ID     string   `json:"id"`
	Online bool     `json:"online"`
	Addrs  []string `json:"addrs"`
	Peers  int      `json:"peers"`
}

// SendRequest POST /v1/messages
type SendRequest struct {
	Peer    string `json:"peer"`
	Message string `json:"message"`

	// Timeout 可选，如 "5s"；为空时使用节点默认超时
	Timeout string `json:"timeout,omitempty"`
}

// SendResponse POST /v1/messages，与 types.SendResult 的 JSON 形式一致
type SendResponse struct {
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// PingRequest POST /v1/ping
type PingRequest struct {
	Peer string `json:"peer"`
}

// PingResponse POST /v1/ping
type PingResponse struct {
	RTT   string  `json:"rtt"`
	RTTMs float64 `json:"rttMs"`
}

// Event GET /v1/events 推送的入站消息
type Event struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Protocol   string    `json:"protocol"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

func eventFrom(ev types.InboundMessageEvent) Event {
	return Event{
		ID:         ev.ID,
		From:       ev.From.String(),
		Protocol:   string(ev.Protocol),
		Message:    ev.Text(),
		ReceivedAt: ev.ReceivedAt,
	}
}

func statusFrom(st types.NodeStatus) StatusResponse {
	addrs := make([]string, len(st.Addrs))
	for i, a := range st.Addrs {
		addrs[i] = a.String()
	}
	return StatusResponse{
		ID:     st.ID.String(),
		Online: st.Online,
		Addrs:  addrs,
		Peers:  st.Peers,
	}
}
