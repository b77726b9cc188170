package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"
)

// Client 命令接口客户端，供 CLI 使用
type Client struct {
	base   string
	http   *http.Client
	dialer *ws.Dialer
}

// NewClient 创建客户端
//
// addr 可以是 "host:port" 或完整的 http:// URL。
func NewClient(addr string) *Client {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		base:   strings.TrimRight(addr, "/"),
		http:   &http.Client{},
		dialer: &ws.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Identity 查询节点 ID
func (c *Client) Identity(ctx context.Context) (string, error) {
	var out IdentityResponse
	if err := c.do(ctx, http.MethodGet, "/v1/identity", nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Status 查询节点状态
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

// Send 发送消息，timeout 为 0 时使用节点默认超时
func (c *Client) Send(ctx context.Context, peer, message string, timeout time.Duration) (SendResponse, error) {
	req := SendRequest{Peer: peer, Message: message}
	if timeout > 0 {
		req.Timeout = timeout.String()
	}
	var out SendResponse
	err := c.do(ctx, http.MethodPost, "/v1/messages", req, &out)
	return out, err
}

// Ping 测量到目标的往返时间
func (c *Client) Ping(ctx context.Context, peer string) (time.Duration, error) {
	var out PingResponse
	if err := c.do(ctx, http.MethodPost, "/v1/ping", PingRequest{Peer: peer}, &out); err != nil {
		return 0, err
	}
	return time.ParseDuration(out.RTT)
}

// Watch 订阅入站消息，逐条回调直到 ctx 结束、服务端关闭或 fn 返回错误
//
// 服务端正常关闭时返回 nil。
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	url := "ws" + strings.TrimPrefix(c.base, "http") + "/v1/events"
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("watch: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("watch: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if ws.IsCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// do 发送 JSON 请求并解码响应，非 2xx 时返回 *APIError
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError 命令接口返回的错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("control: %s: %s", http.StatusText(e.StatusCode), e.Message)
}

// IsStatus err 是否为指定状态码的 APIError
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
